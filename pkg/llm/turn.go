package llm

// Turn is one committed request/response cycle: the window of messages sent to
// the provider and the assistant reply that was appended afterwards.
type Turn struct {
	SessionID string    `json:"session_id"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Reply     Message   `json:"reply"`
}
