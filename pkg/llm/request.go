package llm

// ChatRequest represents a chat completion request (OpenAI-compatible, as
// served by Groq).
type ChatRequest struct {
	Model    string    `json:"model"`    // Model name (e.g., "llama-3.3-70b-versatile")
	Messages []Message `json:"messages"` // Conversation history, system message first
	Stream   bool      `json:"stream"`   // Always true for cortex

	*Options
}
