// Package llm provides the wire representations of chat-completion requests,
// streamed chunks and conversation turns shared by cortex's providers,
// renderers and storage.
package llm

// ErrorResponse is the JSON error body cortex returns from its own API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIErrorBody is the error object of an OpenAI-compatible API.
type APIErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}

// APIErrorEnvelope wraps APIErrorBody the way non-2xx responses carry it.
type APIErrorEnvelope struct {
	Error APIErrorBody `json:"error"`
}
