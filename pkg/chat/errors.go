package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/cortex/pkg/provider"
)

var (
	// ErrBusy is returned when a session already has a response streaming.
	ErrBusy = errors.New("a response is still streaming")

	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
)

// StreamError is returned when a turn fails after the request was sent.
// Nothing was appended to the conversation.
type StreamError struct {
	Partial int // bytes accumulated before the failure
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial > 0 {
		return fmt.Sprintf("stream failed after %d bytes: %v", e.Partial, e.Err)
	}
	return fmt.Sprintf("stream failed: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// UserMessage converts a turn error into the text shown in place of the
// assistant reply.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "Please wait for the current answer to finish."
	case errors.Is(err, ErrEmptyMessage):
		return "Write a message first."
	case errors.Is(err, provider.ErrAuthFailed):
		return "Error: the chat service rejected the API key."
	case errors.Is(err, provider.ErrRateLimited):
		return "Error: the chat service is rate limiting requests, try again in a moment."
	case errors.Is(err, provider.ErrModelNotFound):
		return "Error: the configured model is not available."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Error: the response was interrupted."
	}

	var se *StreamError
	if errors.As(err, &se) {
		err = se.Err
	}
	return "Error: " + err.Error()
}
