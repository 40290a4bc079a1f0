package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/papercomputeco/cortex/pkg/llm"
)

var (
	// ErrNoAPIKey indicates a hosted provider was built without credentials.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrTruncatedStream indicates the body ended before the end-of-stream signal.
	ErrTruncatedStream = errors.New("stream ended before completion")

	// ErrMalformedChunk indicates an event that could not be decoded.
	ErrMalformedChunk = errors.New("malformed stream chunk")
)

// APIError is an error reported by the upstream API, either as a non-2xx
// response or as an error event inside a stream.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d): %s", e.Status, e.Message)
}

// errorFromResponse converts a non-2xx response into an error, mapping the
// well-known statuses onto the package sentinels.
func errorFromResponse(status int, body []byte) error {
	apiErr := &APIError{Status: status, Message: string(body)}

	var env llm.APIErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return errorFromStatus(apiErr)
}

func errorFromStatus(apiErr *APIError) error {
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, apiErr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, apiErr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	default:
		return apiErr
	}
}
