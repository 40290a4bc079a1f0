// Package provider streams chat completions from hosted or local LLM APIs.
//
// A Provider delivers incremental text fragments to a callback in arrival
// order and returns nil only after the upstream signalled end-of-stream.
// Any other outcome (transport failure, non-2xx status, a malformed or error
// event, or a body that ends without the terminal signal) is returned as an
// error, so callers can treat a nil return as "the stream completed".
package provider

import (
	"context"

	"github.com/papercomputeco/cortex/pkg/llm"
)

// Provider is a streaming chat-completion backend.
type Provider interface {
	// Name identifies the backend in logs ("groq", "ollama").
	Name() string

	// Stream sends req upstream and calls fn once per received chunk.
	// If fn returns an error the stream is abandoned and that error is returned.
	Stream(ctx context.Context, req Request, fn ChunkFunc) error
}

// Request is the provider-neutral input of one completion.
type Request struct {
	Model    string
	Messages []llm.Message
	Options  *llm.Options
}

// Chunk is one incremental fragment of a streamed response. Content may be
// empty (role-only or finish events).
type Chunk struct {
	Content      string
	Model        string
	FinishReason string
}

// ChunkFunc receives chunks in delivery order.
type ChunkFunc func(Chunk) error
