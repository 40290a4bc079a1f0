// Package providertest provides a scripted provider.Provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/papercomputeco/cortex/pkg/provider"
)

// Script replays a fixed list of chunks, optionally failing after FailAfter
// of them have been delivered.
type Script struct {
	Chunks []string

	// FailAfter, when >= 0 together with a non-nil Err, returns Err after that
	// many chunks were delivered instead of completing.
	FailAfter int
	Err       error

	mu       sync.Mutex
	requests []provider.Request
}

// New returns a Script that completes after delivering chunks.
func New(chunks ...string) *Script {
	return &Script{Chunks: chunks, FailAfter: -1}
}

// Failing returns a Script that delivers the first k chunks and then fails with err.
func Failing(k int, err error, chunks ...string) *Script {
	return &Script{Chunks: chunks, FailAfter: k, Err: err}
}

// Name implements provider.Provider.
func (s *Script) Name() string { return "script" }

// Stream implements provider.Provider.
func (s *Script) Stream(ctx context.Context, req provider.Request, fn provider.ChunkFunc) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	for i, c := range s.Chunks {
		if s.Err != nil && s.FailAfter >= 0 && i == s.FailAfter {
			return s.Err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(provider.Chunk{Content: c, Model: req.Model}); err != nil {
			return err
		}
	}

	if s.Err != nil && s.FailAfter >= len(s.Chunks) {
		return s.Err
	}
	return nil
}

// Requests returns every request the script received, in order.
func (s *Script) Requests() []provider.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]provider.Request(nil), s.requests...)
}
