package server

import (
	"sync"
	"time"

	"github.com/papercomputeco/cortex/pkg/chat"
)

// registry holds the live sessions, keyed by their cookie ID.
type registry struct {
	mu   sync.RWMutex
	byID map[string]*chat.Session
}

func newRegistry() *registry {
	return &registry{byID: map[string]*chat.Session{}}
}

func (r *registry) get(id string) (*chat.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *registry) create(systemPrompt string) *chat.Session {
	s := chat.NewSession(systemPrompt)
	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// evictIdle drops sessions inactive since before cutoff. Sessions with a turn
// in flight are kept.
func (r *registry) evictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.byID {
		if s.LastActive().Before(cutoff) && !s.Busy() {
			delete(r.byID, id)
			evicted++
		}
	}
	return evicted
}
