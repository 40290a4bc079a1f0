package provider

import (
	"strings"
	"sync/atomic"
)

// KeyRing hands out API keys round-robin so load spreads across several
// accounts' rate limits.
type KeyRing struct {
	keys []string
	next atomic.Uint64
}

// NewKeyRing returns a ring of the non-blank keys, or nil if there are none.
func NewKeyRing(keys ...string) *KeyRing {
	var clean []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	return &KeyRing{keys: clean}
}

// Next returns the key to use for the next request.
func (r *KeyRing) Next() string {
	n := r.next.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len returns the number of keys in the ring.
func (r *KeyRing) Len() int { return len(r.keys) }

// Mask hides all but the edges of a key for logging.
func Mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
