// Package tracker follows a single wallet across multiple trade feeds and
// funnels everything new into one deduplicated stream.
package tracker

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process domain.SeenRegistry. Keys expire after
// their TTL and the registry is capped: when full, the oldest keys are
// evicted first. It is safe for concurrent use.
type MemoryRegistry struct {
	mu       sync.Mutex
	expiry   map[string]time.Time
	order    []slot
	capacity int

	now func() time.Time
}

// slot pins an order entry to the expiry it was recorded with. A key that
// expires and is admitted again leaves its old slot behind; the mismatched
// expiry marks that slot stale so eviction never hits the fresh entry.
type slot struct {
	key string
	exp time.Time
}

// NewMemoryRegistry creates a registry bounded to capacity keys.
func NewMemoryRegistry(capacity int) *MemoryRegistry {
	return &MemoryRegistry{
		expiry:   make(map[string]time.Time, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Admit records key and reports whether it was new. Expired keys count as
// new again.
func (r *MemoryRegistry) Admit(_ context.Context, key string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if exp, ok := r.expiry[key]; ok {
		if now.Before(exp) {
			return false, nil
		}
		delete(r.expiry, key)
	}

	if len(r.expiry) >= r.capacity {
		r.evictLocked()
	}

	exp := now.Add(ttl)
	r.expiry[key] = exp
	r.order = append(r.order, slot{key: key, exp: exp})
	return true, nil
}

// Len reports how many live keys the registry currently holds.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.expiry)
}

// evictLocked removes the oldest live key. Slots whose expiry no longer
// matches the map are stale leftovers from expired or re-admitted keys and
// are skipped.
func (r *MemoryRegistry) evictLocked() {
	for len(r.order) > 0 {
		oldest := r.order[0]
		r.order = r.order[1:]
		if exp, ok := r.expiry[oldest.key]; ok && exp.Equal(oldest.exp) {
			delete(r.expiry, oldest.key)
			return
		}
	}
}
