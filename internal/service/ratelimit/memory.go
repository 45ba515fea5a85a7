package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps window counters in process under a single mutex, which
// makes the all-or-nothing consume trivial. Suited to single-instance
// deployments; multi-instance deployments use the Redis store.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[string]*window
	now func() time.Time

	ops int
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]*window), now: time.Now}
}

// ConsumeAll implements Store.
func (s *MemoryStore) ConsumeAll(_ context.Context, demands []Demand) (Verdict, error) {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ops++
	if s.ops%1024 == 0 {
		s.prune(now)
	}

	var retryAfter time.Duration
	for _, d := range demands {
		w, ok := s.m[d.Key]
		if !ok || !now.Before(w.resetAt) {
			continue
		}
		if w.count >= d.Limit {
			wait := w.resetAt.Sub(now)
			if retryAfter == 0 || wait < retryAfter {
				retryAfter = wait
			}
		}
	}
	if retryAfter > 0 {
		return Verdict{Allowed: false, RetryAfter: retryAfter}, nil
	}

	for _, d := range demands {
		w, ok := s.m[d.Key]
		if !ok || !now.Before(w.resetAt) {
			w = &window{resetAt: d.ResetAt}
			s.m[d.Key] = w
		}
		w.count++
	}
	return Verdict{Allowed: true}, nil
}

// prune drops windows whose boundary elapsed. Caller holds the lock.
func (s *MemoryStore) prune(now time.Time) {
	for k, w := range s.m {
		if !now.Before(w.resetAt) {
			delete(s.m, k)
		}
	}
}
