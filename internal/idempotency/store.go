// Package idempotency provides the atomic check-and-set guard that keeps
// duplicate lead submissions from running the pipeline twice.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process IdempotencyStore. Claims expire after their
// TTL; expired entries are dropped lazily on the next Acquire for the key
// and in bulk by an occasional sweep.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	// now is swappable for tests.
	now func() time.Time

	sweepEvery int
	acquires   int
}

// NewMemoryStore creates an empty guard store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims:     make(map[string]time.Time),
		now:        time.Now,
		sweepEvery: 1024,
	}
}

// Acquire claims key for ttl. It returns true iff no unexpired claim
// existed; the check and the set happen under one lock so concurrent
// callers racing on the same key see exactly one winner.
func (s *MemoryStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	s.acquires++
	if s.acquires%s.sweepEvery == 0 {
		for k, exp := range s.claims {
			if now.After(exp) {
				delete(s.claims, k)
			}
		}
	}

	if exp, ok := s.claims[key]; ok && now.Before(exp) {
		return false, nil
	}

	s.claims[key] = now.Add(ttl)
	return true, nil
}

// Release drops the claim for key.
func (s *MemoryStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}
