package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAcquireFirstWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.Acquire(ctx, "evt-1", time.Hour)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !ok {
		t.Fatal("first Acquire() = false, want true")
	}

	ok, err = s.Acquire(ctx, "evt-1", time.Hour)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if ok {
		t.Fatal("second Acquire() = true, want false")
	}
}

func TestAcquireDistinctKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		ok, err := s.Acquire(ctx, key, time.Hour)
		if err != nil {
			t.Fatalf("Acquire(%q) error = %v", key, err)
		}
		if !ok {
			t.Errorf("Acquire(%q) = false, want true", key)
		}
	}
}

func TestAcquireAfterExpiry(t *testing.T) {
	s := NewMemoryStore()
	current := time.Now()
	s.now = func() time.Time { return current }
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "evt-1", time.Minute); !ok {
		t.Fatal("first Acquire() = false, want true")
	}

	current = current.Add(2 * time.Minute)

	ok, err := s.Acquire(ctx, "evt-1", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !ok {
		t.Fatal("Acquire() after expiry = false, want true")
	}
}

func TestAcquireConcurrentSingleWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const goroutines = 64
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := s.Acquire(ctx, "same-key", time.Hour)
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("winners = %d, want exactly 1", got)
	}
}

func TestRelease(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "evt-1", time.Hour); !ok {
		t.Fatal("Acquire() = false, want true")
	}
	if err := s.Release(ctx, "evt-1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if ok, _ := s.Acquire(ctx, "evt-1", time.Hour); !ok {
		t.Fatal("Acquire() after Release() = false, want true")
	}
}
