package service

import (
	"context"
	"sync"
	"time"
)

// Throttle is an in-memory per-key rate limiter using the token bucket
// algorithm. It guards the resend path so one address cannot be flooded
// with verification emails. It is safe for concurrent use.
type Throttle struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64 // maximum tokens
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewThrottle creates a limiter that allows up to capacity requests per key,
// refilling at rate tokens per second.
func NewThrottle(rate, capacity float64) *Throttle {
	return &Throttle{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		now:      time.Now,
	}
}

// Allow reports whether key may proceed. Each call consumes one token.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: t.capacity, last: now}
		t.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*t.rate, t.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Prune removes buckets idle for longer than maxIdle and returns how many
// were removed.
func (t *Throttle) Prune(maxIdle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxIdle)
	removed := 0
	for key, b := range t.buckets {
		if b.last.Before(cutoff) {
			delete(t.buckets, key)
			removed++
		}
	}
	return removed
}

// Serve prunes idle buckets every interval until ctx is done. It satisfies
// suture.Service.
func (t *Throttle) Serve(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Prune(10 * time.Minute)
		}
	}
}

func (t *Throttle) String() string { return "resend-throttle" }
