package llm

import (
	"context"
	"sync"
	"time"
)

// rateLimiter enforces a minimum interval between consecutive requests to
// the same provider. It is a leaky bucket of depth one: a request either
// goes now or waits out the remainder of the interval.
type rateLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{last: make(map[string]time.Time)}
}

// wait blocks until at least interval has elapsed since the previous
// request for providerID, then records the new dispatch time. time.Since
// uses the monotonic clock, so wall-clock adjustments cannot shrink the gap.
func (r *rateLimiter) wait(ctx context.Context, providerID string, interval time.Duration) error {
	r.mu.Lock()
	prev, seen := r.last[providerID]
	var delay time.Duration
	if seen && interval > 0 {
		if elapsed := time.Since(prev); elapsed < interval {
			delay = interval - elapsed
		}
	}
	if delay == 0 {
		r.last[providerID] = time.Now()
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	r.last[providerID] = time.Now()
	r.mu.Unlock()
	return nil
}
