package server

import (
	"sync"
	"time"
)

// RateLimiter enforces a fixed number of requests per key and window.
// Windows are aligned to multiples of the window length.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	start  time.Time
	counts map[string]int
}

// NewRateLimiter creates a limiter. A limit of zero disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		counts: map[string]int{},
	}
}

// Allow counts one request for key. When the limit is exceeded it returns
// false and the time until the current window ends.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	if rl.limit <= 0 {
		return true, 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	start := now.Truncate(rl.window)
	if !start.Equal(rl.start) {
		rl.start = start
		rl.counts = map[string]int{}
	}

	rl.counts[key]++
	if rl.counts[key] > rl.limit {
		return false, start.Add(rl.window).Sub(now)
	}
	return true, 0
}

// Remaining returns how many requests key has left in the current window,
// or -1 when limiting is disabled.
func (rl *RateLimiter) Remaining(key string) int {
	if rl.limit <= 0 {
		return -1
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.now().Truncate(rl.window).Equal(rl.start) {
		return rl.limit
	}
	if left := rl.limit - rl.counts[key]; left > 0 {
		return left
	}
	return 0
}
