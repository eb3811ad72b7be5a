package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 50, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, rl.Remaining("a"))
	ok, _ = rl.Allow("a")
	assert.True(t, ok)

	ok, wait := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, wait)
	assert.Equal(t, 0, rl.Remaining("a"))

	ok, _ = rl.Allow("b")
	assert.True(t, ok)

	now = now.Add(15 * time.Second)
	assert.Equal(t, 2, rl.Remaining("a"))
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 1000; i++ {
		ok, _ := rl.Allow("a")
		assert.True(t, ok)
	}
	assert.Equal(t, -1, rl.Remaining("a"))
}
