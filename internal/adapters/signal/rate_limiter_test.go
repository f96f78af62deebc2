package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCallRateLimiter(t *testing.T) {
	rl := NewCallRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "third offer inside the window")
	assert.True(t, rl.Allow("b"), "clients are independent")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"), "window slid past old attempts")
}

func TestCallRateLimiter_Disabled(t *testing.T) {
	rl := NewCallRateLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.Equal(t, 0, rl.Len())
}

func TestCallRateLimiter_Prune(t *testing.T) {
	rl := NewCallRateLimiter(1, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(30 * time.Second)
	rl.Allow("b")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(40 * time.Second)
	rl.Prune()
	assert.Equal(t, 1, rl.Len(), "only b is still inside the window")
}
