package alert

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestGate(cfg GateConfig, clock *fakeClock) *Gate {
	return NewGate(cfg, WithClock(clock.Now))
}

func TestGateAllow(t *testing.T) {
	t.Run("allows up to the limit within one window", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGate(GateConfig{Limit: 3, WindowHours: 1, CacheTTL: 48 * time.Hour}, clock)

		assert.True(t, g.Allow("error"))
		clock.Advance(10 * time.Minute)
		assert.True(t, g.Allow("error"))
		clock.Advance(10 * time.Minute)
		assert.True(t, g.Allow("error"))
		clock.Advance(10 * time.Minute)
		assert.False(t, g.Allow("error"))
	})

	t.Run("elapsed window resets the counter and allows", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGate(GateConfig{Limit: 1, WindowHours: 1, CacheTTL: 48 * time.Hour}, clock)

		assert.True(t, g.Allow("error"))
		assert.False(t, g.Allow("error"))

		clock.Advance(61 * time.Minute)
		assert.True(t, g.Allow("error"))
		assert.False(t, g.Allow("error"))
	})

	t.Run("legacy mode suppresses once the window elapsed", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGate(GateConfig{
			Limit:                3,
			WindowHours:          1,
			CacheTTL:             48 * time.Hour,
			LegacyWindowSuppress: true,
		}, clock)

		assert.True(t, g.Allow("error"))

		// Window elapsed but cache TTL has not: suppressed, not reset.
		clock.Advance(2 * time.Hour)
		assert.False(t, g.Allow("error"))
		assert.False(t, g.Allow("error"))
	})

	t.Run("legacy mode recovers after cache TTL expiry", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGate(GateConfig{
			Limit:                1,
			WindowHours:          1,
			CacheTTL:             48 * time.Hour,
			LegacyWindowSuppress: true,
		}, clock)

		assert.True(t, g.Allow("error"))
		clock.Advance(2 * time.Hour)
		assert.False(t, g.Allow("error"))

		clock.Advance(49 * time.Hour)
		assert.True(t, g.Allow("error"))
	})

	t.Run("classes are throttled independently", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGate(GateConfig{Limit: 1, WindowHours: 1, CacheTTL: 48 * time.Hour}, clock)

		assert.True(t, g.Allow("error"))
		assert.False(t, g.Allow("error"))
		assert.True(t, g.Allow("timeout"))
	})

	t.Run("reset drops the cached state", func(t *testing.T) {
		clock := newFakeClock()
		g := newTestGate(GateConfig{Limit: 1, WindowHours: 1, CacheTTL: 48 * time.Hour}, clock)

		assert.True(t, g.Allow("error"))
		assert.False(t, g.Allow("error"))

		g.Reset("error")
		assert.True(t, g.Allow("error"))
	})
}

func TestGateConcurrency(t *testing.T) {
	clock := newFakeClock()
	g := newTestGate(GateConfig{Limit: 1, WindowHours: 1, CacheTTL: 48 * time.Hour}, clock)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow("error") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Only one slot exists; racing events must not both claim it.
	assert.Equal(t, 1, allowed)
}
