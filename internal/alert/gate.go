package alert

import (
	"sync"
	"time"
)

// GateConfig holds the rate-limit settings for outbound alerts.
type GateConfig struct {
	// Limit is the maximum number of alerts per window.
	Limit int
	// WindowHours is the window length in hours.
	WindowHours float64
	// CacheTTL is the absolute lifetime of a cached counter state.
	CacheTTL time.Duration
	// LegacyWindowSuppress keeps the source behavior of suppressing alerts
	// once the window has elapsed instead of resetting the counter.
	LegacyWindowSuppress bool
}

type counterState struct {
	count       int
	windowStart time.Time
	expiresAt   time.Time
}

// Gate throttles alerts per class to at most Limit per WindowHours. The
// check and the increment happen under one lock, so concurrent events racing
// on the last slot cannot both pass.
type Gate struct {
	mu     sync.Mutex
	cfg    GateConfig
	now    func() time.Time
	states map[string]*counterState
}

// gateOption configures the Gate.
type gateOption func(*Gate)

// WithClock overrides the gate's time source.
func WithClock(now func() time.Time) gateOption {
	return func(g *Gate) {
		g.now = now
	}
}

// NewGate creates a new alert gate.
func NewGate(cfg GateConfig, opts ...gateOption) *Gate {
	g := &Gate{
		cfg:    cfg,
		now:    time.Now,
		states: make(map[string]*counterState),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Allow reports whether an alert of the given class may be sent now, and
// claims a slot when it may. Callers dispatch only after a true result.
func (g *Gate) Allow(class string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	state, ok := g.states[class]
	if !ok || now.After(state.expiresAt) {
		state = &counterState{
			windowStart: now,
			expiresAt:   now.Add(g.cfg.CacheTTL),
		}
		g.states[class] = state
	}

	elapsedHours := now.Sub(state.windowStart).Hours()
	if elapsedHours >= g.cfg.WindowHours {
		if g.cfg.LegacyWindowSuppress {
			return false
		}

		state.count = 0
		state.windowStart = now
	}

	if state.count >= g.cfg.Limit {
		return false
	}

	state.count++
	state.expiresAt = now.Add(g.cfg.CacheTTL)

	return true
}

// Reset drops the cached state for the class.
func (g *Gate) Reset(class string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.states, class)
}
