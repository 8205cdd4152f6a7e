package session

import (
	"sync"
	"time"
)

// Guard bounds a session in time. It fires at most once, at or after its
// duration, unless cancelled first.
type Guard struct {
	duration time.Duration
	timer    *time.Timer
	expired  chan struct{}

	mu        sync.Mutex
	fired     bool
	cancelled bool
}

// NewGuard arms a guard that expires after d.
func NewGuard(d time.Duration) *Guard {
	g := &Guard{
		duration: d,
		expired:  make(chan struct{}),
	}

	g.timer = time.AfterFunc(d, g.fire)

	return g
}

func (g *Guard) fire() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelled || g.fired {
		return
	}

	g.fired = true
	close(g.expired)
}

// Expired returns a channel that is closed when the guard fires.
func (g *Guard) Expired() <-chan struct{} {
	return g.expired
}

// Duration returns the configured duration.
func (g *Guard) Duration() time.Duration {
	return g.duration
}

// Cancel disarms the guard. It reports false if the guard had already fired.
// After Cancel returns, Expired is never closed by a later fire.
func (g *Guard) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fired {
		return false
	}

	g.cancelled = true
	g.timer.Stop()

	return true
}

// Fired reports whether the guard has expired.
func (g *Guard) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.fired
}
