package engine

import (
	"sync"
	"time"
)

// throttle coalesces rapid change notifications into a single call of fn.
type throttle struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	fn      func()
	stopped bool
}

func newThrottle(delay time.Duration, fn func()) *throttle {
	return &throttle{delay: delay, fn: fn}
}

// Trigger schedules fn to run once the window closes. Triggers that arrive
// while a run is already scheduled are absorbed by it.
func (t *throttle) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.delay, t.flush)
}

func (t *throttle) flush() {
	t.mu.Lock()
	t.timer = nil
	stopped := t.stopped
	t.mu.Unlock()

	if !stopped {
		t.fn()
	}
}

// Stop cancels any scheduled run and ignores later triggers.
func (t *throttle) Stop() {
	t.mu.Lock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
