package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestThrottle_CoalescesBurst(t *testing.T) {
	var runs atomic.Int32
	th := newThrottle(20*time.Millisecond, func() { runs.Add(1) })
	defer th.Stop()

	for i := 0; i < 10; i++ {
		th.Trigger()
	}
	time.Sleep(80 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("Expected 1 run, got %d", got)
	}

	th.Trigger()
	time.Sleep(80 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Errorf("Expected a second run after the window, got %d", got)
	}
}

func TestThrottle_Stop(t *testing.T) {
	var runs atomic.Int32
	th := newThrottle(20*time.Millisecond, func() { runs.Add(1) })

	th.Trigger()
	th.Stop()
	th.Trigger()
	time.Sleep(60 * time.Millisecond)

	if got := runs.Load(); got != 0 {
		t.Errorf("Expected no runs after Stop, got %d", got)
	}
}
