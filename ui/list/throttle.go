package list

import (
	"sync"
	"time"
)

// Throttle coalesces calls into at most one execution per interval. It
// holds a single pending slot: every Call replaces the pending function, so
// the most recent invocation is the one that runs when the interval
// elapses. Executions happen on a timer goroutine.
type Throttle struct {
	interval time.Duration

	mu      sync.Mutex
	pending func()
	timer   *time.Timer
	stopped bool
}

// NewThrottle returns a Throttle with the given minimum interval. A
// non-positive interval still defers execution to a timer goroutine.
func NewThrottle(interval time.Duration) *Throttle {
	if interval < 0 {
		interval = 0
	}
	return &Throttle{interval: interval}
}

// Interval returns the configured minimum interval.
func (t *Throttle) Interval() time.Duration { return t.interval }

// Call schedules fn. If a call is already pending, fn replaces it and the
// original deadline is kept.
func (t *Throttle) Call(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.pending = fn
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval, t.fire)
	}
}

// Pending reports whether a call is waiting to run.
func (t *Throttle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Stop drops any pending call and refuses future ones.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Throttle) fire() {
	t.mu.Lock()
	fn := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}
