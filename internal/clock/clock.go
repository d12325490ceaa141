// Package clock schedules delayed callbacks. The preview pipeline never
// blocks on a delay; it arms a callback and returns.
package clock

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped the
	// callback before it ran.
	Stop() bool
}

// Clock arms callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by time.AfterFunc.
func Real() Clock { return realClock{} }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual is a Clock whose callbacks only run when Advance is called. It is
// meant for tests that need to control the order of scheduled work.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*manualTimer
}

// NewManual returns a Manual clock at time zero.
func NewManual() *Manual { return &Manual{} }

type manualTimer struct {
	clock   *Manual
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{clock: m, at: m.now + d, f: f}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves the clock forward by d and runs every callback that became
// due, in due order, on the calling goroutine. Callbacks scheduled by
// running callbacks are honoured if they fall within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := -1
		for i, t := range m.pending {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == -1 || t.at < m.pending[next].at {
				next = i
			}
		}
		if next == -1 {
			m.now = target
			m.compact()
			m.mu.Unlock()
			return
		}
		t := m.pending[next]
		t.fired = true
		if t.at > m.now {
			m.now = t.at
		}
		m.mu.Unlock()
		t.f()
	}
}

// Pending reports how many callbacks are armed and not yet run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (m *Manual) compact() {
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.pending = live
}
