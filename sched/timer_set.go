package sched

import (
	"sync"
	"time"
)

// TimerSet owns every timer a component schedules so teardown can flush them in one call
// Once closed, the set refuses new registrations and suppresses callbacks already in flight
type TimerSet struct {
	s Scheduler

	mu     sync.Mutex
	timers []*Timer
	closed bool
}

// NewTimerSet creates a timer set on the given scheduler
func NewTimerSet(s Scheduler) *TimerSet {
	return &TimerSet{s: s}
}

// Scheduler returns the underlying scheduler
func (ts *TimerSet) Scheduler() Scheduler {
	return ts.s
}

// Now returns the scheduler time
func (ts *TimerSet) Now() time.Time {
	return ts.s.Now()
}

// After schedules a one-shot callback owned by the set
func (ts *TimerSet) After(d time.Duration, fn func()) *Timer {
	return ts.add(func(wrapped func()) *Timer { return ts.s.After(d, wrapped) }, fn)
}

// Every schedules a periodic callback owned by the set
func (ts *TimerSet) Every(d time.Duration, fn func()) *Timer {
	return ts.add(func(wrapped func()) *Timer { return ts.s.Every(d, wrapped) }, fn)
}

// Post runs fn on the scheduler as soon as possible unless the set is closed first
// With Post a TimerSet is itself a Scheduler, so sets nest: closing a parent cancels every child timer
func (ts *TimerSet) Post(fn func()) {
	ts.After(0, fn)
}

func (ts *TimerSet) add(schedule func(func()) *Timer, fn func()) *Timer {
	if fn == nil {
		return inertTimer()
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.closed {
		return inertTimer()
	}

	t := schedule(func() {
		if ts.Closed() {
			return
		}
		fn()
	})
	ts.prune()
	ts.timers = append(ts.timers, t)
	return t
}

// Cancel cancels one timer owned by the set
func (ts *TimerSet) Cancel(t *Timer) bool {
	return t.Cancel()
}

// CancelAll cancels every owned timer, returns how many were still live
func (ts *TimerSet) CancelAll() int {
	ts.mu.Lock()
	timers := ts.timers
	ts.timers = nil
	ts.mu.Unlock()

	n := 0
	for _, t := range timers {
		if t.Cancel() {
			n++
		}
	}
	return n
}

// Close cancels every timer and refuses further registrations, idempotent
func (ts *TimerSet) Close() {
	ts.mu.Lock()
	ts.closed = true
	ts.mu.Unlock()
	ts.CancelAll()
}

// Closed reports whether Close was called
func (ts *TimerSet) Closed() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.closed
}

// Pending returns the number of owned timers that can still fire
func (ts *TimerSet) Pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.prune()
	return len(ts.timers)
}

// prune drops handles that can no longer fire; caller holds mu
func (ts *TimerSet) prune() {
	live := ts.timers[:0]
	for _, t := range ts.timers {
		if t.Active() {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(ts.timers); i++ {
		ts.timers[i] = nil
	}
	ts.timers = live
}
