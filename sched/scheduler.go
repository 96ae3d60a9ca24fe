// Package sched provides the single-threaded timer substrate every chapter component runs on.
//
// All callbacks of one Scheduler execute sequentially; components never lock their own state.
// Two implementations exist:
//   - Loop runs callbacks on one goroutine against the wall clock
//   - Manual runs callbacks only when the owner advances its virtual clock (tests, replays)
//
// Components should not hold raw timers. They own a TimerSet and flush it on teardown.
package sched

import (
	"time"
)

// Scheduler schedules one-shot and periodic callbacks
type Scheduler interface {
	// Now returns the scheduler's notion of monotonic time
	Now() time.Time
	// After runs fn once, d after now
	After(d time.Duration, fn func()) *Timer
	// Every runs fn every d, first firing d after now
	Every(d time.Duration, fn func()) *Timer
	// Post runs fn on the scheduler as soon as possible
	Post(fn func())
}

type timerState uint8

const (
	statePending timerState = iota
	stateRunning
	stateFired
	stateCancelled
)

// Timer is a handle to a scheduled callback
type Timer struct {
	q        *queue
	fn       func()
	deadline time.Time
	period   time.Duration
	seq      uint64
	index    int
	state    timerState
}

// Cancel prevents any future invocation of the callback
// Returns true if a pending or periodic callback was cancelled
func (t *Timer) Cancel() bool {
	if t == nil || t.q == nil {
		return false
	}
	return t.q.cancel(t)
}

// Active reports whether the callback can still fire
func (t *Timer) Active() bool {
	if t == nil || t.q == nil {
		return false
	}
	t.q.mu.Lock()
	defer t.q.mu.Unlock()
	return t.state == statePending || (t.state == stateRunning && t.period > 0)
}

// Periodic reports whether the timer re-arms after firing
func (t *Timer) Periodic() bool {
	return t != nil && t.period > 0
}

// inertTimer returns a handle that never fires, used for refused registrations
func inertTimer() *Timer {
	return &Timer{state: stateCancelled, index: -1}
}
