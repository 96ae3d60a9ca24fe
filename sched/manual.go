package sched

import (
	"sync"
	"time"
)

// Manual is a virtual-time scheduler; nothing fires until Advance is called
// Callbacks observe Now() equal to their own deadline
type Manual struct {
	q queue

	mu  sync.RWMutex
	now time.Time
}

// NewManual creates a manual scheduler starting at the given instant
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current virtual time
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// After implements Scheduler
func (m *Manual) After(d time.Duration, fn func()) *Timer {
	if fn == nil {
		return inertTimer()
	}
	if d < 0 {
		d = 0
	}
	return m.q.schedule(m.Now().Add(d), 0, fn)
}

// Every implements Scheduler
// A non-positive period yields an inert handle
func (m *Manual) Every(d time.Duration, fn func()) *Timer {
	if fn == nil || d <= 0 {
		return inertTimer()
	}
	return m.q.schedule(m.Now().Add(d), d, fn)
}

// Post implements Scheduler; posted work runs on the next Advance (including Advance(0))
func (m *Manual) Post(fn func()) {
	m.After(0, fn)
}

// Advance moves virtual time forward by d, firing every callback that falls due
// Returns the number of callbacks executed
func (m *Manual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	return m.AdvanceTo(m.Now().Add(d))
}

// AdvanceTo moves virtual time to target, firing due callbacks in deadline order
// A target in the past only flushes callbacks already due
func (m *Manual) AdvanceTo(target time.Time) int {
	fired := 0
	for {
		t := m.q.popDue(target)
		if t == nil {
			break
		}

		m.mu.Lock()
		if t.deadline.After(m.now) {
			m.now = t.deadline
		}
		m.mu.Unlock()

		t.fn()
		fired++
		m.q.finish(t, t.deadline, 0)
	}

	m.mu.Lock()
	if target.After(m.now) {
		m.now = target
	}
	m.mu.Unlock()
	return fired
}

// Flush runs every callback already due without moving time
func (m *Manual) Flush() int {
	return m.Advance(0)
}

// Pending returns the number of scheduled callbacks
func (m *Manual) Pending() int {
	return m.q.len()
}

// NextDeadline returns the earliest scheduled deadline
func (m *Manual) NextDeadline() (time.Time, bool) {
	return m.q.next()
}
