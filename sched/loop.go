package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// maxBehindPeriods bounds catch-up firing of periodic callbacks after a stall
const maxBehindPeriods = 2

// Loop executes all callbacks sequentially on a single goroutine against the wall clock
type Loop struct {
	q queue

	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	// launch starts the loop goroutine; replaced to route panics through a crash handler
	launch func(func())

	fired atomic.Uint64
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithLauncher sets the function used to start the loop goroutine
func WithLauncher(launch func(func())) LoopOption {
	return func(l *Loop) {
		if launch != nil {
			l.launch = launch
		}
	}
}

// NewLoop creates a stopped loop
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		launch:   func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now implements Scheduler
func (l *Loop) Now() time.Time {
	return time.Now()
}

// After implements Scheduler
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	if fn == nil {
		return inertTimer()
	}
	if d < 0 {
		d = 0
	}
	t := l.q.schedule(time.Now().Add(d), 0, fn)
	l.signal()
	return t
}

// Every implements Scheduler
func (l *Loop) Every(d time.Duration, fn func()) *Timer {
	if fn == nil || d <= 0 {
		return inertTimer()
	}
	t := l.q.schedule(time.Now().Add(d), d, fn)
	l.signal()
	return t
}

// Post implements Scheduler; safe to call from any goroutine
func (l *Loop) Post(fn func()) {
	l.After(0, fn)
}

// Start launches the loop goroutine
func (l *Loop) Start() {
	if l.running.CompareAndSwap(false, true) {
		l.wg.Add(1)
		l.launch(l.run)
	}
}

// Stop halts the loop and discards pending callbacks, idempotent
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		if l.running.CompareAndSwap(true, false) {
			close(l.stopChan)
			l.wg.Wait()
		}
		l.q.clear()
	})
}

// Running reports whether the loop goroutine is active
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Fired returns the number of callbacks executed so far
func (l *Loop) Fired() uint64 {
	return l.fired.Load()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer l.wg.Done()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		now := time.Now()
		for t := l.q.popDue(now); t != nil; t = l.q.popDue(now) {
			t.fn()
			l.fired.Add(1)
			l.q.finish(t, time.Now(), maxBehindPeriods)

			select {
			case <-l.stopChan:
				return
			default:
			}
		}

		deadline, ok := l.q.next()
		if !ok {
			select {
			case <-l.wake:
			case <-l.stopChan:
				return
			}
			continue
		}

		sleep := time.Until(deadline)
		if sleep <= 0 {
			continue
		}
		timer.Reset(sleep)
		select {
		case <-timer.C:
		case <-l.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-l.stopChan:
			return
		}
	}
}
