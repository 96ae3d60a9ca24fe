package clock

import (
	"sync"
	"time"

	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
)

// DefaultSampleInterval is sufficient for second-granularity countdowns
const DefaultSampleInterval = time.Second

// Sampler re-samples a clock on a fixed interval and notifies subscribers
// Subscribers run on the scheduler
type Sampler struct {
	clock    TimeProvider
	timers   *sched.TimerSet
	interval time.Duration

	mu      sync.RWMutex
	current time.Time
	subs    []func(time.Time)

	statNow *status.AtomicString
}

// NewSampler creates a sampler; interval <= 0 uses DefaultSampleInterval
func NewSampler(c TimeProvider, s sched.Scheduler, interval time.Duration, reg *status.Registry) *Sampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	sm := &Sampler{
		clock:    c,
		timers:   sched.NewTimerSet(s),
		interval: interval,
		current:  c.Now(),
	}
	if reg != nil {
		sm.statNow = reg.Strings.Get(status.KeyClockNow)
		sm.statNow.Store(sm.current.Format(time.RFC3339))
	}
	return sm
}

// Start begins periodic sampling
func (sm *Sampler) Start() {
	sm.timers.Every(sm.interval, sm.Sample)
}

// Stop cancels sampling
func (sm *Sampler) Stop() {
	sm.timers.Close()
}

// Sample reads the clock now and notifies subscribers
func (sm *Sampler) Sample() {
	now := sm.clock.Now()

	sm.mu.Lock()
	sm.current = now
	subs := make([]func(time.Time), len(sm.subs))
	copy(subs, sm.subs)
	sm.mu.Unlock()

	if sm.statNow != nil {
		sm.statNow.Store(now.Format(time.RFC3339))
	}
	for _, fn := range subs {
		fn(now)
	}
}

// Current returns the last sampled instant
func (sm *Sampler) Current() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Subscribe registers a callback invoked after every sample
func (sm *Sampler) Subscribe(fn func(time.Time)) {
	if fn == nil {
		return
	}
	sm.mu.Lock()
	sm.subs = append(sm.subs, fn)
	sm.mu.Unlock()
}
