package accumulator

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
	"github.com/lixenwraith/unveil/vmath"
)

// Option configures an Accumulator
type Option func(*Accumulator)

// WithRand sets the speed jitter source
func WithRand(r *vmath.FastRand) Option {
	return func(a *Accumulator) {
		if r != nil {
			a.rng = r
		}
	}
}

// WithFrameInterval sets the animation frame period; the simulation scales by the real delta
func WithFrameInterval(d time.Duration) Option {
	return func(a *Accumulator) {
		if d > 0 {
			a.frame = d
		}
	}
}

// WithRegistry publishes progress, phase and live particle count
func WithRegistry(reg *status.Registry) Option {
	return func(a *Accumulator) {
		if reg == nil {
			return
		}
		a.statProgress = reg.Floats.Get(status.KeyAccumulatorProgress)
		a.statPeak = reg.Floats.Get(status.KeyAccumulatorPeak)
		a.statPhase = reg.Strings.Get(status.KeyAccumulatorPhase)
		a.statLive = reg.Ints.Get(status.KeyAccumulatorLive)
	}
}

// Accumulator drives the step functions from a scheduler: a periodic emitter and a frame ticker
// All methods must run in the scheduler's callback context
type Accumulator struct {
	params Params
	state  State
	timers *sched.TimerSet
	rng    *vmath.FastRand
	frame  time.Duration

	lastFrame time.Time
	started   bool

	onPhase []func(Phase)
	onDone  []func()

	statProgress *status.AtomicFloat
	statPeak     *status.AtomicFloat // best progress across mounts
	statPhase    *status.AtomicString
	statLive     *atomic.Int64
}

// New creates an idle accumulator
func New(s sched.Scheduler, p Params, opts ...Option) *Accumulator {
	a := &Accumulator{
		params: p,
		state:  NewState(p),
		timers: sched.NewTimerSet(s),
		frame:  p.ReferenceFrame,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = vmath.NewFastRand(uint64(s.Now().UnixNano()))
	}
	if a.frame <= 0 {
		a.frame = time.Second / 60
	}
	a.publish()
	return a
}

// OnPhase registers a listener for phase changes
func (a *Accumulator) OnPhase(fn func(Phase)) {
	if fn != nil {
		a.onPhase = append(a.onPhase, fn)
	}
}

// OnDone registers a listener run once when the accumulator reaches Done
func (a *Accumulator) OnDone(fn func()) {
	if fn != nil {
		a.onDone = append(a.onDone, fn)
	}
}

// Start arms the emitter and frame ticker
func (a *Accumulator) Start() {
	if a.started || a.timers.Closed() {
		return
	}
	a.started = true
	a.lastFrame = a.timers.Now()
	a.timers.Every(a.params.EmitInterval, a.emit)
	a.timers.Every(a.frame, a.tick)
}

// Stop cancels every timer; state is kept but never mutates again
func (a *Accumulator) Stop() {
	a.timers.Close()
}

// Pointer forwards a pointer position in percent space
func (a *Accumulator) Pointer(x, y float64) {
	if a.timers.Closed() {
		return
	}
	a.state = MoveSource(a.state, a.params, vmath.Point{X: x, Y: y})
}

// Step advances the simulation by dt; exported for hosts that own the frame loop
func (a *Accumulator) Step(dt time.Duration) {
	if a.timers.Closed() {
		return
	}
	a.advance(Frames(a.params, dt))
}

// State returns a copy of the current state
func (a *Accumulator) State() State {
	s := a.state
	s.Particles = make([]Particle, len(a.state.Particles))
	copy(s.Particles, a.state.Particles)
	return s
}

// Progress returns the current progress
func (a *Accumulator) Progress() float64 {
	return a.state.Progress
}

// Phase returns the current phase
func (a *Accumulator) Phase() Phase {
	return a.state.Phase
}

// Frame returns the frame ticker period
func (a *Accumulator) Frame() time.Duration {
	return a.frame
}

// Pending returns the number of live timers
func (a *Accumulator) Pending() int {
	return a.timers.Pending()
}

func (a *Accumulator) emit() {
	speed := a.params.MinSpeed + a.rng.Float64()*a.params.SpeedJitter
	a.state = Emit(a.state, a.params, speed)
}

func (a *Accumulator) tick() {
	now := a.timers.Now()
	dt := now.Sub(a.lastFrame)
	a.lastFrame = now
	a.advance(Frames(a.params, dt))
}

func (a *Accumulator) advance(frames float64) {
	prev := a.state.Phase
	a.state, _ = Advance(a.state, a.params, frames)

	if a.state.Phase == Saturated {
		log.Printf("[accumulator] saturated, transition in %s", a.params.TransitionDelay)
		a.notifyPhase(Saturated)
		a.state = BeginTransition(a.state)
		a.timers.After(a.params.TransitionDelay, a.finish)
	}
	a.publish()
	if a.state.Phase != prev {
		a.notifyPhase(a.state.Phase)
	}
}

func (a *Accumulator) finish() {
	a.state = Finish(a.state, a.params)
	a.publish()
	log.Printf("[accumulator] done")
	a.notifyPhase(Done)
	for _, fn := range a.onDone {
		fn()
	}
}

func (a *Accumulator) notifyPhase(p Phase) {
	for _, fn := range a.onPhase {
		fn(p)
	}
}

func (a *Accumulator) publish() {
	if a.statProgress != nil {
		a.statProgress.Set(a.state.Progress)
		a.statPeak.Max(a.state.Progress)
	}
	if a.statPhase != nil {
		a.statPhase.Store(a.state.Phase.String())
	}
	if a.statLive != nil {
		a.statLive.Store(int64(len(a.state.Particles)))
	}
}
