// Package accumulator converts a stream of pointer-driven particles into a bounded progress value.
//
// The simulation is a set of pure step functions over State; Accumulator drives them from a
// scheduler. Progress only grows, is capped at exactly MaxProgress and its first arrival there
// starts a one-way transition to Done.
package accumulator

import (
	"time"

	"github.com/lixenwraith/unveil/vmath"
)

// MaxProgress is the saturation value
const MaxProgress = 100.0

// Phase is the accumulator lifecycle
type Phase int

const (
	Accumulating Phase = iota
	Saturated
	Transitioning
	Done
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case Accumulating:
		return "accumulating"
	case Saturated:
		return "saturated"
	case Transitioning:
		return "transitioning"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Params are the simulation constants
type Params struct {
	Target          vmath.Point
	MaxDistance     float64
	Floor           float64
	BaseGrowth      float64
	FastGrowth      float64
	Fast            bool
	MinSpeed        float64 // travel progress per reference frame
	SpeedJitter     float64
	ClampMin        float64
	ClampMax        float64
	EmitInterval    time.Duration
	ReferenceFrame  time.Duration
	TransitionDelay time.Duration
	OrbitStep       float64 // radians per reference frame once Done
	OrbitRadius     float64
}

// DefaultParams returns the standard constants
func DefaultParams() Params {
	return Params{
		Target:          vmath.Center,
		MaxDistance:     70,
		Floor:           0.2,
		BaseGrowth:      0.25,
		FastGrowth:      3.0,
		MinSpeed:        0.02,
		SpeedJitter:     0.01,
		ClampMin:        2,
		ClampMax:        98,
		EmitInterval:    300 * time.Millisecond,
		ReferenceFrame:  time.Second / 60,
		TransitionDelay: 2 * time.Second,
		OrbitStep:       0.005,
		OrbitRadius:     25,
	}
}

// Particle travels from Origin toward the target
type Particle struct {
	Origin       vmath.Point
	Position     vmath.Point
	OriginFactor float64 // distance factor at emission
	Travel       float64 // 0..1
	Speed        float64
}

// State is the complete accumulator state
type State struct {
	Progress  float64
	Particles []Particle
	Phase     Phase
	Source    vmath.Point
	Engaged   bool
	Orbit     float64
}

// NewState returns the initial state with the source resting on the target
func NewState(p Params) State {
	return State{Source: p.Target}
}

// DistanceFactor weights arrivals by how close the source is to the target:
// clamp(1 - distance/maxDistance, floor, 1)
func DistanceFactor(source, target vmath.Point, maxDistance, floor float64) float64 {
	if maxDistance <= 0 {
		return 1
	}
	return vmath.Clamp(1-source.Dist(target)/maxDistance, floor, 1)
}

// Growth returns the progress added by arrived particles at the given source position
func Growth(p Params, arrived int, source vmath.Point) float64 {
	if arrived <= 0 {
		return 0
	}
	if p.Fast {
		return float64(arrived) * p.FastGrowth
	}
	return float64(arrived) * p.BaseGrowth * DistanceFactor(source, p.Target, p.MaxDistance, p.Floor)
}

// MoveSource places the source at a clamped pointer position and marks it engaged
// Ignored once Done, when the source rests on the target
func MoveSource(s State, p Params, at vmath.Point) State {
	if s.Phase == Done {
		return s
	}
	s.Source = at.Clamp(p.ClampMin, p.ClampMax)
	s.Engaged = true
	return s
}

// Emit adds one particle at the source; only while accumulating with an engaged source
func Emit(s State, p Params, speed float64) State {
	if s.Phase != Accumulating || !s.Engaged {
		return s
	}
	particles := make([]Particle, len(s.Particles), len(s.Particles)+1)
	copy(particles, s.Particles)
	s.Particles = append(particles, Particle{
		Origin:       s.Source,
		Position:     s.Source,
		OriginFactor: DistanceFactor(s.Source, p.Target, p.MaxDistance, p.Floor),
		Speed:        speed,
	})
	return s
}

// Advance moves every particle by frames reference frames, removes arrivals and absorbs them
// Returns the new state and the number of particles that arrived
func Advance(s State, p Params, frames float64) (State, int) {
	if frames <= 0 {
		return s, 0
	}
	arrived := 0
	live := make([]Particle, 0, len(s.Particles))
	for _, pt := range s.Particles {
		pt.Travel += pt.Speed * frames
		if pt.Travel >= 1 {
			arrived++
			continue
		}
		pt.Position = pt.Origin.Lerp(p.Target, pt.Travel)
		live = append(live, pt)
	}
	s.Particles = live

	if s.Phase == Done {
		s.Orbit += p.OrbitStep * frames
	}
	return Absorb(s, p, arrived), arrived
}

// Absorb adds the growth of arrived particles, capped at MaxProgress
// The first time progress reaches MaxProgress while accumulating, the phase becomes Saturated
func Absorb(s State, p Params, arrived int) State {
	if arrived <= 0 || s.Progress >= MaxProgress {
		return s
	}
	s.Progress += Growth(p, arrived, s.Source)
	if s.Progress >= MaxProgress {
		s.Progress = MaxProgress
		if s.Phase == Accumulating {
			s.Phase = Saturated
		}
	}
	return s
}

// BeginTransition moves a saturated state to Transitioning and stops emission
func BeginTransition(s State) State {
	if s.Phase == Saturated {
		s.Phase = Transitioning
	}
	return s
}

// Finish moves a transitioning state to Done; the source snaps to the target
func Finish(s State, p Params) State {
	if s.Phase != Transitioning {
		return s
	}
	s.Phase = Done
	s.Source = p.Target
	s.Particles = nil
	return s
}

// Frames converts an elapsed duration into reference frames
func Frames(p Params, dt time.Duration) float64 {
	if p.ReferenceFrame <= 0 {
		return 0
	}
	return float64(dt) / float64(p.ReferenceFrame)
}
