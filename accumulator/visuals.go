package accumulator

import "github.com/lixenwraith/unveil/vmath"

// HintThreshold is the progress below which the interaction hint stays visible
const HintThreshold = 20.0

// Visuals are the rendering values derived from a state
type Visuals struct {
	Scale    float64 // 0.5..1
	Opacity  float64 // 0.3..1
	Glow     float64 // 0..40
	Hint     bool
	Source   vmath.Point
	Body     vmath.Point // the growing body; orbits the source after saturation
	Enhanced bool
}

// VisualsOf derives rendering values from a state
func VisualsOf(s State, p Params) Visuals {
	f := s.Progress / MaxProgress
	v := Visuals{
		Scale:   0.5 + f*0.5,
		Opacity: 0.3 + f*0.7,
		Glow:    f * 40,
		Hint:    s.Progress < HintThreshold,
		Source:  s.Source,
		Body:    p.Target,
	}
	if s.Phase == Transitioning || s.Phase == Done {
		v.Enhanced = true
		v.Body = s.Source.Orbit(s.Orbit, p.OrbitRadius)
	}
	return v
}
