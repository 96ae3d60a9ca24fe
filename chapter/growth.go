package chapter

import (
	"github.com/lixenwraith/unveil/accumulator"
	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/phase"
	"github.com/lixenwraith/unveil/policy"
)

const growthMusicVolume = 0.4

// Growth is the interactive chapter: pointer-driven particles fill a body to saturation
type Growth struct {
	runtime
	params accumulator.Params
	acc    *accumulator.Accumulator
	music  audio.Track
}

// NewGrowth creates the growth chapter with the default accumulator constants
func NewGrowth(id policy.ChapterID, title string) *Growth {
	g := &Growth{
		runtime: newRuntime(id, title, "growth"),
		params:  accumulator.DefaultParams(),
	}
	g.suppress = true
	return g
}

// Mount starts the music and the accumulator; saturation and completion drive the phase machine
func (g *Growth) Mount(env Env) error {
	p := g.params
	p.Fast = env.Fast
	return g.mount(env, func(m *phase.Machine) error {
		opts := []accumulator.Option{
			accumulator.WithRegistry(env.Registry),
			accumulator.WithFrameInterval(env.Frame),
		}
		if env.Rand != nil {
			opts = append(opts, accumulator.WithRand(env.Rand))
		}
		g.acc = accumulator.New(g.timers, p, opts...)
		g.acc.OnPhase(func(ph accumulator.Phase) {
			if ph == accumulator.Saturated {
				m.Signal("saturated")
			}
		})
		g.acc.OnDone(func() { m.Signal("done") })

		g.music = g.track(audio.Voice{Name: "growth", Kind: audio.VoicePad},
			audio.TrackOptions{DefaultVolume: growthMusicVolume, ResumeOnUnmute: true})
		m.RegisterAction("music", func() {
			if g.music != nil {
				g.scope.Play(g.music, growthMusicVolume)
			}
		})
		g.acc.Start()
		return nil
	})
}

// Unmount stops the accumulator and releases the mount
func (g *Growth) Unmount() {
	if g.acc != nil {
		g.acc.Stop()
	}
	g.unmount()
}

// Pointer moves the particle source
func (g *Growth) Pointer(x, y float64) {
	if g.Mounted() {
		g.acc.Pointer(x, y)
	}
}

// Action accepts skip only when the table allows it; growth has no user actions
func (g *Growth) Action(name string) bool {
	return g.action(name)
}

// Accumulator returns the accumulator of the current or last mount
func (g *Growth) Accumulator() *accumulator.Accumulator {
	return g.acc
}

// View adds the progress meter and positioned marks
func (g *Growth) View() View {
	v := g.view()
	if g.acc == nil {
		return v
	}
	s := g.acc.State()
	vis := accumulator.VisualsOf(s, g.params)
	v.Meter = true
	v.Progress = s.Progress
	if vis.Hint && v.Hint == "" {
		v.Hint = "Move the pointer to send light to the center."
	}
	v.Marks = make([]Mark, 0, len(s.Particles)+2)
	for _, pt := range s.Particles {
		v.Marks = append(v.Marks, Mark{Kind: MarkParticle, Pos: pt.Position, Size: 1})
	}
	v.Marks = append(v.Marks,
		Mark{Kind: MarkBody, Pos: vis.Body, Size: vis.Scale},
		Mark{Kind: MarkSource, Pos: vis.Source, Size: 1},
	)
	return v
}
