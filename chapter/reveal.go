package chapter

import (
	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/phase"
	"github.com/lixenwraith/unveil/policy"
)

const chimeVolume = 0.25

// Reveal is a table-driven chapter: timed text reveals with an optional continue action
type Reveal struct {
	runtime
	chime audio.Track
}

// NewReveal creates a chapter driven by the named table
func NewReveal(id policy.ChapterID, title, table string) *Reveal {
	return &Reveal{runtime: newRuntime(id, title, table)}
}

// Mount starts the table and a quiet chime under the shared background
func (r *Reveal) Mount(env Env) error {
	return r.mount(env, func(m *phase.Machine) error {
		r.chime = r.track(audio.Voice{Name: r.table, Kind: audio.VoiceChime, Freq: chimeFreq(r.id)},
			audio.TrackOptions{DefaultVolume: chimeVolume, ResumeOnUnmute: true})
		if r.chime != nil {
			r.scope.FadeIn(r.chime, chimeVolume, rainFade)
		}
		return nil
	})
}

// Unmount releases the mount
func (r *Reveal) Unmount() { r.unmount() }

// Pointer is ignored
func (r *Reveal) Pointer(x, y float64) {}

// Action delivers a table action or skip
func (r *Reveal) Action(name string) bool { return r.action(name) }

// View renders the revealed lines
func (r *Reveal) View() View { return r.view() }

// chimeFreq gives each chapter its own pitch on a pentatonic ladder above A3
func chimeFreq(id policy.ChapterID) float64 {
	ladder := []float64{220, 247.5, 275, 330, 366.7}
	if id <= 0 {
		return ladder[0]
	}
	return ladder[int(id-1)%len(ladder)]
}

// Intro is the hub's opening sequence; skippable, silent, never a chapter of its own
type Intro struct {
	runtime
}

// NewIntro creates the intro sequence
func NewIntro() *Intro {
	return &Intro{runtime: newRuntime(policy.NoChapter, "Introduction", "intro")}
}

// Mount starts the sequence
func (i *Intro) Mount(env Env) error {
	env.Audio = nil
	return i.mount(env, nil)
}

// Unmount cancels pending reveals
func (i *Intro) Unmount() { i.unmount() }

// Pointer is ignored
func (i *Intro) Pointer(x, y float64) {}

// Action accepts skip
func (i *Intro) Action(name string) bool { return i.action(name) }

// View renders the revealed lines
func (i *Intro) View() View { return i.view() }

// Revealed reports whether a reveal of the current mount is visible
func (i *Intro) Revealed(id string) bool {
	return i.machine != nil && i.machine.Revealed(id)
}
