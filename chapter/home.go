package chapter

import (
	"time"

	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/phase"
	"github.com/lixenwraith/unveil/policy"
	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/vmath"
)

// Home audio and storm constants
const (
	rainVolume       = 0.2
	stormMusicVolume = 0.3
	peaceMusicVolume = 0.6
	rainDelay        = 2 * time.Second
	rainFade         = 2 * time.Second
	calmFade         = 2500 * time.Millisecond

	lightningEvery  = 2500 * time.Millisecond
	lightningChance = 0.3
	flashLength     = 150 * time.Millisecond
	doubleChance    = 0.4
	doubleDelay     = 300 * time.Millisecond
	doubleLength    = 80 * time.Millisecond
)

// ActionLatch ends the storm
const ActionLatch = "latch"

// Home is the storm to peace chapter
// The storm runs rain, music and lightning until the latch action; the crossfade to peace is
// one-way and rain never resumes on unmute afterwards
type Home struct {
	runtime
	rain  audio.Track
	music audio.Track
	rng   *vmath.FastRand

	// Storm-only timers nested under the mount's set: lightning and the delayed rain fade
	storm   *sched.TimerSet
	flash   bool
	strikes int
}

// NewHome creates the home chapter
func NewHome(id policy.ChapterID, title string) *Home {
	h := &Home{runtime: newRuntime(id, title, "home")}
	h.suppress = true
	return h
}

// Mount starts the storm
func (h *Home) Mount(env Env) error {
	h.flash = false
	h.strikes = 0
	return h.mount(env, func(m *phase.Machine) error {
		h.rng = env.Rand
		if h.rng == nil {
			h.rng = vmath.NewFastRand(uint64(env.Scheduler.Now().UnixNano()))
		}
		h.storm = sched.NewTimerSet(h.timers)
		h.rain = h.track(audio.Voice{Name: "rain", Kind: audio.VoiceRain},
			audio.TrackOptions{DefaultVolume: rainVolume, ResumeOnUnmute: true})
		h.music = h.track(audio.Voice{Name: "home", Kind: audio.VoicePad, Freq: 196},
			audio.TrackOptions{DefaultVolume: stormMusicVolume, ResumeOnUnmute: true})

		m.RegisterAction("storm_audio", h.stormAudio)
		m.RegisterAction("lightning", h.startLightning)
		m.RegisterAction("calm", h.calm)
		return nil
	})
}

// Unmount stops the storm timers and releases the mount
func (h *Home) Unmount() {
	if h.storm != nil {
		h.storm.Close()
	}
	h.flash = false
	h.unmount()
}

// Pointer is ignored
func (h *Home) Pointer(x, y float64) {}

// Action delivers latch or skip
func (h *Home) Action(name string) bool {
	return h.action(name)
}

// Flash reports whether a lightning flash is lit
func (h *Home) Flash() bool { return h.flash }

// Strikes returns the number of flashes lit during this mount
func (h *Home) Strikes() int { return h.strikes }

// View adds the lightning flash
func (h *Home) View() View {
	v := h.view()
	v.Flash = h.flash
	return v
}

func (h *Home) stormAudio() {
	if h.music != nil {
		h.scope.Play(h.music, stormMusicVolume)
	}
	if h.rain != nil {
		h.storm.After(rainDelay, func() {
			h.scope.FadeIn(h.rain, rainVolume, rainFade)
		})
	}
}

func (h *Home) startLightning() {
	h.storm.Every(lightningEvery, func() {
		if !h.rng.Chance(lightningChance) {
			return
		}
		h.strike(flashLength)
		if h.rng.Chance(doubleChance) {
			h.storm.After(doubleDelay, func() { h.strike(doubleLength) })
		}
	})
}

func (h *Home) strike(d time.Duration) {
	h.flash = true
	h.strikes++
	h.storm.After(d, func() { h.flash = false })
}

// calm ends the storm: lightning and the pending rain fade stop, rain crossfades into music
func (h *Home) calm() {
	h.storm.Close()
	h.flash = false
	if h.rain == nil || h.music == nil {
		return
	}
	h.scope.Coordinator().SetResumeOnUnmute(h.rain, false)
	h.scope.Crossfade(h.rain, h.music, peaceMusicVolume, calmFade)
}
