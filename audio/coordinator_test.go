package audio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
)

var epoch = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T, requireGesture bool, opts ...CoordinatorOption) (*Coordinator, *sched.Manual, *SilentBackend) {
	t.Helper()
	s := sched.NewManual(epoch)
	b := NewSilentBackend(requireGesture)
	return NewCoordinator(b, s, opts...), s, b
}

func newTrack(t *testing.T, c *Coordinator, name string, opts TrackOptions) *SilentTrack {
	t.Helper()
	tr, err := c.NewTrack(Voice{Name: name}, opts)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	return tr.(*SilentTrack)
}

func TestFadeToZeroEndsPausedAtZero(t *testing.T) {
	tests := []struct {
		start float64
		d     time.Duration
	}{
		{0.2, 2500 * time.Millisecond},
		{1.0, 50 * time.Millisecond},
		{0.6, 130 * time.Millisecond},
		{0.33, 10 * time.Millisecond},
		{0, time.Second},
	}
	for _, tt := range tests {
		c, s, _ := setup(t, false)
		tr := newTrack(t, c, "rain", TrackOptions{})
		c.Play(tr, tt.start)

		c.FadeOut(tr, tt.d)
		s.Advance(tt.d + DefaultFadeTick)

		if tr.Volume() != 0 {
			t.Errorf("Fade from %v over %v: expected volume 0, got %v", tt.start, tt.d, tr.Volume())
		}
		if tr.Playing() {
			t.Errorf("Fade from %v over %v: expected paused", tt.start, tt.d)
		}
		if c.Fading(tr) || s.Pending() != 0 {
			t.Errorf("Fade from %v over %v: expected fade finished", tt.start, tt.d)
		}
	}
}

func TestFadeStepsAreLinear(t *testing.T) {
	c, s, _ := setup(t, false)
	tr := newTrack(t, c, "music", TrackOptions{})
	c.Play(tr, 0.6)

	c.FadeTo(tr, 0, 300*time.Millisecond)
	s.Advance(150 * time.Millisecond)
	if math.Abs(tr.Volume()-0.3) > 1e-9 {
		t.Errorf("Expected 0.3 halfway, got %v", tr.Volume())
	}
	if !tr.Playing() {
		t.Error("Expected still playing mid-fade")
	}

	c.FadeTo(tr, 0.9, 0)
	if tr.Volume() != 0.9 || c.Fading(tr) {
		t.Errorf("Expected immediate volume 0.9 and no fade, got %v", tr.Volume())
	}
}

func TestToggleMuteDuringFadeKeepsOneFade(t *testing.T) {
	c, s, _ := setup(t, false)
	tr := newTrack(t, c, "rain", TrackOptions{DefaultVolume: 0.2, ResumeOnUnmute: true})
	c.Play(tr, 0.2)

	c.FadeOut(tr, 2*time.Second)
	s.Advance(500 * time.Millisecond)

	last := tr.Volume()
	c.ToggleMute()
	if !tr.Muted() {
		t.Error("Expected track muted")
	}
	c.ToggleMute()
	c.ToggleMute()
	c.ToggleMute()

	if c.ActiveFades() != 1 {
		t.Errorf("Expected 1 fade in flight, got %d", c.ActiveFades())
	}
	if s.Pending() != 1 {
		t.Errorf("Expected 1 scheduled callback, got %d", s.Pending())
	}

	for i := 0; i < 40; i++ {
		s.Advance(DefaultFadeTick)
		v := tr.Volume()
		if v > last {
			t.Fatalf("Volume rose from %v to %v during fade-out", last, v)
		}
		last = v
	}
	if tr.Volume() != 0 || tr.Playing() {
		t.Errorf("Expected paused at 0, got %v playing=%v", tr.Volume(), tr.Playing())
	}
}

func TestNewFadeCancelsPrevious(t *testing.T) {
	c, s, _ := setup(t, false)
	tr := newTrack(t, c, "music", TrackOptions{})
	c.Play(tr, 0.3)

	c.FadeTo(tr, 0.6, time.Second)
	s.Advance(200 * time.Millisecond)
	c.FadeTo(tr, 0, 500*time.Millisecond)

	if s.Pending() != 1 {
		t.Errorf("Expected 1 scheduled fade, got %d", s.Pending())
	}
	s.Advance(2 * time.Second)
	if tr.Volume() != 0 || tr.Playing() {
		t.Errorf("Expected second fade to win, got %v", tr.Volume())
	}
}

func TestAutoplayRejectionFlipsMute(t *testing.T) {
	reg := status.NewRegistry()
	c, _, b := setup(t, true, WithRegistry(reg))
	tr := newTrack(t, c, "music", TrackOptions{DefaultVolume: 0.4, ResumeOnUnmute: true})

	if c.Play(tr, 0.4) {
		t.Error("Expected playback refused before a gesture")
	}
	if !c.Muted() || !tr.Muted() {
		t.Error("Expected coordinator and track muted after rejection")
	}
	if v, _ := reg.Bools.Lookup(status.KeyAudioMuted); !v.Load() {
		t.Error("Expected published mute flag")
	}

	b.Gesture()
	if c.ToggleMute() {
		t.Fatal("Expected unmuted after toggle")
	}
	if !tr.Playing() || tr.Volume() != 0.4 || tr.Muted() {
		t.Errorf("Expected resumed at default volume, got playing=%v volume=%v", tr.Playing(), tr.Volume())
	}
}

func TestRejectedUnmuteStaysMuted(t *testing.T) {
	c, _, _ := setup(t, true, WithMuted(true))
	newTrack(t, c, "music", TrackOptions{DefaultVolume: 0.4, ResumeOnUnmute: true})

	c.SetMuted(false)
	if !c.Muted() {
		t.Error("Expected mute flag restored when resume is refused")
	}
}

func TestUnmuteResumeRules(t *testing.T) {
	c, _, _ := setup(t, false)
	rain := newTrack(t, c, "rain", TrackOptions{DefaultVolume: 0.2, ResumeOnUnmute: true})
	music := newTrack(t, c, "music", TrackOptions{DefaultVolume: 0.3, ResumeOnUnmute: true})
	sfx := newTrack(t, c, "sfx", TrackOptions{DefaultVolume: 0.5})

	c.SetMuted(true)
	c.SetResumeOnUnmute(rain, false)
	c.SetMuted(false)

	if rain.Playing() {
		t.Error("Expected rain to stay paused")
	}
	if !music.Playing() || music.Volume() != 0.3 {
		t.Errorf("Expected music resumed at 0.3, got %v", music.Volume())
	}
	if sfx.Playing() {
		t.Error("Expected track without resume flag to stay paused")
	}
}

func TestMutedPlayDefersToUnmute(t *testing.T) {
	c, _, _ := setup(t, false, WithMuted(true))
	rain := newTrack(t, c, "rain", TrackOptions{DefaultVolume: 0.2, ResumeOnUnmute: true})

	if c.FadeIn(rain, 0.2, 2*time.Second) {
		t.Error("Expected fade-in deferred while muted")
	}
	if rain.Playing() || !rain.Muted() {
		t.Error("Expected muted paused track")
	}
	c.ToggleMute()
	if !rain.Playing() || rain.Volume() != 0.2 {
		t.Errorf("Expected rain resumed at 0.2, got %v", rain.Volume())
	}
}

func TestCrossfade(t *testing.T) {
	c, s, _ := setup(t, false)
	rain := newTrack(t, c, "rain", TrackOptions{DefaultVolume: 0.2})
	music := newTrack(t, c, "music", TrackOptions{DefaultVolume: 0.3})
	c.Play(rain, 0.2)

	music.SetVolume(0.3)
	if !c.Crossfade(rain, music, 0.6, 2500*time.Millisecond) {
		t.Fatal("Expected crossfade to start")
	}
	if !music.Playing() {
		t.Error("Expected destination started")
	}
	if c.ActiveFades() != 2 {
		t.Errorf("Expected 2 fades, got %d", c.ActiveFades())
	}

	s.Advance(1250 * time.Millisecond)
	if math.Abs(rain.Volume()-0.1) > 1e-9 || math.Abs(music.Volume()-0.45) > 1e-9 {
		t.Errorf("Expected midpoint 0.1/0.45, got %v/%v", rain.Volume(), music.Volume())
	}

	s.Advance(1250 * time.Millisecond)
	if rain.Playing() || rain.Volume() != 0 {
		t.Errorf("Expected rain paused at 0, got %v", rain.Volume())
	}
	if !music.Playing() || music.Volume() != 0.6 {
		t.Errorf("Expected music at 0.6, got %v", music.Volume())
	}
}

func TestBackgroundSuppression(t *testing.T) {
	c, _, _ := setup(t, false)
	bg := newTrack(t, c, "ambient", TrackOptions{DefaultVolume: 0.25, Background: true, ResumeOnUnmute: true})

	if !c.PlayBackground() || !bg.Playing() {
		t.Fatal("Expected background playing")
	}

	scope := c.NewScope(true)
	if bg.Playing() {
		t.Error("Expected background paused by suppressing scope")
	}
	c.ToggleMute()
	c.ToggleMute()
	if bg.Playing() {
		t.Error("Expected suppressed background not resumed by unmute")
	}
	if c.PlayBackground() {
		t.Error("Expected PlayBackground refused while suppressed")
	}

	scope.Close()
	if !bg.Playing() || bg.Volume() != 0.25 {
		t.Errorf("Expected background resumed at 0.25 after scope close, got %v", bg.Volume())
	}
}

func TestScopeReleasesMidFade(t *testing.T) {
	c, s, _ := setup(t, false)
	scope := c.NewScope(false)

	tr, err := scope.Track(Voice{Name: "rain"}, TrackOptions{DefaultVolume: 0.2})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	scope.FadeIn(tr, 0.2, 2*time.Second)
	s.Advance(time.Second)

	scope.Close()
	st := tr.(*SilentTrack)
	if !st.Closed() || st.Playing() {
		t.Error("Expected track closed and stopped")
	}
	if c.Owns(tr) || s.Pending() != 0 {
		t.Error("Expected track released with no pending fade")
	}
	if _, err := scope.Track(Voice{Name: "late"}, TrackOptions{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from closed scope, got %v", err)
	}
	scope.Close()
}

func TestServiceFallsBackToSilent(t *testing.T) {
	svc := NewService()
	svc.open = func(Config) (Backend, error) { return nil, ErrNoBackend }
	svc.Init(&Config{Enabled: true, RequireGesture: true})
	svc.Start()

	if !svc.IsSilent() || !svc.Backend().Silent() {
		t.Error("Expected silent backend when the device fails")
	}

	disabled := NewService()
	disabled.open = func(Config) (Backend, error) {
		t.Error("Expected no device open when disabled")
		return nil, ErrNoBackend
	}
	disabled.Init(&Config{Enabled: false})
	disabled.Start()
	if !disabled.IsSilent() {
		t.Error("Expected silent backend when disabled")
	}

	var published []any
	disabled.Contribute(func(r any) { published = append(published, r) })
	if len(published) != 1 {
		t.Errorf("Expected backend published, got %d", len(published))
	}
	disabled.Stop()
}
