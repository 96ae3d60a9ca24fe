package chapter

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/unveil/accumulator"
	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/navigation"
	"github.com/lixenwraith/unveil/phase"
	"github.com/lixenwraith/unveil/policy"
	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
	"github.com/lixenwraith/unveil/vmath"
)

var epoch = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

type fixture struct {
	s   *sched.Manual
	c   *audio.Coordinator
	reg *status.Registry
	env Env
}

func newFixture(t *testing.T, fast bool) *fixture {
	t.Helper()
	content, err := DefaultContent()
	if err != nil {
		t.Fatalf("DefaultContent: %v", err)
	}
	s := sched.NewManual(epoch)
	reg := status.NewRegistry()
	c := audio.NewCoordinator(audio.NewSilentBackend(false), s, audio.WithRegistry(reg))
	return &fixture{
		s:   s,
		c:   c,
		reg: reg,
		env: Env{
			Scheduler: s,
			Audio:     c,
			Registry:  reg,
			Content:   content,
			Fast:      fast,
			Rand:      vmath.NewFastRand(42),
		},
	}
}

func silent(t *testing.T, tr audio.Track) *audio.SilentTrack {
	t.Helper()
	st, ok := tr.(*audio.SilentTrack)
	if !ok {
		t.Fatalf("Expected silent track, got %T", tr)
	}
	return st
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDefaultContent(t *testing.T) {
	content, err := DefaultContent()
	if err != nil {
		t.Fatalf("DefaultContent: %v", err)
	}
	for _, name := range []string{"intro", "growth", "home", "chapter3", "chapter4", "chapter5", "chapter6", "chapter7"} {
		if _, err := content.Table(name); err != nil {
			t.Errorf("Expected table %s, got %v", name, err)
		}
	}
	if _, err := content.Table("missing"); err == nil {
		t.Error("Expected error for unknown table")
	}

	home, _ := content.Table("home")
	want := map[string]time.Duration{
		"sky": 100 * time.Millisecond, "rain": 1500 * time.Millisecond, "leaves": 3 * time.Second,
		"storm1": 16500 * time.Millisecond, "storm2": 19500 * time.Millisecond,
		"storm3": 22500 * time.Millisecond, "hint": 25 * time.Second,
	}
	for _, r := range home.Phases[0].Reveals {
		if want[r.ID] != r.Delay {
			t.Errorf("Reveal %s: expected delay %v, got %v", r.ID, want[r.ID], r.Delay)
		}
	}
	if got := content.Text("home", "peace1"); got == "peace1" {
		t.Error("Expected text for home/peace1")
	}
	if got := content.Text("home", "nope"); got != "nope" {
		t.Errorf("Expected id fallback, got %q", got)
	}
}

func TestRevealChapterTimeline(t *testing.T) {
	f := newFixture(t, false)
	r := NewReveal(3, "Patience", "chapter3")
	if err := r.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := r.Mount(f.env); err != ErrMounted {
		t.Errorf("Expected ErrMounted, got %v", err)
	}

	if got := len(r.View().Lines); got != 1 {
		t.Errorf("Expected title only at mount, got %d lines", got)
	}
	f.s.Advance(6 * time.Second)
	if got := len(r.View().Lines); got != 3 {
		t.Errorf("Expected 3 lines at 6s, got %d", got)
	}
	f.s.Advance(4 * time.Second)
	if v := r.View(); v.Phase != "closing" {
		t.Errorf("Expected closing phase at 10s, got %q", v.Phase)
	}
	f.s.Advance(5 * time.Second)
	v := r.View()
	if len(v.Lines) != 5 || !v.Done || v.Skippable {
		t.Errorf("Expected finished chapter, got %+v", v)
	}
}

func TestRevealChapterUnmountCancelsEverything(t *testing.T) {
	f := newFixture(t, false)
	r := NewReveal(5, "Adventure", "chapter5")
	if err := r.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	chime := silent(t, r.chime)
	f.s.Advance(time.Second)
	if !chime.Playing() || f.c.ActiveFades() != 1 {
		t.Fatalf("Expected chime fading in, playing=%v fades=%d", chime.Playing(), f.c.ActiveFades())
	}

	r.Unmount()
	if r.Mounted() || r.Pending() != 0 {
		t.Errorf("Expected unmounted with no timers, pending %d", r.Pending())
	}
	if f.s.Pending() != 0 {
		t.Errorf("Expected empty scheduler, got %d", f.s.Pending())
	}
	if !chime.Closed() || f.c.Owns(chime) {
		t.Error("Expected chime released")
	}
	lines := len(r.View().Lines)
	f.s.Advance(time.Minute)
	if got := len(r.View().Lines); got != lines {
		t.Errorf("Expected no reveals after unmount, got %d lines from %d", got, lines)
	}
	r.Unmount()
}

func TestRevealChapterActionAndSkip(t *testing.T) {
	f := newFixture(t, false)
	r := NewReveal(4, "Honesty", "chapter4")
	if err := r.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if v := r.View(); v.Action != "continue" {
		t.Errorf("Expected continue action, got %q", v.Action)
	}
	if r.Action("latch") {
		t.Error("Expected unknown action refused")
	}
	if !r.Action("continue") {
		t.Fatal("Expected continue accepted")
	}
	if !r.Action(ActionSkip) {
		t.Fatal("Expected skip accepted")
	}
	v := r.View()
	if !v.Done || len(v.Lines) != 4 {
		t.Errorf("Expected all 4 lines after skip, got %+v", v)
	}
	if r.Action(ActionSkip) {
		t.Error("Expected second skip refused")
	}
	if r.Machine().Pending() != 0 {
		t.Errorf("Expected no phase timers after skip, got %d", r.Machine().Pending())
	}
}

func TestInstanceIDPublished(t *testing.T) {
	f := newFixture(t, false)
	r := NewReveal(6, "Support", "chapter6")
	if err := r.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	first := f.reg.Strings.Get(status.KeyChapterInstance).Load()
	if first == "" || first != r.Instance() {
		t.Errorf("Expected published instance %q, got %q", r.Instance(), first)
	}
	if got := f.reg.Strings.Get(status.KeyChapterPhase).Load(); got != "opening" {
		t.Errorf("Expected chapter phase opening, got %q", got)
	}
	r.Unmount()
	if got := f.reg.Strings.Get(status.KeyChapterInstance).Load(); got != "" {
		t.Errorf("Expected cleared instance, got %q", got)
	}
	if err := r.Mount(f.env); err != nil {
		t.Fatalf("Remount: %v", err)
	}
	if r.Instance() == first {
		t.Error("Expected a new instance id per mount")
	}
}

func TestMountWithoutAudio(t *testing.T) {
	f := newFixture(t, false)
	f.env.Audio = nil
	for _, c := range []Chapter{NewGrowth(1, "Growth"), NewHome(2, "Home"), NewReveal(3, "Patience", "chapter3")} {
		if err := c.Mount(f.env); err != nil {
			t.Fatalf("Mount %s: %v", c.ID(), err)
		}
		f.s.Advance(30 * time.Second)
		c.Action(ActionLatch)
		f.s.Advance(5 * time.Second)
		c.Unmount()
	}
	if f.s.Pending() != 0 {
		t.Errorf("Expected empty scheduler, got %d", f.s.Pending())
	}
}

func TestMountErrors(t *testing.T) {
	f := newFixture(t, false)
	env := f.env
	env.Content = nil
	if err := NewReveal(3, "x", "chapter3").Mount(env); err != ErrNoContent {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
	env = f.env
	env.Scheduler = nil
	if err := NewReveal(3, "x", "chapter3").Mount(env); err != ErrNoSchedule {
		t.Errorf("Expected ErrNoSchedule, got %v", err)
	}
	if err := NewReveal(9, "x", "chapter9").Mount(f.env); err == nil {
		t.Error("Expected unknown table error")
	}
}

func TestHomeStorm(t *testing.T) {
	f := newFixture(t, false)
	h := NewHome(2, "Home")
	if err := h.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	rain, music := silent(t, h.rain), silent(t, h.music)

	if !f.c.BackgroundSuppressed() {
		t.Error("Expected background suppressed while home is mounted")
	}
	if !music.Playing() || !near(music.Volume(), stormMusicVolume) {
		t.Errorf("Expected music at %v, got playing=%v vol=%v", stormMusicVolume, music.Playing(), music.Volume())
	}
	if rain.Playing() {
		t.Error("Expected rain silent before its delay")
	}

	f.s.Advance(100 * time.Millisecond)
	if !h.Machine().Revealed("sky") || h.Machine().Revealed("rain") {
		t.Error("Expected only sky revealed at 100ms")
	}
	f.s.Advance(rainDelay + rainFade)
	if !rain.Playing() || !near(rain.Volume(), rainVolume) {
		t.Errorf("Expected rain at %v, got playing=%v vol=%v", rainVolume, rain.Playing(), rain.Volume())
	}

	f.s.Advance(25 * time.Second)
	v := h.View()
	if v.Hint == "" || v.Action != ActionLatch {
		t.Errorf("Expected latch hint at 25s, got hint=%q action=%q", v.Hint, v.Action)
	}
	if len(v.Lines) != 6 {
		t.Errorf("Expected 6 storm lines, got %d", len(v.Lines))
	}

	f.s.Advance(2 * time.Minute)
	if h.Strikes() == 0 {
		t.Error("Expected lightning during the storm")
	}
}

func TestHomeLatchCrossfade(t *testing.T) {
	f := newFixture(t, false)
	h := NewHome(2, "Home")
	if err := h.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	rain, music := silent(t, h.rain), silent(t, h.music)
	f.s.Advance(10 * time.Second)

	if !h.Action(ActionLatch) {
		t.Fatal("Expected latch accepted")
	}
	if h.Action(ActionLatch) {
		t.Error("Expected second latch refused")
	}
	if got := h.View().Phase; got != "transitioning" {
		t.Errorf("Expected transitioning, got %q", got)
	}
	strikes := h.Strikes()
	if h.Flash() {
		t.Error("Expected flash cleared on latch")
	}

	f.s.Advance(calmFade)
	if got := h.View().Phase; got != "peace" {
		t.Errorf("Expected peace after crossfade, got %q", got)
	}
	if rain.Playing() || rain.Volume() != 0 {
		t.Errorf("Expected rain paused at 0, got playing=%v vol=%v", rain.Playing(), rain.Volume())
	}
	if !music.Playing() || !near(music.Volume(), peaceMusicVolume) {
		t.Errorf("Expected music at %v, got %v", peaceMusicVolume, music.Volume())
	}

	f.c.ToggleMute()
	f.c.ToggleMute()
	if rain.Playing() {
		t.Error("Expected rain to stay paused after unmute in peace")
	}
	if !music.Playing() {
		t.Error("Expected music resumed after unmute")
	}

	f.s.Advance(time.Minute)
	if h.Strikes() != strikes {
		t.Errorf("Expected no lightning after latch, got %d new strikes", h.Strikes()-strikes)
	}
	if len(h.View().Lines) != 7 {
		t.Errorf("Expected storm and peace lines, got %d", len(h.View().Lines))
	}
}

func TestHomeLatchBeforeRain(t *testing.T) {
	f := newFixture(t, false)
	h := NewHome(2, "Home")
	if err := h.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	rain := silent(t, h.rain)
	f.s.Advance(time.Second)
	h.Action(ActionLatch)
	f.s.Advance(10 * time.Second)
	if rain.Plays() != 0 {
		t.Errorf("Expected rain never started, got %d plays", rain.Plays())
	}
}

func TestHomeUnmountMidCrossfade(t *testing.T) {
	f := newFixture(t, false)
	h := NewHome(2, "Home")
	if err := h.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	rain, music := silent(t, h.rain), silent(t, h.music)
	f.s.Advance(5 * time.Second)
	h.Action(ActionLatch)
	f.s.Advance(time.Second)
	if f.c.ActiveFades() != 2 {
		t.Fatalf("Expected 2 fades mid crossfade, got %d", f.c.ActiveFades())
	}

	h.Unmount()
	if f.c.ActiveFades() != 0 || f.s.Pending() != 0 {
		t.Errorf("Expected nothing pending, fades=%d timers=%d", f.c.ActiveFades(), f.s.Pending())
	}
	if !rain.Closed() || !music.Closed() {
		t.Error("Expected both tracks closed")
	}
	if f.c.BackgroundSuppressed() {
		t.Error("Expected background suppression lifted")
	}
}

func TestGrowthFastCompletes(t *testing.T) {
	f := newFixture(t, true)
	g := NewGrowth(1, "Growth")
	if err := g.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	music := silent(t, g.music)
	if !music.Playing() || !near(music.Volume(), growthMusicVolume) {
		t.Errorf("Expected music at %v, got %v", growthMusicVolume, music.Volume())
	}

	f.s.Advance(5 * time.Second)
	if g.Accumulator().Progress() != 0 {
		t.Errorf("Expected no progress without pointer, got %v", g.Accumulator().Progress())
	}
	v := g.View()
	if !v.Meter || v.Hint == "" {
		t.Errorf("Expected meter and hint, got %+v", v)
	}

	g.Pointer(50, 50)
	f.s.Advance(11 * time.Second)
	if got := g.View().Phase; got != "transitioning" {
		t.Fatalf("Expected transitioning after saturation, got %q (progress %v)", got, g.Accumulator().Progress())
	}
	f.s.Advance(5 * time.Second)
	v = g.View()
	if v.Phase != "full" || !v.Done {
		t.Errorf("Expected full, got %q", v.Phase)
	}
	if g.Accumulator().Phase() != accumulator.Done {
		t.Errorf("Expected accumulator done, got %v", g.Accumulator().Phase())
	}
	if v.Progress != accumulator.MaxProgress {
		t.Errorf("Expected progress %v, got %v", accumulator.MaxProgress, v.Progress)
	}

	g.Unmount()
	if g.Pending() != 0 || f.s.Pending() != 0 {
		t.Errorf("Expected no timers after unmount, got %d/%d", g.Pending(), f.s.Pending())
	}
	if !music.Closed() {
		t.Error("Expected music released")
	}
}

func TestGrowthNotSkippable(t *testing.T) {
	f := newFixture(t, false)
	g := NewGrowth(1, "Growth")
	if err := g.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer g.Unmount()
	if g.Action(ActionSkip) {
		t.Error("Expected growth to refuse skip")
	}
}

func TestGrowthFailedMountLeavesNoTimers(t *testing.T) {
	f := newFixture(t, true)
	data := bytes.Replace(defaultContent, []byte("on_enter: [music]"), []byte("on_enter: [music, sparkle]"), 1)
	content, err := ParseContent(data)
	if err != nil {
		t.Fatalf("ParseContent: %v", err)
	}
	f.env.Content = content

	g := NewGrowth(1, "Growth")
	if err := g.Mount(f.env); !errors.Is(err, phase.ErrUnknownAction) {
		t.Fatalf("Expected ErrUnknownAction, got %v", err)
	}
	if g.Mounted() {
		t.Error("Expected growth unmounted after failed mount")
	}
	if g.Pending() != 0 || g.Accumulator().Pending() != 0 {
		t.Errorf("Expected no chapter timers, got %d/%d", g.Pending(), g.Accumulator().Pending())
	}
	if n := f.s.Advance(10 * time.Second); n != 0 {
		t.Errorf("Expected no callbacks after failed mount, got %d", n)
	}
	if f.s.Pending() != 0 {
		t.Errorf("Expected empty scheduler, got %d", f.s.Pending())
	}
}

func TestGrowthUsesFrameInterval(t *testing.T) {
	f := newFixture(t, true)
	f.env.Frame = 50 * time.Millisecond
	g := NewGrowth(1, "Growth")
	if err := g.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer g.Unmount()
	if got := g.Accumulator().Frame(); got != 50*time.Millisecond {
		t.Errorf("Expected 50ms frame, got %v", got)
	}
	// Emitter and frame ticker nest under the mount's timers
	if n := g.Accumulator().Pending(); n != 2 || g.Pending() < n {
		t.Errorf("Expected 2 accumulator timers counted by the chapter, got %d/%d", n, g.Pending())
	}
}

func TestQuestionTypewriter(t *testing.T) {
	s := sched.NewManual(epoch)
	q := NewQuestion("ab", "c")
	q.Start(s, vmath.NewFastRand(1))

	if q.Dodge() || q.Yes() {
		t.Error("Expected answers refused while typing")
	}
	s.Advance(QuestionStartDelay + TypeInterval)
	if l1, _ := q.Text(); l1 != "a" {
		t.Errorf("Expected %q, got %q", "a", l1)
	}
	s.Advance(TypeInterval)
	if l1, l2 := q.Text(); l1 != "ab" || l2 != "" {
		t.Errorf("Expected first line typed, got %q %q", l1, l2)
	}
	s.Advance(LinePause + TypeInterval)
	if _, l2 := q.Text(); l2 != "c" {
		t.Errorf("Expected second line typed, got %q", l2)
	}
	s.Advance(AnswersDelay - time.Millisecond)
	if q.AnswersVisible() {
		t.Error("Expected answers hidden before delay")
	}
	s.Advance(time.Millisecond)
	if !q.AnswersVisible() || q.Typing() {
		t.Error("Expected answers visible")
	}
	if q.Pending() != 0 {
		t.Errorf("Expected no timers, got %d", q.Pending())
	}
}

func TestQuestionDodge(t *testing.T) {
	s := sched.NewManual(epoch)
	q := NewQuestion("a", "b")
	q.Start(s, vmath.NewFastRand(7))
	s.Advance(5 * time.Second)

	for i := 1; i <= MaxDodges; i++ {
		if !q.Dodge() {
			t.Fatalf("Expected dodge %d accepted", i)
		}
		off := q.NoOffset()
		if off.X < 50 || off.X >= 200 || off.Y < -80 || off.Y >= 80 {
			t.Errorf("Dodge %d: offset out of range: %+v", i, off)
		}
		if i < 3 && q.Hint() != "" {
			t.Errorf("Dodge %d: expected no hint, got %q", i, q.Hint())
		}
		if i >= 3 && q.Hint() != dodgeHints[i-3] {
			t.Errorf("Dodge %d: expected hint %q, got %q", i, dodgeHints[i-3], q.Hint())
		}
	}
	if q.Dodge() || q.NoVisible() {
		t.Error("Expected no to be gone after max dodges")
	}
	if math.Abs(q.YesScale()-1.9) > 1e-9 {
		t.Errorf("Expected yes scale 1.9, got %v", q.YesScale())
	}
	if q.NoScale() != 0.6 {
		t.Errorf("Expected no scale 0.6, got %v", q.NoScale())
	}

	calls := 0
	q.OnYes(func() { calls++ })
	if !q.Yes() || q.Yes() {
		t.Error("Expected exactly one accepted yes")
	}
	if calls != 1 || !q.Accepted() {
		t.Errorf("Expected one yes callback, got %d", calls)
	}
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	ids := c.IDs()
	if len(ids) != 7 || ids[0] != 1 || ids[6] != 7 {
		t.Fatalf("Expected chapters 1..7, got %v", ids)
	}
	for _, id := range ids {
		ch, ok := c.New(id)
		if !ok || ch.ID() != id || ch.Title() != c.Title(id) {
			t.Errorf("Chapter %s: bad instance", id)
		}
	}
	if _, ok := c.New(8); ok {
		t.Error("Expected no chapter 8")
	}
	a, _ := c.New(3)
	b, _ := c.New(3)
	if a == b {
		t.Error("Expected a fresh instance per New")
	}
}

func TestStagePausesQuestionOutsideHub(t *testing.T) {
	f := newFixture(t, false)
	st := NewStage(DefaultCatalog(), f.env)
	q := st.Question()

	st.Show(navigation.Hub())
	f.s.Advance(QuestionStartDelay + 5*TypeInterval)
	typed, _ := q.Text()
	if typed == "" {
		t.Fatal("Expected typing under way")
	}

	st.Show(navigation.InChapter(3))
	if q.Pending() != 0 {
		t.Errorf("Expected question timers stopped in chapter view, got %d", q.Pending())
	}
	f.s.Advance(30 * time.Second)
	if now, _ := q.Text(); now != typed {
		t.Errorf("Expected typing paused at %q, got %q", typed, now)
	}

	st.Show(navigation.Hub())
	if q.Pending() == 0 {
		t.Error("Expected typing resumed on the hub")
	}
	f.s.Advance(30 * time.Second)
	if !q.AnswersVisible() {
		t.Error("Expected answers after resumed typing")
	}
	if l1, l2 := q.Text(); l1 != QuestionLine1 || l2 != QuestionLine2 {
		t.Errorf("Expected both lines typed once, got %q %q", l1, l2)
	}
	st.Close()
}

func TestStageFollowsNavigation(t *testing.T) {
	f := newFixture(t, false)
	st := NewStage(DefaultCatalog(), f.env)

	st.OnNavigate(navigation.Gate(), navigation.Hub())
	if st.Current() != nil || st.Intro().Mounted() {
		t.Error("Expected hub to show the question first")
	}
	f.s.Advance(10 * time.Second)
	if !st.Question().AnswersVisible() {
		t.Fatal("Expected question answered after typing")
	}
	st.Question().Yes()
	if !st.Intro().Mounted() {
		t.Fatal("Expected intro after yes")
	}

	st.Show(navigation.InChapter(3))
	first := st.Current()
	if first == nil || first.ID() != 3 || !first.Mounted() {
		t.Fatal("Expected chapter 3 mounted")
	}
	if st.Intro().Mounted() {
		t.Error("Expected intro unmounted in chapter view")
	}
	st.Show(navigation.InChapter(3))
	if st.Current() != first {
		t.Error("Expected same chapter kept on repeated state")
	}

	st.Show(navigation.InChapter(2))
	if first.Mounted() {
		t.Error("Expected chapter 3 unmounted when opening 2")
	}
	if st.Current().ID() != 2 {
		t.Errorf("Expected chapter 2, got %s", st.Current().ID())
	}
	if !st.Action(ActionLatch) {
		t.Error("Expected latch forwarded to home")
	}

	st.Show(navigation.Hub())
	if st.Current() != nil {
		t.Error("Expected no chapter on hub")
	}
	if !st.Intro().Mounted() || !st.Intro().View().Done {
		t.Error("Expected finished intro when returning to hub")
	}

	st.Show(navigation.InChapter(policy.ChapterID(9)))
	if st.Current() != nil {
		t.Error("Expected unknown chapter to mount nothing")
	}

	st.Close()
	if f.s.Pending() != 0 {
		t.Errorf("Expected empty scheduler after close, got %d", f.s.Pending())
	}
}

func TestIntroSequence(t *testing.T) {
	f := newFixture(t, false)
	in := NewIntro()
	if err := in.Mount(f.env); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	checks := []struct {
		at time.Duration
		id string
	}{
		{0, "line1"}, {5 * time.Second, "line2"}, {25 * time.Second, "collage"},
		{45 * time.Second, "strip4"}, {48 * time.Second, "dates"},
	}
	elapsed := time.Duration(0)
	for _, c := range checks {
		f.s.Advance(c.at - elapsed)
		elapsed = c.at
		if !in.Revealed(c.id) {
			t.Errorf("Expected %s revealed at %v", c.id, c.at)
		}
	}
	in.Unmount()
	if f.s.Pending() != 0 {
		t.Errorf("Expected no timers, got %d", f.s.Pending())
	}
}
