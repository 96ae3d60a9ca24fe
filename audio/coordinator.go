package audio

import (
	"errors"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
)

// DefaultFadeTick is the volume step interval of fades
const DefaultFadeTick = 50 * time.Millisecond

// TrackOptions configure an owned track
type TrackOptions struct {
	// DefaultVolume is restored when an unmute resumes a paused track
	DefaultVolume float64
	// Background marks the shared ambient track that chapters may suppress
	Background bool
	// ResumeOnUnmute resumes the track when unmuting finds it paused
	ResumeOnUnmute bool
}

type owned struct {
	track Track
	opts  TrackOptions
	fade  *sched.Timer
}

// CoordinatorOption configures a Coordinator
type CoordinatorOption func(*Coordinator)

// WithFadeTick overrides the fade step interval
func WithFadeTick(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithMuted sets the initial mute flag
func WithMuted(m bool) CoordinatorOption {
	return func(c *Coordinator) { c.muted = m }
}

// WithRegistry publishes the mute and silent flags
func WithRegistry(reg *status.Registry) CoordinatorOption {
	return func(c *Coordinator) {
		if reg != nil {
			c.statMuted = reg.Bools.Get(status.KeyAudioMuted)
			c.statSilent = reg.Bools.Get(status.KeyAudioSilent)
		}
	}
}

// Coordinator is the only writer of track volume and playback state
// At most one fade runs per track; starting a fade cancels the previous one
// All methods must run in the scheduler's callback context
type Coordinator struct {
	backend Backend
	timers  *sched.TimerSet
	tick    time.Duration

	muted    bool
	suppress bool
	tracks   []*owned

	onMute []func(bool)

	statMuted  *atomic.Bool
	statSilent *atomic.Bool
}

// NewCoordinator creates a coordinator on a backend; fades run on the scheduler
func NewCoordinator(b Backend, s sched.Scheduler, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		backend: b,
		timers:  sched.NewTimerSet(s),
		tick:    DefaultFadeTick,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.statSilent != nil {
		c.statSilent.Store(b.Silent())
	}
	c.publish()
	return c
}

// Backend returns the playback backend
func (c *Coordinator) Backend() Backend {
	return c.backend
}

// NewTrack creates a track on the backend and takes ownership of it
func (c *Coordinator) NewTrack(v Voice, opts TrackOptions) (Track, error) {
	t, err := c.backend.NewTrack(v)
	if err != nil {
		return nil, err
	}
	c.Own(t, opts)
	return t, nil
}

// Own registers a track; it adopts the current mute flag
func (c *Coordinator) Own(t Track, opts TrackOptions) {
	if t == nil || c.find(t) != nil {
		return
	}
	opts.DefaultVolume = clampVolume(opts.DefaultVolume)
	c.tracks = append(c.tracks, &owned{track: t, opts: opts})
	t.SetMuted(c.muted)
}

// Owns reports whether a track is registered
func (c *Coordinator) Owns(t Track) bool {
	return c.find(t) != nil
}

// Release cancels the track's fade, stops and closes it
func (c *Coordinator) Release(t Track) {
	for i, o := range c.tracks {
		if o.track != t {
			continue
		}
		c.cancelFade(o)
		t.Pause()
		t.Close()
		c.tracks = append(c.tracks[:i], c.tracks[i+1:]...)
		return
	}
}

// Close releases every track and cancels every fade
func (c *Coordinator) Close() {
	for len(c.tracks) > 0 {
		c.Release(c.tracks[0].track)
	}
	c.timers.Close()
}

// Muted returns the global mute flag
func (c *Coordinator) Muted() bool {
	return c.muted
}

// OnMute registers a listener for mute flag changes
func (c *Coordinator) OnMute(fn func(bool)) {
	if fn != nil {
		c.onMute = append(c.onMute, fn)
	}
}

// ToggleMute flips the mute flag; returns the new value
func (c *Coordinator) ToggleMute() bool {
	c.SetMuted(!c.muted)
	return c.muted
}

// SetMuted mutes or unmutes every owned track immediately
// Unmuting resumes paused tracks marked ResumeOnUnmute at their default volume, except the
// background track while suppressed; a track under a fade keeps the fade's volume
// A refused resume flips the flag back to muted
func (c *Coordinator) SetMuted(m bool) {
	if c.muted == m {
		return
	}
	c.setMuted(m)
	if m {
		return
	}

	for _, o := range c.snapshot() {
		if o.track.Playing() || !o.opts.ResumeOnUnmute {
			continue
		}
		if o.opts.Background && c.suppress {
			continue
		}
		if o.fade == nil {
			o.track.SetVolume(o.opts.DefaultVolume)
		}
		if !c.start(o.track) {
			return
		}
	}
}

// SetSuppressBackground is the chapter-level policy that keeps the background track silent
// Suppressing pauses it; lifting resumes it when unmuted
func (c *Coordinator) SetSuppressBackground(s bool) {
	if c.suppress == s {
		return
	}
	c.suppress = s
	for _, o := range c.snapshot() {
		if !o.opts.Background {
			continue
		}
		if s {
			c.cancelFade(o)
			o.track.Pause()
			continue
		}
		if !c.muted && !o.track.Playing() {
			o.track.SetVolume(o.opts.DefaultVolume)
			c.start(o.track)
		}
	}
}

// BackgroundSuppressed reports the chapter-level policy flag
func (c *Coordinator) BackgroundSuppressed() bool {
	return c.suppress
}

// PlayBackground starts every background track at its default volume
// Returns false when muted, suppressed or refused
func (c *Coordinator) PlayBackground() bool {
	if c.muted || c.suppress {
		return false
	}
	played := false
	for _, o := range c.snapshot() {
		if !o.opts.Background {
			continue
		}
		if o.fade == nil {
			o.track.SetVolume(o.opts.DefaultVolume)
		}
		if !c.start(o.track) {
			return false
		}
		played = true
	}
	return played
}

// Play sets the volume and starts an owned track
// While muted the track stays paused at that volume; returns whether it is now playing
func (c *Coordinator) Play(t Track, volume float64) bool {
	o := c.find(t)
	if o == nil {
		return false
	}
	c.cancelFade(o)
	t.SetVolume(volume)
	if c.muted {
		return false
	}
	return c.start(t)
}

// SetResumeOnUnmute changes whether unmuting resumes a paused track
func (c *Coordinator) SetResumeOnUnmute(t Track, resume bool) {
	if o := c.find(t); o != nil {
		o.opts.ResumeOnUnmute = resume
	}
}

// FadeTo ramps an owned track's volume linearly to target in steps of the fade tick
// Reaching zero pauses the track; a non-positive duration applies target immediately
func (c *Coordinator) FadeTo(t Track, target float64, d time.Duration) bool {
	o := c.find(t)
	if o == nil {
		return false
	}
	c.cancelFade(o)
	target = clampVolume(target)

	if d <= 0 {
		c.settle(o, target)
		return true
	}

	start := t.Volume()
	steps := int(math.Ceil(float64(d) / float64(c.tick)))
	step := 0
	o.fade = c.timers.Every(c.tick, func() {
		step++
		if step >= steps {
			c.cancelFade(o)
			c.settle(o, target)
			return
		}
		t.SetVolume(start + (target-start)*float64(step)/float64(steps))
	})
	return true
}

// FadeOut ramps to zero and pauses
func (c *Coordinator) FadeOut(t Track, d time.Duration) bool {
	return c.FadeTo(t, 0, d)
}

// FadeIn starts a track at zero volume and ramps it to target
// While muted nothing plays; unmuting resumes it at its default volume
func (c *Coordinator) FadeIn(t Track, target float64, d time.Duration) bool {
	o := c.find(t)
	if o == nil {
		return false
	}
	c.cancelFade(o)
	t.SetVolume(0)
	if c.muted || !c.start(t) {
		return false
	}
	return c.FadeTo(t, target, d)
}

// Crossfade ramps from down to zero and to up to volume over the same duration
// A paused destination track is started first
func (c *Coordinator) Crossfade(from, to Track, volume float64, d time.Duration) bool {
	if c.find(from) == nil || c.find(to) == nil {
		return false
	}
	if !to.Playing() && !c.muted {
		c.start(to)
	}
	c.FadeTo(from, 0, d)
	c.FadeTo(to, volume, d)
	return true
}

// Fading reports whether a fade is in flight on the track
func (c *Coordinator) Fading(t Track) bool {
	o := c.find(t)
	return o != nil && o.fade != nil
}

// ActiveFades returns the number of fades in flight
func (c *Coordinator) ActiveFades() int {
	n := 0
	for _, o := range c.tracks {
		if o.fade != nil {
			n++
		}
	}
	return n
}

// settle writes a final volume; zero pauses
func (c *Coordinator) settle(o *owned, v float64) {
	o.track.SetVolume(v)
	if v == 0 {
		o.track.Pause()
	}
}

// start plays a track; autoplay rejection flips the coordinator to muted
func (c *Coordinator) start(t Track) bool {
	err := t.Play()
	if err == nil {
		return true
	}
	if errors.Is(err, ErrAutoplayRejected) {
		log.Printf("[audio] %s: playback refused, muting until a gesture", t.Name())
		c.setMuted(true)
		return false
	}
	log.Printf("[audio] %s: play failed: %v", t.Name(), err)
	return false
}

func (c *Coordinator) setMuted(m bool) {
	c.muted = m
	for _, o := range c.tracks {
		o.track.SetMuted(m)
	}
	c.publish()
	for _, fn := range c.onMute {
		fn(m)
	}
}

func (c *Coordinator) cancelFade(o *owned) {
	if o.fade != nil {
		o.fade.Cancel()
		o.fade = nil
	}
}

func (c *Coordinator) find(t Track) *owned {
	for _, o := range c.tracks {
		if o.track == t {
			return o
		}
	}
	return nil
}

// snapshot copies the owned list so listeners may release tracks while it is walked
func (c *Coordinator) snapshot() []*owned {
	out := make([]*owned, len(c.tracks))
	copy(out, c.tracks)
	return out
}

func (c *Coordinator) publish() {
	if c.statMuted != nil {
		c.statMuted.Store(c.muted)
	}
}
