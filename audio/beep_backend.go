package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	padCycle   = 8 * time.Second
	beatPeriod = 2400 * time.Millisecond
)

// BeepBackend mixes every track into one speaker stream
type BeepBackend struct {
	gestureGate

	sr     beep.SampleRate
	master float64
	mixer  *beep.Mixer

	mu     sync.Mutex
	closed bool
}

// NewBeepBackend opens the speaker; fails when no device is available
func NewBeepBackend(cfg Config) (*BeepBackend, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	if sr <= 0 {
		sr = beep.SampleRate(DefaultSampleRate)
	}
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
	}

	b := &BeepBackend{
		gestureGate: gestureGate{require: cfg.RequireGesture},
		sr:          sr,
		master:      clampVolume(cfg.MasterVolume),
		mixer:       &beep.Mixer{},
	}
	speaker.Play(b.mixer)
	return b, nil
}

// NewTrack adds a paused track to the mixer
func (b *BeepBackend) NewTrack(v Voice) (Track, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrNoBackend
	}

	vol := &effects.Volume{Streamer: newVoiceStreamer(v, b.sr), Base: 2, Silent: true}
	ctrl := &beep.Ctrl{Streamer: vol, Paused: true}
	t := &beepTrack{name: v.Name, backend: b, ctrl: ctrl, vol: vol}
	t.stream = &endable{track: t}

	speaker.Lock()
	b.mixer.Add(t.stream)
	speaker.Unlock()
	return t, nil
}

// Silent implements Backend
func (b *BeepBackend) Silent() bool { return false }

// Close clears the mixer and releases the device
func (b *BeepBackend) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	speaker.Lock()
	b.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
}

// beepTrack controls one mixer input; fields are guarded by the speaker lock
type beepTrack struct {
	name    string
	backend *BeepBackend
	ctrl    *beep.Ctrl
	vol     *effects.Volume
	stream  *endable

	volume float64
	muted  bool
	closed bool
}

// endable drops the track from the mixer once closed
type endable struct {
	track *beepTrack
}

func (e *endable) Stream(samples [][2]float64) (int, bool) {
	if e.track.closed {
		return 0, false
	}
	return e.track.ctrl.Stream(samples)
}

func (e *endable) Err() error { return nil }

func (t *beepTrack) Name() string { return t.name }

func (t *beepTrack) Play() error {
	if !t.backend.allow() {
		return ErrAutoplayRejected
	}
	speaker.Lock()
	defer speaker.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.ctrl.Paused = false
	return nil
}

func (t *beepTrack) Pause() {
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
}

func (t *beepTrack) Playing() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return !t.ctrl.Paused && !t.closed
}

func (t *beepTrack) SetVolume(v float64) {
	speaker.Lock()
	t.volume = clampVolume(v)
	t.apply()
	speaker.Unlock()
}

func (t *beepTrack) Volume() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	return t.volume
}

func (t *beepTrack) SetMuted(m bool) {
	speaker.Lock()
	t.muted = m
	t.apply()
	speaker.Unlock()
}

func (t *beepTrack) Muted() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return t.muted
}

func (t *beepTrack) Close() {
	speaker.Lock()
	t.closed = true
	t.ctrl.Paused = true
	speaker.Unlock()
}

// apply maps linear volume onto the log2 volume effect; caller holds the speaker lock
func (t *beepTrack) apply() {
	gain := t.volume * t.backend.master
	if t.muted || gain <= 0 {
		t.vol.Silent = true
		t.vol.Volume = 0
		return
	}
	t.vol.Silent = false
	t.vol.Volume = math.Log2(gain)
}
