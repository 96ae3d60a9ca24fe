package audio

import (
	"sync"
	"sync/atomic"
)

// Backend creates tracks on an output device
type Backend interface {
	NewTrack(v Voice) (Track, error)
	// Gesture records a user gesture; playback may be refused before the first one
	Gesture()
	Silent() bool
	Close()
}

// gestureGate models the environment's autoplay policy
type gestureGate struct {
	require bool
	seen    atomic.Bool
}

func (g *gestureGate) allow() bool {
	return !g.require || g.seen.Load()
}

func (g *gestureGate) Gesture() {
	g.seen.Store(true)
}

// SilentBackend keeps track state without producing sound
type SilentBackend struct {
	gestureGate
}

// NewSilentBackend creates a state-only backend
// With requireGesture, Play fails with ErrAutoplayRejected until Gesture is called
func NewSilentBackend(requireGesture bool) *SilentBackend {
	return &SilentBackend{gestureGate: gestureGate{require: requireGesture}}
}

// NewTrack creates a state-only track
func (b *SilentBackend) NewTrack(v Voice) (Track, error) {
	return &SilentTrack{name: v.Name, gate: &b.gestureGate}, nil
}

// Silent implements Backend
func (b *SilentBackend) Silent() bool { return true }

// Close implements Backend
func (b *SilentBackend) Close() {}

// SilentTrack is a track with state and no output
type SilentTrack struct {
	name string
	gate *gestureGate

	mu      sync.Mutex
	playing bool
	volume  float64
	muted   bool
	closed  bool
	plays   int
}

// Name implements Track
func (t *SilentTrack) Name() string { return t.name }

// Play implements Track
func (t *SilentTrack) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if !t.gate.allow() {
		return ErrAutoplayRejected
	}
	if !t.playing {
		t.plays++
	}
	t.playing = true
	return nil
}

// Pause implements Track
func (t *SilentTrack) Pause() {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
}

// Playing implements Track
func (t *SilentTrack) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// SetVolume implements Track
func (t *SilentTrack) SetVolume(v float64) {
	t.mu.Lock()
	t.volume = clampVolume(v)
	t.mu.Unlock()
}

// Volume implements Track
func (t *SilentTrack) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// SetMuted implements Track
func (t *SilentTrack) SetMuted(m bool) {
	t.mu.Lock()
	t.muted = m
	t.mu.Unlock()
}

// Muted implements Track
func (t *SilentTrack) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// Close implements Track
func (t *SilentTrack) Close() {
	t.mu.Lock()
	t.closed = true
	t.playing = false
	t.mu.Unlock()
}

// Closed reports whether Close was called
func (t *SilentTrack) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Plays returns how many times playback started from a paused state
func (t *SilentTrack) Plays() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plays
}
