package audio

import "time"

// Scope is the set of tracks one chapter instance owns
// Close releases all of them on every exit path, including mid-fade
type Scope struct {
	c        *Coordinator
	tracks   []Track
	suppress bool
	closed   bool
}

// NewScope opens a scope; suppressBackground keeps the background track silent while open
func (c *Coordinator) NewScope(suppressBackground bool) *Scope {
	s := &Scope{c: c, suppress: suppressBackground}
	if suppressBackground {
		c.SetSuppressBackground(true)
	}
	return s
}

// Coordinator returns the owning coordinator
func (s *Scope) Coordinator() *Coordinator {
	return s.c
}

// Track creates a track owned by the scope
func (s *Scope) Track(v Voice, opts TrackOptions) (Track, error) {
	if s.closed {
		return nil, ErrClosed
	}
	t, err := s.c.NewTrack(v, opts)
	if err != nil {
		return nil, err
	}
	s.tracks = append(s.tracks, t)
	return t, nil
}

// Play starts a scope track at volume
func (s *Scope) Play(t Track, volume float64) bool { return s.c.Play(t, volume) }

// FadeTo ramps a scope track to target
func (s *Scope) FadeTo(t Track, target float64, d time.Duration) bool {
	return s.c.FadeTo(t, target, d)
}

// FadeIn starts a scope track from zero
func (s *Scope) FadeIn(t Track, target float64, d time.Duration) bool {
	return s.c.FadeIn(t, target, d)
}

// FadeOut ramps a scope track to zero and pauses it
func (s *Scope) FadeOut(t Track, d time.Duration) bool { return s.c.FadeOut(t, d) }

// Crossfade ramps one scope track down and another up
func (s *Scope) Crossfade(from, to Track, volume float64, d time.Duration) bool {
	return s.c.Crossfade(from, to, volume, d)
}

// Muted returns the global mute flag
func (s *Scope) Muted() bool { return s.c.Muted() }

// Len returns the number of live tracks in the scope
func (s *Scope) Len() int { return len(s.tracks) }

// Close releases every scope track and lifts background suppression, idempotent
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.tracks {
		s.c.Release(t)
	}
	s.tracks = nil
	if s.suppress {
		s.c.SetSuppressBackground(false)
	}
}
