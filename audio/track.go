// Package audio coordinates chapter audio: owned tracks, timed linear fades, crossfades and a
// global mute flag. Playback goes through a Backend; the beep backend drives a real device and
// the silent backend keeps state only.
package audio

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrAutoplayRejected is returned when playback is refused until a user gesture is seen
	ErrAutoplayRejected = errors.New("playback requires a user gesture")
	ErrNoBackend        = errors.New("no audio backend available")
	ErrClosed           = errors.New("track closed")
)

// Track is one looped audio resource
// Volume is linear in [0,1]; a muted track keeps its volume but is inaudible
type Track interface {
	Name() string
	Play() error
	Pause()
	Playing() bool
	SetVolume(v float64)
	Volume() float64
	SetMuted(m bool)
	Muted() bool
	Close()
}

// VoiceKind selects a synthesized source
type VoiceKind int

const (
	VoicePad VoiceKind = iota
	VoiceRain
	VoiceDrone
	VoiceChime
)

// String returns the voice kind name
func (k VoiceKind) String() string {
	switch k {
	case VoicePad:
		return "pad"
	case VoiceRain:
		return "rain"
	case VoiceDrone:
		return "drone"
	case VoiceChime:
		return "chime"
	default:
		return fmt.Sprintf("voice(%d)", int(k))
	}
}

// Voice describes the source of a track
type Voice struct {
	Name string
	Kind VoiceKind
	Freq float64 // base frequency in Hz; zero uses the kind's default
}

// clampVolume limits a linear volume to [0,1]
func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
