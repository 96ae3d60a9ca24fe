// Package status holds the read-only observed values the presentation shell renders from.
// Components write through cached pointers; the shell only reads.
package status

import (
	"fmt"
	"sync/atomic"
)

// Well-known keys
const (
	KeyNavChapter          = "nav.chapter"
	KeyNavEntered          = "nav.entered"
	KeyNavAddress          = "nav.address"
	KeyEventPhase          = "event.phase"
	KeyClockNow            = "clock.now"
	KeyAudioMuted          = "audio.muted"
	KeyAudioSilent         = "audio.silent"
	KeyChapterPhase        = "chapter.phase"
	KeyChapterInstance     = "chapter.instance"
	KeyAccumulatorProgress = "accumulator.progress"
	KeyAccumulatorPeak     = "accumulator.peak"
	KeyAccumulatorPhase    = "accumulator.phase"
	KeyAccumulatorLive     = "accumulator.particles"
	KeyPolicyRejections    = "policy.rejections"
)

// Registry is the central observed-value facade
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns total values across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Snapshot renders every value as a string keyed by name, for debug overlays and tests
func (r *Registry) Snapshot() map[string]string {
	out := make(map[string]string, r.TotalCount())
	r.Bools.Range(func(k string, v *atomic.Bool) { out[k] = fmt.Sprintf("%t", v.Load()) })
	r.Ints.Range(func(k string, v *atomic.Int64) { out[k] = fmt.Sprintf("%d", v.Load()) })
	r.Floats.Range(func(k string, v *AtomicFloat) { out[k] = fmt.Sprintf("%.2f", v.Get()) })
	r.Strings.Range(func(k string, v *AtomicString) { out[k] = v.Load() })
	return out
}
