// Package clock supplies the session clock: real time shifted by an offset fixed at startup.
package clock

import (
	"log"
	"strings"
	"time"
)

// dateOnly is read as UTC midnight, the way browsers read a bare date
const dateOnly = "2006-01-02"

// simulatedLayouts are tried in order; date-time layouts without a zone are read in the
// configured location
var simulatedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	dateOnly,
}

// ParseSimulatedDate parses a simulated-date parameter
// Returns false for empty or unparsable input
func ParseSimulatedDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range simulatedLayouts {
		in := loc
		if layout == dateOnly {
			in = time.UTC
		}
		if t, err := time.ParseInLocation(layout, value, in); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// OffsetClock is the session clock
// The offset is computed once at construction and never changes
type OffsetClock struct {
	real   TimeProvider
	offset time.Duration
}

// NewOffsetClock creates a clock with a fixed offset
func NewOffsetClock(real TimeProvider, offset time.Duration) *OffsetClock {
	if real == nil {
		real = NewSystemProvider()
	}
	return &OffsetClock{real: real, offset: offset}
}

// NewSimulatedClock derives the offset from a simulated-date parameter:
// offset = simulated - realNowAtStartup, or 0 when the parameter is absent or malformed
func NewSimulatedClock(real TimeProvider, simulated string, loc *time.Location) *OffsetClock {
	if real == nil {
		real = NewSystemProvider()
	}
	if strings.TrimSpace(simulated) == "" {
		return NewOffsetClock(real, 0)
	}

	target, ok := ParseSimulatedDate(simulated, loc)
	if !ok {
		log.Printf("[clock] ignoring malformed date parameter %q", simulated)
		return NewOffsetClock(real, 0)
	}

	offset := target.Sub(real.Now())
	log.Printf("[clock] simulating %s (offset %s)", target.Format(time.RFC3339), offset)
	return NewOffsetClock(real, offset)
}

// Now returns real now plus the fixed offset
func (c *OffsetClock) Now() time.Time {
	return c.real.Now().Add(c.offset)
}

// Offset returns the fixed offset
func (c *OffsetClock) Offset() time.Duration {
	return c.offset
}

// Simulated reports whether a non-zero offset is in effect
func (c *OffsetClock) Simulated() bool {
	return c.offset != 0
}
