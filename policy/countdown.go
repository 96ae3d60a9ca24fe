package policy

import (
	"fmt"
	"time"
)

// Countdown is the days/hours/minutes/seconds breakdown of a remaining duration
type Countdown struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// NewCountdown breaks target-now into units; ok is false once target is reached
func NewCountdown(target, now time.Time) (Countdown, bool) {
	d := target.Sub(now)
	if d <= 0 {
		return Countdown{}, false
	}
	total := int64(d / time.Second)
	return Countdown{
		Days:    int(total / 86400),
		Hours:   int(total / 3600 % 24),
		Minutes: int(total / 60 % 60),
		Seconds: int(total % 60),
	}, true
}

// String renders the countdown with two-digit units
func (c Countdown) String() string {
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}

// ShortUntil renders the compact "time left" label used for upcoming chapters:
// "Hh Mm", or "Mm Ss" within the final hour; empty once target is reached
func ShortUntil(target, now time.Time) string {
	d := target.Sub(now)
	if d <= 0 {
		return ""
	}
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	if hours == 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
