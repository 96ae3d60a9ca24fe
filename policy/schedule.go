// Package policy is the single source of truth for time-gated access.
// Every entry point into chapter content re-validates through Schedule;
// UI affordances may mirror it but never replace it.
package policy

import (
	"fmt"
	"sort"
	"time"
)

// Schedule holds one unlock rule per chapter and the event window
// Precondition (checked by Validate, never relied on by lookups): unlock instants
// are non-decreasing in chapter id
type Schedule struct {
	start time.Time
	end   time.Time
	rules []UnlockRule
	byID  map[ChapterID]UnlockRule
}

// NewSchedule creates a schedule; rules are ordered by chapter id
// A later rule for an already-seen chapter replaces the earlier one
func NewSchedule(start, end time.Time, rules []UnlockRule) *Schedule {
	s := &Schedule{
		start: start,
		end:   end,
		byID:  make(map[ChapterID]UnlockRule, len(rules)),
	}
	for _, r := range rules {
		if !r.Chapter.Valid() {
			continue
		}
		s.byID[r.Chapter] = r
	}
	s.rules = make([]UnlockRule, 0, len(s.byID))
	for _, r := range s.byID {
		s.rules = append(s.rules, r)
	}
	sort.Slice(s.rules, func(i, j int) bool { return s.rules[i].Chapter < s.rules[j].Chapter })
	return s
}

// Validate checks the documented preconditions
func (s *Schedule) Validate() error {
	if s.end.Before(s.start) {
		return fmt.Errorf("%w: start %s, end %s", ErrEventWindow, s.start.Format(time.RFC3339), s.end.Format(time.RFC3339))
	}
	for i := 1; i < len(s.rules); i++ {
		prev, cur := s.rules[i-1], s.rules[i]
		if cur.At.Before(prev.At) {
			return fmt.Errorf("%w: chapter %d at %s before chapter %d at %s",
				ErrNonMonotonic, cur.Chapter, cur.At.Format(time.RFC3339), prev.Chapter, prev.At.Format(time.RFC3339))
		}
	}
	return nil
}

// IsChapterUnlocked reports whether now is at or after the chapter's unlock instant
// Chapters without a rule are always locked
func (s *Schedule) IsChapterUnlocked(id ChapterID, now time.Time) bool {
	r, ok := s.byID[id]
	if !ok {
		return false
	}
	return !now.Before(r.At)
}

// EventPhase places now relative to the event window; start inclusive, end exclusive
func (s *Schedule) EventPhase(now time.Time) EventPhase {
	switch {
	case now.Before(s.start):
		return PreEvent
	case now.Before(s.end):
		return Active
	default:
		return Over
	}
}

// Start returns the event start instant
func (s *Schedule) Start() time.Time { return s.start }

// End returns the event end instant
func (s *Schedule) End() time.Time { return s.end }

// UnlockTime returns the unlock instant of a chapter
func (s *Schedule) UnlockTime(id ChapterID) (time.Time, error) {
	r, ok := s.byID[id]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %d", ErrUnknownChapter, id)
	}
	return r.At, nil
}

// Rule returns the rule of a chapter
func (s *Schedule) Rule(id ChapterID) (UnlockRule, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Rules returns all rules ordered by chapter id
func (s *Schedule) Rules() []UnlockRule {
	out := make([]UnlockRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Chapters returns every chapter id with a rule, ascending
func (s *Schedule) Chapters() []ChapterID {
	out := make([]ChapterID, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Chapter
	}
	return out
}

// Unlocked returns the chapters reachable at now, ascending
func (s *Schedule) Unlocked(now time.Time) []ChapterID {
	var out []ChapterID
	for _, r := range s.rules {
		if !now.Before(r.At) {
			out = append(out, r.Chapter)
		}
	}
	return out
}

// NextUnlock returns the earliest rule still locked at now
func (s *Schedule) NextUnlock(now time.Time) (UnlockRule, bool) {
	var next UnlockRule
	found := false
	for _, r := range s.rules {
		if !now.Before(r.At) {
			continue
		}
		if !found || r.At.Before(next.At) {
			next = r
			found = true
		}
	}
	return next, found
}

// TimeToStart returns the duration until event start, negative once started
func (s *Schedule) TimeToStart(now time.Time) time.Duration {
	return s.start.Sub(now)
}

// DayNumber returns whole days elapsed since event start, clamped to [0, number of chapters]
func (s *Schedule) DayNumber(now time.Time) int {
	days := int(now.Sub(s.start) / (24 * time.Hour))
	if now.Before(s.start) {
		days = 0
	}
	if days > len(s.rules) {
		days = len(s.rules)
	}
	return days
}
