package policy

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/unveil/clock"
)

func at(day, hour int) time.Time {
	return time.Date(2026, 2, day, hour, 0, 0, 0, time.UTC)
}

func TestUnlockIsInclusiveStepFunction(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	for _, id := range s.Chapters() {
		unlock, err := s.UnlockTime(id)
		if err != nil {
			t.Fatalf("UnlockTime(%d): %v", id, err)
		}
		probes := []struct {
			at   time.Time
			want bool
		}{
			{unlock.Add(-24 * time.Hour), false},
			{unlock.Add(-time.Nanosecond), false},
			{unlock.Add(-time.Millisecond), false},
			{unlock, true},
			{unlock.Add(time.Millisecond), true},
			{unlock.Add(30 * 24 * time.Hour), true},
		}
		for _, p := range probes {
			if got := s.IsChapterUnlocked(id, p.at); got != p.want {
				t.Errorf("Chapter %d at %v: expected %v, got %v", id, p.at.Sub(unlock), p.want, got)
			}
		}
	}
}

func TestChapterWithoutRuleAlwaysLocked(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	far := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []ChapterID{0, -1, 8, 100} {
		if s.IsChapterUnlocked(id, far) {
			t.Errorf("Expected chapter %d locked", id)
		}
	}
	if _, err := s.UnlockTime(8); !errors.Is(err, ErrUnknownChapter) {
		t.Errorf("Expected ErrUnknownChapter, got %v", err)
	}
}

func TestSimulatedClockCrossesChapterThreeBoundary(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	unlock, _ := s.UnlockTime(3)

	real := clock.NewMockTimeProvider(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	c := clock.NewSimulatedClock(real, unlock.Add(-time.Millisecond).Format(time.RFC3339Nano), time.UTC)

	if s.IsChapterUnlocked(3, c.Now()) {
		t.Error("Expected chapter 3 locked 1ms before unlock")
	}
	real.Advance(time.Millisecond)
	if !s.IsChapterUnlocked(3, c.Now()) {
		t.Error("Expected chapter 3 unlocked at unlock instant")
	}
}

func TestEventPhase(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	tests := []struct {
		now  time.Time
		want EventPhase
	}{
		{at(6, 23), PreEvent},
		{at(7, 0).Add(-time.Nanosecond), PreEvent},
		{at(7, 0), Active},
		{at(14, 23), Active},
		{at(15, 0), Over},
		{at(20, 0), Over},
	}
	for _, tt := range tests {
		if got := s.EventPhase(tt.now); got != tt.want {
			t.Errorf("EventPhase(%v): expected %v, got %v", tt.now, tt.want, got)
		}
	}
}

func TestValidateDetectsNonMonotonicRules(t *testing.T) {
	s := NewSchedule(at(7, 0), at(15, 0), []UnlockRule{
		{Chapter: 1, At: at(8, 0)},
		{Chapter: 2, At: at(10, 0)},
		{Chapter: 3, At: at(9, 0)},
	})
	if err := s.Validate(); !errors.Is(err, ErrNonMonotonic) {
		t.Errorf("Expected ErrNonMonotonic, got %v", err)
	}
	// Lookups still answer per rule
	if !s.IsChapterUnlocked(3, at(9, 0)) {
		t.Error("Expected chapter 3 unlocked at its own instant")
	}
	if s.IsChapterUnlocked(2, at(9, 0)) {
		t.Error("Expected chapter 2 locked before its instant")
	}

	bad := NewSchedule(at(15, 0), at(7, 0), nil)
	if err := bad.Validate(); !errors.Is(err, ErrEventWindow) {
		t.Errorf("Expected ErrEventWindow, got %v", err)
	}
}

func TestUnlockedAndNextUnlock(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	now := at(10, 12)

	got := s.Unlocked(now)
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Expected chapters 1..3 unlocked, got %v", got)
	}

	next, ok := s.NextUnlock(now)
	if !ok || next.Chapter != 4 {
		t.Errorf("Expected next unlock chapter 4, got %v (ok=%v)", next.Chapter, ok)
	}
	if _, ok := s.NextUnlock(at(20, 0)); ok {
		t.Error("Expected no next unlock after all chapters")
	}
}

func TestDayNumber(t *testing.T) {
	s := DefaultSchedule(time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{at(1, 0), 0},
		{at(7, 5), 0},
		{at(8, 0), 1},
		{at(10, 23), 3},
		{at(28, 0), 7},
	}
	for _, tt := range tests {
		if got := s.DayNumber(tt.now); got != tt.want {
			t.Errorf("DayNumber(%v): expected %d, got %d", tt.now, tt.want, got)
		}
	}
}

func TestParseChapterID(t *testing.T) {
	tests := []struct {
		in   string
		want ChapterID
		ok   bool
	}{
		{"3", 3, true},
		{" 7 ", 7, true},
		{"0", NoChapter, false},
		{"-2", NoChapter, false},
		{"abc", NoChapter, false},
		{"3.5", NoChapter, false},
		{"", NoChapter, false},
	}
	for _, tt := range tests {
		got, ok := ParseChapterID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseChapterID(%q): expected (%d,%v), got (%d,%v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}

func TestParseScheduleErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad start", "start: nope\nend: 2026-02-15\n", "start"},
		{"bad unlock", "start: 2026-02-07\nend: 2026-02-15\nchapters:\n  - id: 1\n    unlock: soon\n", "chapter 1 unlock"},
		{"duplicate", "start: 2026-02-07\nend: 2026-02-15\nchapters:\n  - id: 1\n    unlock: 2026-02-08\n  - id: 1\n    unlock: 2026-02-09\n", "more than one"},
		{"zero id", "start: 2026-02-07\nend: 2026-02-15\nchapters:\n  - id: 0\n    unlock: 2026-02-08\n", "positive"},
		{"non monotonic", "start: 2026-02-07\nend: 2026-02-15\nchapters:\n  - id: 1\n    unlock: 2026-02-09\n  - id: 2\n    unlock: 2026-02-08\n", "decrease"},
		{"malformed yaml", "start: [", "decode"},
	}
	for _, tt := range tests {
		_, err := ParseSchedule([]byte(tt.yaml), time.UTC)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoadScheduleUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	s, err := LoadSchedule(strings.NewReader("start: 2026-02-07\nend: 2026-02-15\nchapters:\n  - id: 1\n    title: One\n    unlock: 2026-02-08T06:00\n"), loc)
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	unlock, _ := s.UnlockTime(1)
	want := time.Date(2026, 2, 8, 6, 0, 0, 0, loc)
	if !unlock.Equal(want) {
		t.Errorf("Expected %v, got %v", want, unlock)
	}
	if r, _ := s.Rule(1); r.Title != "One" {
		t.Errorf("Expected title One, got %q", r.Title)
	}
}
