package policy

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ChapterID identifies one narrative chapter, 1..N
type ChapterID int

// NoChapter denotes the hub/landing view
const NoChapter ChapterID = 0

// Valid reports whether the id can name a chapter
func (id ChapterID) Valid() bool {
	return id > 0
}

// String returns the decimal form used in the address
func (id ChapterID) String() string {
	return strconv.Itoa(int(id))
}

// ParseChapterID parses a positive decimal chapter id; anything else is absent
func ParseChapterID(s string) (ChapterID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoChapter, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return NoChapter, false
	}
	return ChapterID(n), true
}

// EventPhase is the whole event's position relative to its start and end instants
type EventPhase int

const (
	PreEvent EventPhase = iota
	Active
	Over
)

// String returns the phase name
func (p EventPhase) String() string {
	switch p {
	case PreEvent:
		return "pre_event"
	case Active:
		return "active"
	case Over:
		return "over"
	default:
		return "unknown"
	}
}

// UnlockRule binds a chapter to the fixed calendar instant it becomes reachable
type UnlockRule struct {
	Chapter ChapterID
	At      time.Time
	Title   string
}

// Sentinel errors
var (
	ErrNonMonotonic   = errors.New("unlock instants decrease with chapter id")
	ErrUnknownChapter = errors.New("chapter has no unlock rule")
	ErrDuplicateRule  = errors.New("chapter has more than one unlock rule")
	ErrEventWindow    = errors.New("event end precedes event start")
)
