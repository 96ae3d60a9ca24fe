// Package phase runs a chapter's ordered narrative beats.
//
// A Table lists phases in order. Entering a phase schedules one independent timer per reveal;
// the phase's Advance decides what moves the machine forward. Transitions are one-way.
package phase

import (
	"errors"
	"fmt"
	"time"
)

// AdvanceKind is the cause that moves a phase to its successor
type AdvanceKind int

const (
	// AdvanceFinal marks the terminal phase
	AdvanceFinal AdvanceKind = iota
	// AdvanceTimer advances a fixed duration after entry
	AdvanceTimer
	// AdvanceAction advances on a named user action
	AdvanceAction
	// AdvanceSignal advances on a named signal from another component
	AdvanceSignal
)

var advanceKindNames = map[AdvanceKind]string{
	AdvanceFinal:  "final",
	AdvanceTimer:  "timer",
	AdvanceAction: "action",
	AdvanceSignal: "signal",
}

// String returns the kind name used in phase tables
func (k AdvanceKind) String() string {
	if s, ok := advanceKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseAdvanceKind parses a kind name
func ParseAdvanceKind(s string) (AdvanceKind, error) {
	for k, name := range advanceKindNames {
		if name == s {
			return k, nil
		}
	}
	return AdvanceFinal, fmt.Errorf("%w: %q", ErrUnknownAdvance, s)
}

// Reveal flips a sub-element visible Delay after its phase is entered
type Reveal struct {
	ID    string
	Delay time.Duration
}

// Advance describes how a phase ends
type Advance struct {
	Kind  AdvanceKind
	After time.Duration // AdvanceTimer
	Name  string        // AdvanceAction, AdvanceSignal
}

// Phase is one narrative beat
type Phase struct {
	Name    string
	Reveals []Reveal
	Advance Advance
	OnEnter []string // registered action names run on entry
}

// Table is the declarative phase schedule of one chapter
type Table struct {
	Name      string
	Skippable bool
	Phases    []Phase
}

// Sentinel errors
var (
	ErrEmptyPhases     = errors.New("phase table has no phases")
	ErrFinalNotLast    = errors.New("only the last phase may be final")
	ErrLastNotFinal    = errors.New("last phase must be final")
	ErrDuplicatePhase  = errors.New("duplicate phase name")
	ErrDuplicateReveal = errors.New("duplicate reveal id")
	ErrNegativeDelay   = errors.New("negative delay")
	ErrMissingName     = errors.New("advance requires a name")
	ErrUnknownAdvance  = errors.New("unknown advance kind")
	ErrUnknownAction   = errors.New("unknown entry action")
)

// Validate checks table structure
// Reveal ids are unique across the whole table so Revealed can be asked by id alone
func (t Table) Validate() error {
	if len(t.Phases) == 0 {
		return fmt.Errorf("%s: %w", t.Name, ErrEmptyPhases)
	}
	phases := make(map[string]bool, len(t.Phases))
	reveals := make(map[string]bool)
	last := len(t.Phases) - 1

	for i, p := range t.Phases {
		if p.Name == "" {
			return fmt.Errorf("%s: phase %d: %w", t.Name, i, ErrMissingName)
		}
		if phases[p.Name] {
			return fmt.Errorf("%s: %w: %s", t.Name, ErrDuplicatePhase, p.Name)
		}
		phases[p.Name] = true

		for _, r := range p.Reveals {
			if reveals[r.ID] {
				return fmt.Errorf("%s: %w: %s", t.Name, ErrDuplicateReveal, r.ID)
			}
			reveals[r.ID] = true
			if r.Delay < 0 {
				return fmt.Errorf("%s: reveal %s: %w", t.Name, r.ID, ErrNegativeDelay)
			}
		}

		switch {
		case i == last && p.Advance.Kind != AdvanceFinal:
			return fmt.Errorf("%s: %w", t.Name, ErrLastNotFinal)
		case i < last && p.Advance.Kind == AdvanceFinal:
			return fmt.Errorf("%s: phase %s: %w", t.Name, p.Name, ErrFinalNotLast)
		}

		switch p.Advance.Kind {
		case AdvanceTimer:
			if p.Advance.After < 0 {
				return fmt.Errorf("%s: phase %s: %w", t.Name, p.Name, ErrNegativeDelay)
			}
		case AdvanceAction, AdvanceSignal:
			if p.Advance.Name == "" {
				return fmt.Errorf("%s: phase %s: %w", t.Name, p.Name, ErrMissingName)
			}
		}
	}
	return nil
}

// RevealIDs returns every reveal id in table order
func (t Table) RevealIDs() []string {
	var ids []string
	for _, p := range t.Phases {
		for _, r := range p.Reveals {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Index returns the position of a named phase, -1 if absent
func (t Table) Index(name string) int {
	for i, p := range t.Phases {
		if p.Name == name {
			return i
		}
	}
	return -1
}
