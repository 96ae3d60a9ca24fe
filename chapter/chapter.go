// Package chapter composes the phase machine, the accumulator and the audio coordinator into the
// mounted chapters and the hub's intro and question sequences.
//
// A chapter owns every timer it arms and every track it plays for exactly one mount. Unmount
// cancels and releases all of them regardless of the phase the chapter was in.
package chapter

import (
	"errors"
	"time"

	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/policy"
	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
	"github.com/lixenwraith/unveil/vmath"
)

// Sentinel errors
var (
	ErrMounted    = errors.New("chapter already mounted")
	ErrNoContent  = errors.New("no content")
	ErrNoSchedule = errors.New("no scheduler")
)

// Action names understood by every chapter in addition to its table's own actions
const (
	ActionSkip = "skip"
)

// Env is what a chapter receives on mount
type Env struct {
	Scheduler sched.Scheduler
	Audio     *audio.Coordinator // nil runs the chapter without sound
	Registry  *status.Registry
	Content   *Content
	Fast      bool
	Rand      *vmath.FastRand
	Frame     time.Duration // animation frame period, zero keeps the component default
}

// Chapter is one mountable narrative unit
type Chapter interface {
	ID() policy.ChapterID
	Title() string
	Mount(env Env) error
	Unmount()
	Mounted() bool
	Pointer(x, y float64)
	Action(name string) bool
	View() View
}

// MarkKind classifies a positioned element
type MarkKind int

const (
	MarkParticle MarkKind = iota
	MarkSource
	MarkBody
)

// Mark is an element positioned in percent space
type Mark struct {
	Kind MarkKind
	Pos  vmath.Point
	Size float64
}

// View is what the shell renders for a mounted chapter
type View struct {
	Title     string
	Phase     string
	Lines     []string
	Hint      string
	Action    string // action the current phase waits on, empty when none
	Skippable bool
	Done      bool
	Flash     bool
	Meter     bool // Progress is meaningful
	Progress  float64
	Marks     []Mark
}
