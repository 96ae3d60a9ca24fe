package navigation

import "github.com/lixenwraith/unveil/policy"

// State is the navigation state: which chapter is mounted and whether the gate was passed
// Active NoChapter denotes the hub when entered, the gate otherwise
type State struct {
	Active     policy.ChapterID
	HasEntered bool
}

// Gate is the pre-entry view
func Gate() State { return State{} }

// Hub is the chapter list
func Hub() State { return State{HasEntered: true} }

// InChapter is the view of one chapter
func InChapter(id policy.ChapterID) State {
	return State{Active: id, HasEntered: true}
}

// View names the mounted view
type View int

const (
	ViewGate View = iota
	ViewHub
	ViewChapter
)

// String returns the view name
func (v View) String() string {
	switch v {
	case ViewGate:
		return "gate"
	case ViewHub:
		return "hub"
	case ViewChapter:
		return "chapter"
	default:
		return "unknown"
	}
}

// View returns which view the state mounts
func (s State) View() View {
	switch {
	case !s.HasEntered:
		return ViewGate
	case s.Active.Valid():
		return ViewChapter
	default:
		return ViewHub
	}
}
