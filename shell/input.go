package shell

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/unveil/policy"
)

// Command is a user intent decoded from a key
type Command int

const (
	CmdNone Command = iota
	CmdQuit
	CmdEnter
	CmdOpen
	CmdBack
	CmdMute
	CmdSkip
	CmdAction
	CmdYes
	CmdNo
	CmdUp
	CmdDown
	CmdLeft
	CmdRight
)

// Intent is a decoded key: a command and, for CmdOpen, the chapter it names
type Intent struct {
	Cmd     Command
	Chapter policy.ChapterID
}

// Translate maps a key event to an intent
func Translate(ev *tcell.EventKey) Intent {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return Intent{Cmd: CmdQuit}
	case tcell.KeyEnter:
		return Intent{Cmd: CmdEnter}
	case tcell.KeyEscape, tcell.KeyBackspace, tcell.KeyBackspace2:
		return Intent{Cmd: CmdBack}
	case tcell.KeyUp:
		return Intent{Cmd: CmdUp}
	case tcell.KeyDown:
		return Intent{Cmd: CmdDown}
	case tcell.KeyLeft:
		return Intent{Cmd: CmdLeft}
	case tcell.KeyRight:
		return Intent{Cmd: CmdRight}
	case tcell.KeyRune:
	default:
		return Intent{}
	}

	r := ev.Rune()
	switch {
	case r >= '1' && r <= '9':
		return Intent{Cmd: CmdOpen, Chapter: policy.ChapterID(r - '0')}
	}
	switch r {
	case 'q':
		return Intent{Cmd: CmdQuit}
	case 'b':
		return Intent{Cmd: CmdBack}
	case 'm':
		return Intent{Cmd: CmdMute}
	case 's':
		return Intent{Cmd: CmdSkip}
	case ' ', 'l':
		return Intent{Cmd: CmdAction}
	case 'y':
		return Intent{Cmd: CmdYes}
	case 'n':
		return Intent{Cmd: CmdNo}
	case 'k':
		return Intent{Cmd: CmdUp}
	case 'j':
		return Intent{Cmd: CmdDown}
	}
	return Intent{}
}

// Percent maps a cell to percent space, 0 at the first cell and 100 at the last
func Percent(x, y, w, h int) (float64, float64) {
	return axisPercent(x, w), axisPercent(y, h)
}

func axisPercent(v, size int) float64 {
	if size <= 1 {
		return 50
	}
	if v < 0 {
		v = 0
	}
	if v > size-1 {
		v = size - 1
	}
	return float64(v) * 100 / float64(size-1)
}

// Cell maps a percent coordinate back to a cell inside a w by h area
func Cell(px, py float64, w, h int) (int, int) {
	return axisCell(px, w), axisCell(py, h)
}

func axisCell(p float64, size int) int {
	if size <= 1 {
		return 0
	}
	c := int(p*float64(size-1)/100 + 0.5)
	if c < 0 {
		return 0
	}
	if c > size-1 {
		return size - 1
	}
	return c
}
