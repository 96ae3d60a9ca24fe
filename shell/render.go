package shell

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/unveil/chapter"
	"github.com/lixenwraith/unveil/navigation"
	"github.com/lixenwraith/unveil/policy"
)

var (
	styleBase   = tcell.StyleDefault
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorHotPink).Bold(true)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleAccent = tcell.StyleDefault.Foreground(tcell.ColorGold)
	styleLocked = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleSelect = tcell.StyleDefault.Reverse(true)
	styleFlash  = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
)

// Marks drawn in the chapter field
const (
	glyphParticle = '·'
	glyphSource   = '+'
	glyphBody     = '●'
	glyphCursor   = '▏'
)

// drawText writes text from x and returns the column after it; clipped at the screen edge
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) int {
	w, h := s.Size()
	if y < 0 || y >= h {
		return x
	}
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x >= 0 && x+rw <= w {
			s.SetContent(x, y, r, nil, style)
		}
		x += rw
	}
	return x
}

// drawCentered writes text centered on row y
func drawCentered(s tcell.Screen, y int, style tcell.Style, text string) {
	w, _ := s.Size()
	x := (w - runewidth.StringWidth(text)) / 2
	drawText(s, x, y, style, text)
}

// Draw renders the current view; runs on the scheduler
func (a *App) Draw() {
	if a.screen == nil || !a.booted {
		return
	}
	s := a.screen
	w, h := s.Size()
	s.Clear()

	switch a.nav.State().View() {
	case navigation.ViewGate:
		a.drawGate(w, h)
	case navigation.ViewHub:
		a.drawHub(w, h)
	case navigation.ViewChapter:
		a.drawChapter(w, h)
	}
	a.drawFooter(w, h)
	s.Show()
}

func (a *App) drawGate(_, h int) {
	s := a.screen
	now := a.sampler.Current()
	schedule := a.opts.Schedule
	y := h / 3

	drawCentered(s, y, styleTitle, "Seven Chapters")
	if cd, ok := policy.NewCountdown(schedule.Start(), now); ok {
		drawCentered(s, y+2, styleBase, "Beginning on "+schedule.Start().Format("Mon, Jan 2"))
		drawCentered(s, y+4, styleAccent, cd.String())
		return
	}
	drawCentered(s, y+2, styleAccent, "It's time!")
	drawCentered(s, y+4, styleBase, "[Enter] unlock")
}

func (a *App) drawHub(w, h int) {
	q := a.stage.Question()
	if !q.Accepted() {
		a.drawQuestion(w, h)
		return
	}

	s := a.screen
	now := a.sampler.Current()
	schedule := a.opts.Schedule

	y := 1
	if day := schedule.DayNumber(now); day > 0 {
		drawCentered(s, y, styleDim, fmt.Sprintf("%s day", humanize.Ordinal(day)))
	}
	y += 2
	for _, line := range a.stage.Intro().View().Lines {
		drawCentered(s, y, styleBase, line)
		y++
	}

	ids := a.opts.Catalog.IDs()
	y = h - len(ids) - 4
	if y < 1 {
		y = 1
	}
	for i, id := range ids {
		style := styleBase
		status := "open"
		if !schedule.IsChapterUnlocked(id, now) {
			style = styleLocked
			status = "locked"
			if at, err := schedule.UnlockTime(id); err == nil && at.After(now) {
				status = "unlocks " + humanize.RelTime(at, now, "ago", "from now")
				if short := policy.ShortUntil(at, now); short != "" {
					status += " (" + short + ")"
				}
			}
		}
		row := fmt.Sprintf(" %d  %-10s  %s ", id, a.opts.Catalog.Title(id), status)
		if i == a.selected {
			style = styleSelect
		}
		drawText(s, 2, y+i, style, row)
	}
}

func (a *App) drawQuestion(w, h int) {
	s := a.screen
	q := a.stage.Question()
	y := h / 3

	l1, l2 := q.Text()
	if q.Typing() {
		if l2 == "" {
			l1 += string(glyphCursor)
		} else {
			l2 += string(glyphCursor)
		}
	}
	drawCentered(s, y, styleBase, l1)
	drawCentered(s, y+1, styleTitle, l2)
	if !q.AnswersVisible() {
		return
	}

	// Yes grows with padding, no drifts by its dodge offset in tenths of a column
	pad := strings.Repeat(" ", int((q.YesScale()-1)*4))
	yes := "[y]" + pad + "Yes" + pad
	x := w/2 - runewidth.StringWidth(yes) - 2
	drawText(s, x, y+4, styleAccent.Bold(q.YesScale() > 1), yes)
	if q.NoVisible() {
		off := q.NoOffset()
		drawText(s, w/2+2+int(off.X/10), y+4+int(off.Y/40), styleDim, "[n] No")
	}
	if hint := q.Hint(); hint != "" {
		drawCentered(s, y+7, styleDim, hint)
	}
}

// chapterTop is the first row below the chapter title
const chapterTop = 3

// fieldRect is the screen rectangle percent-space marks are drawn into
// Pointer input maps back through the same rectangle
func fieldRect(w, h, lines int) (x0, y0, fw, fh int) {
	return 2, chapterTop + 2, w - 4, h - chapterTop - lines - 8
}

func (a *App) drawChapter(w, h int) {
	s := a.screen
	cur := a.stage.Current()
	if cur == nil {
		drawCentered(s, h/3, styleDim, "Nothing to show here.")
		return
	}
	v := cur.View()
	if v.Flash {
		s.Fill(' ', styleFlash)
	}

	drawText(s, 2, 1, styleTitle, fmt.Sprintf("%s. %s", cur.ID(), v.Title))
	drawText(s, w-len(v.Phase)-2, 1, styleDim, v.Phase)

	top := chapterTop
	if v.Meter {
		a.drawMeter(w, top, v.Progress)
		x0, y0, fw, fh := fieldRect(w, h, len(v.Lines))
		a.drawField(v.Marks, x0, y0, fw, fh)
		top = h - len(v.Lines) - 5
	}
	for i, line := range v.Lines {
		drawCentered(s, top+i, styleBase, line)
	}

	var keys []string
	if v.Action != "" {
		keys = append(keys, "[space] "+v.Action)
	}
	if v.Skippable {
		keys = append(keys, "[s] skip")
	}
	if v.Hint != "" {
		drawCentered(s, h-4, styleAccent, v.Hint)
	}
	if len(keys) > 0 {
		drawCentered(s, h-3, styleDim, strings.Join(keys, "   "))
	}
}

func (a *App) drawMeter(w, y int, progress float64) {
	width := w - 12
	if width < 10 {
		return
	}
	filled := int(progress / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	drawText(a.screen, 2, y, styleAccent, bar)
	drawText(a.screen, width+4, y, styleDim, fmt.Sprintf("%3.0f%%", progress))
}

func (a *App) drawField(marks []chapter.Mark, x0, y0, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	for _, m := range marks {
		x, y := Cell(m.Pos.X, m.Pos.Y, w, h)
		glyph, style := glyphParticle, styleDim
		switch m.Kind {
		case chapter.MarkSource:
			glyph, style = glyphSource, styleAccent
		case chapter.MarkBody:
			glyph, style = glyphBody, styleTitle
		}
		a.screen.SetContent(x0+x, y0+y, glyph, nil, style)
	}
}

func (a *App) drawFooter(w, h int) {
	s := a.screen
	drawText(s, 1, h-1, styleDim, a.history.Current().String())

	state := "♪"
	if a.coord.Muted() {
		state = "muted"
	} else if a.background == nil || !a.background.Playing() {
		state = "·"
	}
	drawText(s, w-runewidth.StringWidth(state)-1, h-1, styleDim, state)

	help := "[q] quit  [m] mute"
	switch a.nav.State().View() {
	case navigation.ViewHub:
		help += "  [1-7] open  [Enter] select"
	case navigation.ViewChapter:
		help += "  [b] back  [arrows] move"
	}
	drawText(s, 1, h-2, styleDim, help)
}
