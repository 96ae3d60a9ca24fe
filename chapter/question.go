package chapter

import (
	"math"
	"time"

	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/vmath"
)

// Question typewriter and dodge constants
const (
	QuestionStartDelay = 500 * time.Millisecond
	TypeInterval       = 50 * time.Millisecond
	LinePause          = 500 * time.Millisecond
	AnswersDelay       = 300 * time.Millisecond

	MaxDodges   = 6
	yesGrowth   = 0.15
	yesMaxScale = 2.0
	noShrink    = 0.08
	noMinScale  = 0.6
	hintDodges  = 3
)

// Default question lines
const (
	QuestionLine1 = "Before the chapters start, one small question..."
	QuestionLine2 = "Will you walk through all seven with me?"
)

var dodgeHints = []string{
	"That is not how this works.",
	"What will saying no even do?",
	"This is getting excessive.",
	"Well, it ran away. Now what?",
}

// Question types two lines one character at a time, then offers yes and a no that dodges
type Question struct {
	lines [2][]rune
	typed [2]int
	line  int

	timers   *sched.TimerSet
	rng      *vmath.FastRand
	started  bool
	answers  bool
	accepted bool

	dodges   int
	noOffset vmath.Point
	yesScale float64

	onYes []func()
}

// NewQuestion creates a question with two lines
func NewQuestion(line1, line2 string) *Question {
	return &Question{
		lines:    [2][]rune{[]rune(line1), []rune(line2)},
		yesScale: 1,
	}
}

// OnYes registers a listener run once when yes is chosen
func (q *Question) OnYes(fn func()) {
	if fn != nil {
		q.onYes = append(q.onYes, fn)
	}
}

// Start begins typing one interval after the start delay
// After Stop it resumes where the cursor stopped; an accepted question never restarts
func (q *Question) Start(s sched.Scheduler, rng *vmath.FastRand) {
	if q.accepted || (q.timers != nil && !q.timers.Closed()) {
		return
	}
	q.started = true
	q.timers = sched.NewTimerSet(s)
	if q.rng == nil {
		q.rng = rng
	}
	if q.rng == nil {
		q.rng = vmath.NewFastRand(uint64(s.Now().UnixNano()))
	}
	if !q.answers {
		q.timers.After(QuestionStartDelay+TypeInterval, q.typeNext)
	}
}

// Stop cancels pending typing; the typed text is kept
func (q *Question) Stop() {
	if q.timers != nil {
		q.timers.Close()
	}
}

// Pending returns the number of live timers
func (q *Question) Pending() int {
	if q.timers == nil {
		return 0
	}
	return q.timers.Pending()
}

func (q *Question) typeNext() {
	if q.typed[q.line] < len(q.lines[q.line]) {
		q.typed[q.line]++
		if q.typed[q.line] < len(q.lines[q.line]) {
			q.timers.After(TypeInterval, q.typeNext)
			return
		}
	}
	if q.line == 0 {
		q.timers.After(LinePause, func() {
			q.line = 1
			q.timers.After(TypeInterval, q.typeNext)
		})
		return
	}
	q.timers.After(AnswersDelay, func() { q.answers = true })
}

// Text returns the typed part of each line
func (q *Question) Text() (string, string) {
	return string(q.lines[0][:q.typed[0]]), string(q.lines[1][:q.typed[1]])
}

// Typing reports whether the cursor is still moving
func (q *Question) Typing() bool {
	return q.started && !q.answers
}

// AnswersVisible reports whether yes and no can be chosen
func (q *Question) AnswersVisible() bool { return q.answers }

// Accepted reports whether yes was chosen
func (q *Question) Accepted() bool { return q.accepted }

// Yes accepts the question; only once the answers are visible
func (q *Question) Yes() bool {
	if !q.answers || q.accepted {
		return false
	}
	q.accepted = true
	for _, fn := range q.onYes {
		fn()
	}
	return true
}

// Dodge moves the no answer away and grows yes; no disappears after MaxDodges
func (q *Question) Dodge() bool {
	if !q.answers || q.accepted || q.dodges >= MaxDodges {
		return false
	}
	q.dodges++
	q.noOffset = vmath.Point{
		X: 50 + q.rng.Float64()*150,
		Y: q.rng.Float64()*160 - 80,
	}
	q.yesScale = math.Min(q.yesScale+yesGrowth, yesMaxScale)
	return true
}

// Dodges returns how many times no has dodged
func (q *Question) Dodges() int { return q.dodges }

// NoVisible reports whether the no answer is still offered
func (q *Question) NoVisible() bool { return q.answers && q.dodges < MaxDodges }

// NoOffset returns the dodge offset of the no answer in layout units
func (q *Question) NoOffset() vmath.Point { return q.noOffset }

// NoScale shrinks with every dodge
func (q *Question) NoScale() float64 {
	return math.Max(noMinScale, 1-float64(q.dodges)*noShrink)
}

// YesScale grows with every dodge
func (q *Question) YesScale() float64 { return q.yesScale }

// Hint teases after a few dodges; empty before
func (q *Question) Hint() string {
	if q.dodges < hintDodges {
		return ""
	}
	i := q.dodges - hintDodges
	if i >= len(dodgeHints) {
		i = len(dodgeHints) - 1
	}
	return dodgeHints[i]
}
