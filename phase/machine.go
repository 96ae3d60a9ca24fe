package phase

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
)

// ActionFunc is a side effect run on phase entry
type ActionFunc func()

// Transition describes one phase change
type Transition struct {
	From    int // -1 on start
	To      int
	Phase   Phase
	Skipped bool
}

// Option configures a Machine
type Option func(*Machine)

// WithRegistry publishes the current phase name under status.KeyChapterPhase
func WithRegistry(reg *status.Registry) Option {
	return func(m *Machine) {
		if reg != nil {
			m.statPhase = reg.Strings.Get(status.KeyChapterPhase)
		}
	}
}

// Machine is the runtime of one Table for one chapter instance
// All methods must be called from the scheduler's callback context
type Machine struct {
	table     Table
	scheduler sched.Scheduler

	// Timers of the current phase; replaced on every transition
	timers *sched.TimerSet

	index     int
	enteredAt time.Time
	started   bool
	stopped   bool
	revealed  map[string]bool

	actions  map[string]ActionFunc
	onEnter  []func(Transition)
	onReveal []func(id string)

	statPhase *status.AtomicString
}

// NewMachine validates the table and creates an idle machine
func NewMachine(table Table, s sched.Scheduler, opts ...Option) (*Machine, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	m := &Machine{
		table:     table,
		scheduler: s,
		index:     -1,
		revealed:  make(map[string]bool),
		actions:   make(map[string]ActionFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RegisterAction binds an entry action name used by the table
func (m *Machine) RegisterAction(name string, fn ActionFunc) {
	m.actions[name] = fn
}

// OnEnter registers a listener run after every phase entry
func (m *Machine) OnEnter(fn func(Transition)) {
	if fn != nil {
		m.onEnter = append(m.onEnter, fn)
	}
}

// OnReveal registers a listener run when a sub-element becomes visible
func (m *Machine) OnReveal(fn func(id string)) {
	if fn != nil {
		m.onReveal = append(m.onReveal, fn)
	}
}

// Start enters the first phase
// Fails if an entry action named by the table is not registered
func (m *Machine) Start() error {
	if m.started {
		return nil
	}
	for _, p := range m.table.Phases {
		for _, name := range p.OnEnter {
			if _, ok := m.actions[name]; !ok {
				return fmt.Errorf("%s: phase %s: %w: %s", m.table.Name, p.Name, ErrUnknownAction, name)
			}
		}
	}
	m.started = true
	m.enter(0, false)
	return nil
}

// Action delivers a named user action; returns true if it advanced the machine
func (m *Machine) Action(name string) bool {
	return m.trigger(AdvanceAction, name)
}

// Signal delivers a named external signal; returns true if it advanced the machine
func (m *Machine) Signal(name string) bool {
	return m.trigger(AdvanceSignal, name)
}

func (m *Machine) trigger(kind AdvanceKind, name string) bool {
	if !m.live() {
		return false
	}
	adv := m.table.Phases[m.index].Advance
	if adv.Kind != kind || adv.Name != name {
		return false
	}
	m.enter(m.index+1, false)
	return true
}

// Skip jumps to the final phase with every reveal of every phase visible and no timer pending
// On the final phase it only flushes the remaining reveals
// Returns false when the table is not skippable or the machine already finished
func (m *Machine) Skip() bool {
	if !m.table.Skippable || !m.live() || m.Finished() {
		return false
	}
	m.timers.Close()
	for _, id := range m.table.RevealIDs() {
		m.reveal(id)
	}
	if !m.Done() {
		m.enter(len(m.table.Phases)-1, true)
	}
	return true
}

// Stop cancels every pending timer; state is kept for reading but never mutates again
func (m *Machine) Stop() {
	if m.stopped {
		return
	}
	m.stopped = true
	if m.timers != nil {
		m.timers.Close()
	}
}

// Index returns the current phase index, -1 before Start
func (m *Machine) Index() int {
	return m.index
}

// Current returns the current phase; false before Start
func (m *Machine) Current() (Phase, bool) {
	if m.index < 0 {
		return Phase{}, false
	}
	return m.table.Phases[m.index], true
}

// Is reports whether the current phase has the given name
func (m *Machine) Is(name string) bool {
	p, ok := m.Current()
	return ok && p.Name == name
}

// Revealed reports whether a sub-element is visible
func (m *Machine) Revealed(id string) bool {
	return m.revealed[id]
}

// Done reports whether the final phase was reached
func (m *Machine) Done() bool {
	return m.index == len(m.table.Phases)-1
}

// Finished reports whether the final phase was reached and none of its reveals is pending
func (m *Machine) Finished() bool {
	return m.Done() && m.Pending() == 0
}

// Stopped reports whether Stop was called
func (m *Machine) Stopped() bool {
	return m.stopped
}

// Pending returns the number of timers that can still fire
func (m *Machine) Pending() int {
	if m.timers == nil {
		return 0
	}
	return m.timers.Pending()
}

// InPhase returns the time spent in the current phase
func (m *Machine) InPhase() time.Duration {
	if m.index < 0 {
		return 0
	}
	return m.scheduler.Now().Sub(m.enteredAt)
}

// Table returns the machine's table
func (m *Machine) Table() Table {
	return m.table
}

func (m *Machine) live() bool {
	return m.started && !m.stopped
}

// enter cancels the previous phase's timers and schedules the new phase's reveals and advance
func (m *Machine) enter(to int, skipped bool) {
	from := m.index
	if m.timers != nil {
		m.timers.Close()
	}
	m.timers = sched.NewTimerSet(m.scheduler)
	m.index = to
	m.enteredAt = m.scheduler.Now()
	p := m.table.Phases[to]

	if m.statPhase != nil {
		m.statPhase.Store(p.Name)
	}
	log.Printf("[phase] %s: enter %s", m.table.Name, p.Name)

	if !skipped {
		reveals := make([]Reveal, len(p.Reveals))
		copy(reveals, p.Reveals)
		sort.SliceStable(reveals, func(i, j int) bool { return reveals[i].Delay < reveals[j].Delay })
		for _, r := range reveals {
			if r.Delay == 0 {
				m.reveal(r.ID)
				continue
			}
			id := r.ID
			m.timers.After(r.Delay, func() { m.reveal(id) })
		}
	}

	if p.Advance.Kind == AdvanceTimer {
		next := to + 1
		m.timers.After(p.Advance.After, func() { m.enter(next, false) })
	}

	for _, name := range p.OnEnter {
		m.actions[name]()
	}
	tr := Transition{From: from, To: to, Phase: p, Skipped: skipped}
	for _, fn := range m.onEnter {
		fn(tr)
	}
}

func (m *Machine) reveal(id string) {
	if m.revealed[id] {
		return
	}
	m.revealed[id] = true
	for _, fn := range m.onReveal {
		fn(id)
	}
}
