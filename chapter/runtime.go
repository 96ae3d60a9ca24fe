package chapter

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/phase"
	"github.com/lixenwraith/unveil/policy"
	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
)

// hintID is the reveal rendered as the chapter hint instead of a body line
const hintID = "hint"

// runtime is the per-mount state shared by every chapter
type runtime struct {
	id       policy.ChapterID
	title    string
	table    string
	suppress bool // keep the background track silent while mounted

	env      Env
	timers   *sched.TimerSet // every chapter-owned timer nests under this set
	scope    *audio.Scope
	machine  *phase.Machine
	instance string

	statInstance *status.AtomicString
}

func newRuntime(id policy.ChapterID, title, table string) runtime {
	return runtime{id: id, title: title, table: table}
}

// ID returns the chapter id
func (r *runtime) ID() policy.ChapterID { return r.id }

// Title returns the chapter title
func (r *runtime) Title() string { return r.title }

// Instance returns the id of the current mount, empty when unmounted
func (r *runtime) Instance() string { return r.instance }

// Mounted reports whether the chapter is mounted
func (r *runtime) Mounted() bool {
	return r.machine != nil && !r.machine.Stopped()
}

// Machine returns the phase machine of the current or last mount
func (r *runtime) Machine() *phase.Machine { return r.machine }

// Pending returns the number of timers the chapter still owns, nested sets included
func (r *runtime) Pending() int {
	n := 0
	if r.timers != nil {
		n += r.timers.Pending()
	}
	if r.machine != nil {
		n += r.machine.Pending()
	}
	return n
}

// mount builds a fresh machine, timer set and audio scope; setup registers entry actions
func (r *runtime) mount(env Env, setup func(m *phase.Machine) error) error {
	if r.Mounted() {
		return ErrMounted
	}
	if env.Scheduler == nil {
		return ErrNoSchedule
	}
	if env.Content == nil {
		return ErrNoContent
	}
	table, err := env.Content.Table(r.table)
	if err != nil {
		return err
	}
	m, err := phase.NewMachine(table, env.Scheduler, phase.WithRegistry(env.Registry))
	if err != nil {
		return fmt.Errorf("chapter %s: %w", r.id, err)
	}

	r.env = env
	r.machine = m
	r.timers = sched.NewTimerSet(env.Scheduler)
	r.scope = nil
	if env.Audio != nil {
		r.scope = env.Audio.NewScope(r.suppress)
	}
	r.instance = uuid.NewString()
	if env.Registry != nil {
		r.statInstance = env.Registry.Strings.Get(status.KeyChapterInstance)
		r.statInstance.Store(r.instance)
	}

	if setup != nil {
		if err := setup(m); err != nil {
			r.unmount()
			return err
		}
	}
	if err := m.Start(); err != nil {
		r.unmount()
		return err
	}
	log.Printf("[chapter] mount %s (%s) instance %s", r.id, r.table, r.instance)
	return nil
}

// unmount cancels every timer and releases every track of the mount, idempotent
func (r *runtime) unmount() {
	if r.machine == nil || r.machine.Stopped() {
		return
	}
	r.machine.Stop()
	r.timers.Close()
	if r.scope != nil {
		r.scope.Close()
	}
	log.Printf("[chapter] unmount %s instance %s", r.id, r.instance)
	if r.statInstance != nil {
		r.statInstance.Store("")
	}
	r.instance = ""
}

// track creates a scope track; nil when the chapter runs without sound
func (r *runtime) track(v audio.Voice, opts audio.TrackOptions) audio.Track {
	if r.scope == nil {
		return nil
	}
	t, err := r.scope.Track(v, opts)
	if err != nil {
		log.Printf("[chapter] %s: track %s: %v", r.id, v.Name, err)
		return nil
	}
	return t
}

// action delivers skip or a table action
func (r *runtime) action(name string) bool {
	if !r.Mounted() {
		return false
	}
	if name == ActionSkip {
		return r.machine.Skip()
	}
	return r.machine.Action(name)
}

// view renders the revealed text in table order
func (r *runtime) view() View {
	v := View{Title: r.title}
	if r.machine == nil {
		return v
	}
	table := r.machine.Table()
	content := r.env.Content
	for _, p := range table.Phases {
		for _, rv := range p.Reveals {
			if !r.machine.Revealed(rv.ID) {
				continue
			}
			text := content.Text(r.table, rv.ID)
			if rv.ID == hintID {
				v.Hint = text
				continue
			}
			v.Lines = append(v.Lines, text)
		}
	}
	if cur, ok := r.machine.Current(); ok {
		v.Phase = cur.Name
		if cur.Advance.Kind == phase.AdvanceAction {
			v.Action = cur.Advance.Name
		}
	}
	v.Done = r.machine.Finished()
	v.Skippable = table.Skippable && !v.Done
	return v
}
