package navigation

import (
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/unveil/clock"
	"github.com/lixenwraith/unveil/policy"
	"github.com/lixenwraith/unveil/status"
)

// Listener observes state changes; it runs after the address was persisted
type Listener func(prev, next State)

// Navigator owns the navigation state
// Every entry into chapter content re-validates through the schedule
type Navigator struct {
	resolver *Resolver
	clock    clock.TimeProvider
	history  History
	mode     HistoryMode

	mu    sync.RWMutex
	state State
	subs  []Listener

	statChapter    *atomic.Int64
	statEntered    *atomic.Bool
	statAddress    *status.AtomicString
	statPhase      *status.AtomicString
	statRejections *atomic.Int64
}

// NewNavigator resolves the initial state from the history's current address and normalizes
// the address in place (a refused deep link is removed from it)
func NewNavigator(resolver *Resolver, c clock.TimeProvider, h History, mode HistoryMode, reg *status.Registry) *Navigator {
	n := &Navigator{
		resolver: resolver,
		clock:    c,
		history:  h,
		mode:     mode,
	}
	if reg != nil {
		n.statChapter = reg.Ints.Get(status.KeyNavChapter)
		n.statEntered = reg.Bools.Get(status.KeyNavEntered)
		n.statAddress = reg.Strings.Get(status.KeyNavAddress)
		n.statPhase = reg.Strings.Get(status.KeyEventPhase)
		n.statRejections = reg.Ints.Get(status.KeyPolicyRejections)
	}

	params := ParseParams(h.Current())
	now := c.Now()
	n.state = resolver.ResolveInitialState(params, now)
	if params.HasChapter() && n.state.Active != params.Chapter {
		n.reject()
	}

	h.Replace(WithChapter(h.Current(), n.state.Active))
	n.publish(now)
	return n
}

// State returns the current state
func (n *Navigator) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Subscribe registers a state change listener
func (n *Navigator) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	n.subs = append(n.subs, fn)
	n.mu.Unlock()
}

// Enter leaves the gate for the hub; refused before the event starts
func (n *Navigator) Enter() bool {
	now := n.clock.Now()
	if n.resolver.Schedule().EventPhase(now) == policy.PreEvent {
		log.Printf("[navigation] enter refused before event start")
		n.reject()
		return false
	}
	cur := n.State()
	if cur.HasEntered {
		return true
	}
	n.transition(Hub(), now)
	return true
}

// Open mounts a chapter; refused without any state change when the chapter is locked at the
// current clock time or the gate was not passed
func (n *Navigator) Open(id policy.ChapterID) bool {
	now := n.clock.Now()
	cur := n.State()
	if !cur.HasEntered {
		log.Printf("[navigation] open chapter %d refused at gate", id)
		n.reject()
		return false
	}
	if !n.resolver.Schedule().IsChapterUnlocked(id, now) {
		log.Printf("[navigation] open locked chapter %d refused", id)
		n.reject()
		return false
	}
	if cur.Active == id {
		return true
	}
	n.transition(InChapter(id), now)
	return true
}

// Back returns from a chapter to the hub
func (n *Navigator) Back() bool {
	cur := n.State()
	if !cur.Active.Valid() {
		return false
	}
	n.transition(Hub(), n.clock.Now())
	return true
}

// Refresh republishes time-dependent observed values; driven by the clock sampler
func (n *Navigator) Refresh(now time.Time) {
	n.publish(now)
}

// Address returns the current address
func (n *Navigator) Address() *url.URL {
	return n.history.Current()
}

func (n *Navigator) transition(next State, now time.Time) {
	n.mu.Lock()
	prev := n.state
	n.state = next
	subs := make([]Listener, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	n.persist(next)
	n.publish(now)
	log.Printf("[navigation] %s -> %s (chapter %d)", prev.View(), next.View(), next.Active)

	for _, fn := range subs {
		fn(prev, next)
	}
}

// persist writes the chapter id into the address, or clears it
func (n *Navigator) persist(s State) {
	u := WithChapter(n.history.Current(), s.Active)
	if n.mode == HistoryReplace {
		n.history.Replace(u)
		return
	}
	n.history.Push(u)
}

func (n *Navigator) publish(now time.Time) {
	s := n.State()
	if n.statChapter != nil {
		n.statChapter.Store(int64(s.Active))
	}
	if n.statEntered != nil {
		n.statEntered.Store(s.HasEntered)
	}
	if n.statAddress != nil {
		n.statAddress.Store(n.history.Current().String())
	}
	if n.statPhase != nil {
		n.statPhase.Store(n.resolver.Schedule().EventPhase(now).String())
	}
}

func (n *Navigator) reject() {
	if n.statRejections != nil {
		n.statRejections.Add(1)
	}
}
