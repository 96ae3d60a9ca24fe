package navigation

import (
	"log"
	"time"

	"github.com/lixenwraith/unveil/policy"
)

// Resolver maps address parameters and the current time to an initial state
type Resolver struct {
	schedule *policy.Schedule
}

// NewResolver creates a resolver over a schedule
func NewResolver(schedule *policy.Schedule) *Resolver {
	return &Resolver{schedule: schedule}
}

// ResolveInitialState opens a requested chapter directly when it is unlocked at now,
// otherwise falls back to the gate or hub by event phase
// A requested but locked chapter is a policy rejection and is logged
func (r *Resolver) ResolveInitialState(p Params, now time.Time) State {
	if p.HasChapter() {
		if r.schedule.IsChapterUnlocked(p.Chapter, now) {
			return InChapter(p.Chapter)
		}
		log.Printf("[navigation] deep link to locked chapter %d refused", p.Chapter)
	}
	return r.Fallback(now)
}

// Fallback returns the state shown without a usable deep link
func (r *Resolver) Fallback(now time.Time) State {
	if r.schedule.EventPhase(now) == policy.Over {
		return Hub()
	}
	return Gate()
}

// Schedule returns the policy the resolver validates against
func (r *Resolver) Schedule() *policy.Schedule {
	return r.schedule
}
