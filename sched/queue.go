package sched

import (
	"container/heap"
	"sync"
	"time"
)

// queue is a deadline-ordered timer heap shared by Loop and Manual
// Ties on deadline fire in registration order
type queue struct {
	mu    sync.Mutex
	items timerHeap
	seq   uint64
}

func (q *queue) schedule(deadline time.Time, period time.Duration, fn func()) *Timer {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	t := &Timer{
		q:        q,
		fn:       fn,
		deadline: deadline,
		period:   period,
		seq:      q.seq,
		state:    statePending,
	}
	heap.Push(&q.items, t)
	return t
}

func (q *queue) cancel(t *Timer) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch t.state {
	case statePending:
		heap.Remove(&q.items, t.index)
		t.state = stateCancelled
		return true
	case stateRunning:
		// Cancelled from inside its own callback; only periodic timers have a future to cancel
		t.state = stateCancelled
		return t.period > 0
	default:
		return false
	}
}

// popDue removes and returns the earliest timer due at or before now, marking it running
func (q *queue) popDue(now time.Time) *Timer {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || q.items[0].deadline.After(now) {
		return nil
	}
	t := heap.Pop(&q.items).(*Timer)
	t.state = stateRunning
	return t
}

// finish settles a timer after its callback returned, re-arming periodic timers
// Re-arm adds the period to the previous deadline to avoid drift; when more than
// maxBehind periods late the schedule restarts from now
func (q *queue) finish(t *Timer, now time.Time, maxBehind int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t.state != stateRunning {
		return
	}
	if t.period <= 0 {
		t.state = stateFired
		return
	}

	t.deadline = t.deadline.Add(t.period)
	if maxBehind > 0 && now.Sub(t.deadline) > time.Duration(maxBehind)*t.period {
		t.deadline = now.Add(t.period)
	}
	q.seq++
	t.seq = q.seq
	t.state = statePending
	heap.Push(&q.items, t)
}

// next returns the earliest pending deadline
func (q *queue) next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].deadline, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// clear cancels every pending timer
func (q *queue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.items {
		t.state = stateCancelled
		t.index = -1
	}
	q.items = q.items[:0]
}

// timerHeap implements heap.Interface
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
