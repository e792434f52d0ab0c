// Package timer implements the earliest-deadline-first timed scheduler:
// the Go counterpart of the source's TimedScheduler, which keeps a
// std::multimap<TimePoint, handle> and, each run(), splices out and
// resumes every coroutine whose deadline has passed before touching any
// newer registration. container/heap gives the same ordering property
// with amortized O(log n) insert/extract instead of a multimap, with
// insertion sequence as an explicit tiebreaker so two timers armed for
// the same instant fire in registration order.
package timer

import (
	"container/heap"
	"time"

	"github.com/loopwire/corosrv/task"
)

// Clock abstracts time.Now so scheduling order can be driven
// deterministically in tests.
type Clock func() time.Time

type entry struct {
	deadline time.Time
	seq      uint64
	deliver  func()
	index    int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is an ordered set of pending timer registrations, earliest
// deadline first, tie-broken by registration order.
type Scheduler struct {
	clock   Clock
	nextSeq uint64
	h       entryHeap
}

// NewScheduler returns an empty Scheduler driven by clock. A nil clock
// defaults to time.Now.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's current time per its Clock.
func (s *Scheduler) Now() time.Time { return s.clock() }

// Len reports the number of still-armed registrations.
func (s *Scheduler) Len() int { return s.h.Len() }

// NextDeadline returns the earliest pending deadline, if any — the value
// an event loop feeds to the I/O reactor as its poll timeout.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	if s.h.Len() == 0 {
		return time.Time{}, false
	}
	return s.h[0].deadline, true
}

// Until returns how long remains until deadline per this Scheduler's own
// Clock, floored at zero. An event loop uses this instead of time.Until
// so a fake clock in tests drives poll timeouts the same way it drives
// firing order.
func (s *Scheduler) Until(deadline time.Time) time.Duration {
	d := deadline.Sub(s.clock())
	if d < 0 {
		return 0
	}
	return d
}

// schedule arms deliver to run at deadline, returning a handle Cancel can
// later retract.
func (s *Scheduler) schedule(deadline time.Time, deliver func()) *entry {
	e := &entry{deadline: deadline, seq: s.nextSeq, deliver: deliver}
	s.nextSeq++
	heap.Push(&s.h, e)
	return e
}

// cancel retracts a registration that has not yet fired. Canceling an
// already-fired or already-canceled entry is a no-op.
func (s *Scheduler) cancel(e *entry) {
	if e.index < 0 {
		return
	}
	heap.Remove(&s.h, e.index)
}

// Drain extracts every registration whose deadline has passed (per the
// scheduler's Clock at the moment Drain is called) and pushes its
// delivery into rq, in deadline order, before any of them run — mirroring
// the source's "splice out everything ready, then resume" structure so a
// delivery that arms a new, already-due timer cannot reenter this pass.
func (s *Scheduler) Drain(rq *task.ReadyQueue) {
	now := s.clock()
	for s.h.Len() > 0 && !s.h[0].deadline.After(now) {
		e := heap.Pop(&s.h).(*entry)
		rq.Push(e.deliver)
	}
}
