package task

import "github.com/eapache/queue"

// ReadyQueue buffers a batch of deliveries discovered in one dispatch pass
// — one timer Drain, one epoll_wait batch — so the scheduler that found
// them can finish classifying the whole batch before resuming anything.
// Running a delivery can re-arm the very timer heap or registration table
// the scheduler is iterating over; separating "find" from "run" keeps that
// safe without the scheduler having to reason about reentrancy itself.
//
// Backed by eapache/queue, the same ring-buffer FIFO b97tsk-async's
// Executor uses for its own ready set.
type ReadyQueue struct {
	q *queue.Queue
}

// NewReadyQueue returns an empty ReadyQueue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{q: queue.New()}
}

// Push enqueues a delivery thunk to run once Run is called.
func (r *ReadyQueue) Push(fn func()) {
	r.q.Add(fn)
}

// Len reports the number of thunks still queued.
func (r *ReadyQueue) Len() int {
	return r.q.Length()
}

// Run drains the queue in FIFO order, running each thunk. Thunks pushed by
// a thunk that is already running are picked up in the same Run call,
// preserving one-pass-per-tick semantics.
func (r *ReadyQueue) Run() {
	for r.q.Length() > 0 {
		fn := r.q.Remove().(func())
		fn()
	}
}

// Deliver returns a thunk that resumes f with val/err — the shape timer
// and reactor scheduling loops push into a ReadyQueue.
func Deliver(f *Frame, val any, err error) func() {
	return func() { resume(f, resumeMsg{val: val, err: err}) }
}
