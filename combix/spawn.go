package combix

import "github.com/loopwire/corosrv/task"

// Store holds background Tasks nobody awaits — fire-and-forget work
// started alongside a request instead of chained onto it. It is the Go
// counterpart of the source's spawn_task/spawned_tasks vector: Add starts
// f and appends it, first scanning out and dropping whatever has already
// finished, exactly matching the source's "erase done tasks, then push
// the new one" loop instead of a free-running goroutine that nobody
// tracks or can shut down.
type Store struct {
	frames []*task.Frame
}

// Add starts f in the background and retains it until it completes.
func (s *Store) Add(f *task.Frame) {
	live := s.frames[:0]
	for _, g := range s.frames {
		if !g.Done() {
			live = append(live, g)
		}
	}
	s.frames = append(live, f)
	task.Start(f)
}

// Len reports how many background tasks are currently tracked, including
// ones that finished since the last Add (GC is lazy, on the next Add).
func (s *Store) Len() int { return len(s.frames) }

// CancelAll cancels every tracked task that has not yet completed — used
// to unwind background work when the owning event loop shuts down.
func (s *Store) CancelAll() {
	for _, f := range s.frames {
		task.Cancel(f)
	}
	s.frames = nil
}
