// Package reactor is the I/O readiness half of the runtime: the Go
// counterpart of the source's EpollScheduler. It watches a set of file
// descriptors and, once per event-loop tick, delivers exactly the
// readiness a registered awaiter asked for.
//
// Registration lives in a plain map, not a sync.Map the way the teacher's
// epollReactor holds its callback table: that reactor is shared across a
// goroutine-per-connection pool and needs it, but every Register/Poll
// call here happens on the same single dispatcher goroutine by
// construction, so the extra synchronization would just be unexercised
// overhead.
package reactor

import (
	"errors"
	"time"

	"github.com/loopwire/corosrv/task"
)

// Interest is a bitmask of the readiness directions a registration cares
// about.
type Interest uint8

const (
	Read Interest = 1 << iota
	Write
)

// Result is the readiness snapshot delivered to an armed registration.
type Result struct {
	Readable bool
	Writable bool
	HUP      bool
}

// ErrUnsupportedPlatform is returned by Register on platforms with no
// reactor backend.
var ErrUnsupportedPlatform = errors.New("reactor: unsupported platform")

// Reactor watches file descriptors for readiness and feeds due
// deliveries into a ReadyQueue once per Poll call, the way Scheduler does
// for timers.
type Reactor interface {
	// Register arms deliver to run the next time fd becomes ready for
	// interest (or errors/hangs up). The returned teardown retracts the
	// registration; it must be called exactly once if deliver never
	// fires.
	Register(fd int, interest Interest, deliver func(Result)) (teardown func(), err error)

	// Poll blocks for up to timeout (negative meaning indefinitely) and
	// pushes every delivery that became ready into rq, in epoll_wait's
	// batch order; the caller runs rq once it is done collecting, the
	// same division of labor as Scheduler.Drain. With no live
	// registrations Poll just waits out timeout; Loop.Run relies on this
	// for timer-only runs and passes a negative timeout only while
	// HasRegistrations is true.
	Poll(rq *task.ReadyQueue, timeout time.Duration) error

	// HasRegistrations reports whether any fd is currently watched —
	// the event loop's signal that blocking in Poll can make progress
	// at all, matching the source's have_registered_events().
	HasRegistrations() bool

	Close() error
}

// New returns the platform reactor backend.
func New() (Reactor, error) {
	return newReactor()
}

// Wait returns a task.Awaiter that suspends until fd satisfies interest
// on r, or r reports a socket error/hangup while waiting.
func Wait(r Reactor, fd int, interest Interest) task.Awaiter {
	return &waitAwaiter{r: r, fd: fd, interest: interest}
}

type waitAwaiter struct {
	r        Reactor
	fd       int
	interest Interest
}

func (a *waitAwaiter) Ready() (any, error, bool) {
	return nil, nil, false
}

func (a *waitAwaiter) Arm(deliver func(val any, err error)) (func(), error) {
	teardown, err := a.r.Register(a.fd, a.interest, func(res Result) {
		deliver(res, nil)
	})
	if err != nil {
		return nil, err
	}
	return teardown, nil
}
