//go:build !linux

package reactor

import (
	"time"

	"github.com/loopwire/corosrv/task"
)

// stubReactor backs platforms with no epoll. Every Register fails with
// ErrUnsupportedPlatform; an event loop built on this backend can still
// run timer-only workloads, it just never has registrations to poll.
type stubReactor struct{}

func newReactor() (Reactor, error) {
	return stubReactor{}, nil
}

func (stubReactor) Register(fd int, interest Interest, deliver func(Result)) (func(), error) {
	return nil, ErrUnsupportedPlatform
}

func (stubReactor) HasRegistrations() bool { return false }

// Poll has no fds to wait on, so it just waits out timeout itself —
// otherwise a timer-only Loop.Run on this backend would busy-loop,
// calling Poll over and over with no fd ever becoming ready to block on.
// Loop.Run never calls Poll with a negative (indefinite) timeout unless
// HasRegistrations is true, which this backend never reports, so timeout
// is always finite here in practice.
func (stubReactor) Poll(rq *task.ReadyQueue, timeout time.Duration) error {
	if timeout > 0 {
		time.Sleep(timeout)
	}
	return nil
}

func (stubReactor) Close() error { return nil }
