// Package eventloop drives one Loop.Run call through to completion: it is
// the Go rendering of the source's AsyncLoop::run, which alternates
// between draining whatever is immediately ready and blocking in epoll
// for the next deadline, until nothing is left to do at all.
package eventloop

import (
	"time"

	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
	"github.com/loopwire/corosrv/timer"
)

// Loop owns the one Scheduler and one Reactor a process needs: every
// Task, Sleep and I/O wait in a run ultimately registers with these two.
type Loop struct {
	Timers  *timer.Scheduler
	Reactor reactor.Reactor
	Config  Config
}

// New builds a Loop with a real-time Scheduler and the platform Reactor,
// configured by opts over DefaultConfig.
func New(opts ...Option) (*Loop, error) {
	r, err := reactor.New()
	if err != nil {
		return nil, err
	}
	return &Loop{Timers: timer.NewScheduler(nil), Reactor: r, Config: NewConfig(opts...)}, nil
}

// Run resumes entry once, then pumps timers and I/O readiness until
// entry completes or the loop runs dry: no timers pending and no fds
// registered. It returns entry's result, exactly like the source's
// TimedScheduler::run(entry_point) returning entry_point.promise().result().
//
//	while (!entry_point.done()) {
//	    entry_point.resume();
//	    while (delay := run()) sleep_for(*delay);
//	}
//
// becomes, here, a resume of entry followed by: drain due timers, then
// block in Poll for the next deadline (or indefinitely, if none is
// pending), or — if the reactor has nothing registered and no timer is
// pending — stop, since nothing could ever make entry ready again.
// Waiting always goes through Poll, even with no fd registered, so a
// Reactor backed by a fake clock (as in tests) stays in control of how
// time passes for a timer-only run instead of this loop falling back to
// a real time.Sleep behind the scheduler's back.
func (l *Loop) Run(entry *task.Frame) (any, error) {
	task.Start(entry)

	rq := task.NewReadyQueue()
	for !entry.Done() {
		l.Timers.Drain(rq)
		rq.Run()
		if entry.Done() {
			break
		}

		deadline, hasTimer := l.Timers.NextDeadline()
		hasIO := l.Reactor.HasRegistrations()
		if !hasTimer && !hasIO {
			break
		}

		timeout := time.Duration(-1)
		if hasTimer {
			timeout = l.Timers.Until(deadline)
		}

		if err := l.Reactor.Poll(rq, timeout); err != nil {
			return nil, err
		}
		rq.Run()
	}

	return entry.Result()
}

// Close releases the loop's Reactor.
func (l *Loop) Close() error {
	return l.Reactor.Close()
}
