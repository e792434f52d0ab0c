package timer

import (
	"time"

	"github.com/loopwire/corosrv/task"
)

// sleepAwaiter is the Awaiter a Sleep call suspends on: not-ready until
// the deadline, armed as a Scheduler registration, torn down by canceling
// that registration if the sleep is interrupted.
type sleepAwaiter struct {
	sched    *Scheduler
	deadline time.Time
}

func (a *sleepAwaiter) Ready() (any, error, bool) {
	if !a.deadline.After(a.sched.clock()) {
		return nil, nil, true
	}
	return nil, nil, false
}

func (a *sleepAwaiter) Arm(deliver func(val any, err error)) (func(), error) {
	e := a.sched.schedule(a.deadline, func() { deliver(nil, nil) })
	return func() { a.sched.cancel(e) }, nil
}

// Sleep suspends the calling Task until d has elapsed on sched's Clock.
// It never returns an error: sleeping cannot fail, only be canceled, and
// a canceled Task never observes its own Await returning at all.
func Sleep(c *task.Ctx, sched *Scheduler, d time.Duration) error {
	deadline := sched.clock().Add(d)
	_, err := c.Await(&sleepAwaiter{sched: sched, deadline: deadline})
	return err
}

// SleepUntil suspends the calling Task until deadline is reached on
// sched's Clock. A deadline already in the past resolves immediately.
func SleepUntil(c *task.Ctx, sched *Scheduler, deadline time.Time) error {
	_, err := c.Await(&sleepAwaiter{sched: sched, deadline: deadline})
	return err
}
