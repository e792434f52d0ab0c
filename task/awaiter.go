package task

// Awaiter is the Go stand-in for the source's awaiter protocol
// (await_ready/await_suspend/await_resume collapsed into two calls). A type
// satisfying Awaiter is something a Ctx can suspend on: a timer deadline,
// an epoll readiness registration, a completed child Frame.
//
// Ready lets an Awaiter short-circuit synchronously-available results
// (e.g. a deadline already in the past, a buffer that already has data)
// without ever touching the goroutine machinery. Arm is only called when
// Ready reports false; it registers deliver with whatever external
// scheduler owns this Awaiter and returns a teardown func that undoes the
// registration. The dispatcher calls teardown only on cancellation; on
// ordinary delivery the scheduler has already dropped the registration.
//
// Arm must never call deliver before returning. The dispatcher calls Arm
// from inside its own resume loop, on the goroutine driving that loop;
// a synchronous deliver would reenter the loop while it is still
// mid-transition and corrupt it. An Awaiter whose registration can fail
// synchronously (e.g. a bad file descriptor) reports that failure through
// its err return instead, which the dispatcher treats exactly like an
// immediate deliver, safely, in its own loop iteration.
type Awaiter interface {
	// Ready reports a result that is already available. When ok is
	// false, val and err are meaningless and the caller must Arm.
	Ready() (val any, err error, ok bool)

	// Arm registers deliver to be called exactly once, asynchronously,
	// when this Awaiter becomes ready. The returned teardown unregisters
	// it; it is called by the dispatcher if and only if deliver never
	// fires. A non-nil err means registration itself failed; teardown is
	// ignored in that case and deliver is never called.
	Arm(deliver func(val any, err error)) (teardown func(), err error)
}

// Immediate is an Awaiter that is always Ready with a fixed result. It is
// mostly useful in tests and as a trivial building block for composite
// awaiters that sometimes resolve synchronously.
type Immediate struct {
	Val any
	Err error
}

func (i Immediate) Ready() (any, error, bool) { return i.Val, i.Err, true }

func (i Immediate) Arm(func(any, error)) (func(), error) {
	panic("task: Arm called on an Immediate Awaiter")
}
