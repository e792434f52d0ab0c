package task

// Ctx is the handle a running Task body uses to suspend itself. It is
// only ever valid on the goroutine of the Frame it belongs to, and only
// for the duration of that Frame's body call — the coroutine-local
// "this_coro" of the source, minus the ability to escape its own stack
// frame.
type Ctx struct {
	f *Frame
}

// Await suspends the current Task until aw becomes ready, and returns the
// value or error it resolves with. If the Task is canceled while parked
// here, Await never returns: it panics with a sentinel the dispatcher
// recovers from, after running any deferred cleanup between this point
// and the body's return.
func (c *Ctx) Await(aw Awaiter) (any, error) {
	if val, err, ok := aw.Ready(); ok {
		return val, err
	}
	c.f.yieldCh <- yieldMsg{kind: ySuspendExternal, arm: aw.Arm}
	msg := <-c.f.resumeCh
	if msg.canceled {
		panic(cancelSignal{})
	}
	return msg.val, msg.err
}

// Redirect hands c's own Frame off to target: once c's body returns, its
// result is delivered to target exactly as AwaitFrame would deliver a
// child's result to its awaiter, without target ever having called
// AwaitFrame on c's Frame. A combinator (combix) uses this so the one
// child whose completion decides a WhenAll/WhenAny group can resume the
// parent — parked on the combinator's own Awaiter — from the very
// dispatch pass that child's own completion is already running on,
// instead of reentering resume from inside the child's still-running
// body. Call it only when target is known to be parked elsewhere, never
// when target is the goroutine currently executing this call.
func (c *Ctx) Redirect(target *Ctx) {
	c.f.continuation = target.f
}

// AwaitFrame performs a symmetric-transfer await of child: control passes
// directly to child without growing the dispatcher's stack, and the
// dispatcher resumes c's Task directly from child's completion once it
// produces a result. child must not already have an awaiter.
func (c *Ctx) AwaitFrame(child *Frame) (any, error) {
	if child == c.f {
		panic("task: a Task cannot await itself")
	}
	if child.done {
		return child.result, child.resErr
	}
	if child.started {
		panic(ErrAlreadyAwaited)
	}
	child.continuation = c.f
	c.f.yieldCh <- yieldMsg{kind: ySuspendTransfer, target: child}
	msg := <-c.f.resumeCh
	if msg.canceled {
		panic(cancelSignal{})
	}
	return msg.val, msg.err
}
