// Package combix implements the await combinators: WhenAll and WhenAny,
// plus the background-spawn store. Both combinators are grounded on the
// source's detail::when_all/detail::when_any — a shared "group" record
// that outstanding child wrapper tasks update, paired with a custom
// Awaiter the combinator's caller suspends on until the group resolves.
//
// The source wraps each child in a ReturnPreviousTask whose destructor
// cancels it, and relies on C++ scope-exit destruction of a local array
// of those wrappers to cancel stragglers once the group resolves. Here
// that role is played by an ordinary Go defer over the wrapper Frames:
// it runs whether the combinator resolves normally or is itself
// canceled while suspended, covering both paths with the same line.
package combix

import (
	"github.com/loopwire/corosrv/task"
)

// groupAwaiter is what a WhenAll/WhenAny caller parks on while its
// children are still outstanding. armed distinguishes the two ways a
// group can resolve: if every child happens to finish synchronously,
// before the caller ever reaches Await, ready is already true and Await
// returns without ever calling Arm. Otherwise the caller parks first —
// Arm sets armed — and the deciding child's own wrapper must hand the
// caller's Frame its completion via Ctx.Redirect rather than resuming it
// inline, since the wrapper's own goroutine has no business driving the
// parent's resume loop reentrantly.
type groupAwaiter struct {
	ready bool
	armed bool
}

func (a *groupAwaiter) Ready() (any, error, bool) {
	return nil, nil, a.ready
}

func (a *groupAwaiter) Arm(func(any, error)) (func(), error) {
	a.armed = true
	return func() { a.armed = false }, nil
}

// WhenAll suspends the caller until every frame in children has
// completed, or one of them errors — whichever happens first. On the
// first error, every child that has not yet completed is canceled and
// that error is returned; otherwise the results are returned in the same
// order as children.
//
// children must be frames nobody has awaited yet: WhenAll takes
// ownership of each, the way when_all assumes "the tasks ... are all new
// tasks and are not yet in the scheduler."
func WhenAll(c *task.Ctx, children ...*task.Frame) ([]any, error) {
	if len(children) == 0 {
		return nil, nil
	}

	results := make([]any, len(children))
	wrappers := make([]*task.Frame, len(children))
	aw := &groupAwaiter{}

	// remaining/groupErr/resolved are only ever touched from a wrapper's
	// own completion, and the channel handshake in task.resume keeps
	// exactly one goroutine advancing at a time across the whole module —
	// including this case, where the deciding wrapper's own body runs on
	// a different goroutine than the one that will actually drive the
	// parent's resume. No lock needed.
	remaining := len(children)
	var groupErr error
	resolved := false

	for i, child := range children {
		idx, ch := i, child
		wrappers[i] = task.Spawn("when_all_child", func(wc *task.Ctx) (any, error) {
			val, err := wc.AwaitFrame(ch)

			if err != nil && groupErr == nil {
				groupErr = err
			} else if err == nil {
				results[idx] = val
			}
			remaining--
			done := remaining == 0 || groupErr != nil
			fire := done && !resolved
			resolved = resolved || done

			if fire {
				aw.ready = true
				// If the parent already parked on aw, hand this
				// wrapper's completion to it via Redirect so the parent
				// resumes on the dispatch pass already driving this
				// wrapper, not through a reentrant call on this
				// wrapper's own goroutine. If the parent hasn't parked
				// yet (every child resolved synchronously), ready alone
				// is enough: the parent's own Await never suspends.
				if aw.armed {
					wc.Redirect(c)
				}
			}
			return nil, nil
		})
	}

	defer func() {
		for _, w := range wrappers {
			task.Cancel(w)
		}
	}()

	for _, w := range wrappers {
		task.Start(w)
	}

	if !aw.ready {
		if _, err := c.Await(aw); err != nil {
			return nil, err
		}
	}

	if groupErr != nil {
		return nil, groupErr
	}
	return results, nil
}
