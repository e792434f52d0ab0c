package combix

import "github.com/loopwire/corosrv/task"

// WhenAny suspends the caller until the first of children completes,
// successfully or with an error, and immediately cancels every other
// child — mirroring the source's reliance on scope-exit destruction of
// the sibling ReturnPreviousTask array to tear down the losers the
// instant the winner resumes the parent.
//
// A later sibling that happens to become ready after the winner is
// already decided is simply never observed: per when_any_task's own
// index/exception_ guard, a result arriving after resolution is
// discarded, and here that sibling has usually already been canceled
// outright by the time it would fire.
func WhenAny(c *task.Ctx, children ...*task.Frame) (winner int, val any, err error) {
	if len(children) == 0 {
		return -1, nil, nil
	}

	wrappers := make([]*task.Frame, len(children))
	aw := &groupAwaiter{}

	winner = -1
	resolved := false

	for i, child := range children {
		idx, ch := i, child
		wrappers[i] = task.Spawn("when_any_child", func(wc *task.Ctx) (any, error) {
			v, e := wc.AwaitFrame(ch)
			if resolved {
				return nil, nil
			}
			resolved = true
			winner, val, err = idx, v, e
			aw.ready = true
			// See WhenAll: only Redirect if the parent is actually
			// parked on aw already. A synchronously-deciding winner
			// just sets ready and lets the parent's Await skip parking.
			if aw.armed {
				wc.Redirect(c)
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
		if _, awaitErr := c.Await(aw); awaitErr != nil {
			return -1, nil, awaitErr
		}
	}

	return winner, val, err
}
