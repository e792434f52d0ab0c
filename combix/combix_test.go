package combix_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopwire/corosrv/combix"
	"github.com/loopwire/corosrv/task"
)

func TestWhenAllAggregatesResultsInOrder(t *testing.T) {
	parent := task.Spawn("parent", func(c *task.Ctx) (any, error) {
		a := task.Spawn("a", func(c *task.Ctx) (any, error) { return 1, nil })
		b := task.Spawn("b", func(c *task.Ctx) (any, error) { return 2, nil })
		d := task.Spawn("d", func(c *task.Ctx) (any, error) { return 3, nil })
		return combix.WhenAll(c, a, b, d)
	})
	task.Start(parent)
	require.True(t, parent.Done())
	val, err := parent.Result()
	require.NoError(t, err)
	require.Equal(t, []any{1, 2, 3}, val)
}

func TestWhenAllEmptyReturnsImmediately(t *testing.T) {
	parent := task.Spawn("parent", func(c *task.Ctx) (any, error) {
		return combix.WhenAll(c)
	})
	task.Start(parent)
	require.True(t, parent.Done())
	val, err := parent.Result()
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestWhenAllFailsFastAndCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	siblingTornDown := false

	aw := blockingAwaiter{teardown: func() { siblingTornDown = true }}

	parent := task.Spawn("parent", func(c *task.Ctx) (any, error) {
		failing := task.Spawn("failing", func(c *task.Ctx) (any, error) {
			return nil, boom
		})
		hangs := task.Spawn("hangs", func(c *task.Ctx) (any, error) {
			return c.Await(aw)
		})
		return combix.WhenAll(c, failing, hangs)
	})
	task.Start(parent)
	require.True(t, parent.Done())
	_, err := parent.Result()
	require.ErrorIs(t, err, boom)
	require.True(t, siblingTornDown)
}

func TestWhenAnyReturnsFirstWinnerAndCancelsRest(t *testing.T) {
	tornDown := 0
	mkBlocker := func() task.Awaiter {
		return blockingAwaiter{teardown: func() { tornDown++ }}
	}

	parent := task.Spawn("parent", func(c *task.Ctx) (any, error) {
		fast := task.Spawn("fast", func(c *task.Ctx) (any, error) { return "fast", nil })
		slowA := task.Spawn("slowA", func(c *task.Ctx) (any, error) { return c.Await(mkBlocker()) })
		slowB := task.Spawn("slowB", func(c *task.Ctx) (any, error) { return c.Await(mkBlocker()) })
		idx, val, err := combix.WhenAny(c, fast, slowA, slowB)
		if err != nil {
			return nil, err
		}
		return []any{idx, val}, nil
	})
	task.Start(parent)
	require.True(t, parent.Done())
	val, err := parent.Result()
	require.NoError(t, err)
	got := val.([]any)
	require.Equal(t, 0, got[0])
	require.Equal(t, "fast", got[1])
	require.Equal(t, 2, tornDown)
}

func TestStoreGCsCompletedTasksOnAdd(t *testing.T) {
	var s combix.Store
	done := task.Spawn("done", func(c *task.Ctx) (any, error) { return nil, nil })
	s.Add(done)
	require.Equal(t, 1, s.Len())

	aw := blockingAwaiter{teardown: func() {}}
	live := task.Spawn("live", func(c *task.Ctx) (any, error) { return c.Await(aw) })
	s.Add(live)
	require.Equal(t, 1, s.Len())

	s.CancelAll()
	require.True(t, live.Canceled())
}

type blockingAwaiter struct {
	teardown func()
}

func (blockingAwaiter) Ready() (any, error, bool) { return nil, nil, false }

func (a blockingAwaiter) Arm(deliver func(any, error)) (func(), error) {
	return a.teardown, nil
}
