package eventloop_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopwire/corosrv/combix"
	"github.com/loopwire/corosrv/eventloop"
	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
	"github.com/loopwire/corosrv/timer"
)

// fakeClock lets tests step time deterministically.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// fakeReactor has no real fds. Poll "blocks" by advancing the fake clock
// by timeout instead of sleeping real wall time, so a Loop driven purely
// by timers runs instantly in tests.
type fakeReactor struct {
	clock *fakeClock
	live  bool
}

func (r *fakeReactor) Register(fd int, interest reactor.Interest, deliver func(reactor.Result)) (func(), error) {
	return func() {}, nil
}
func (r *fakeReactor) HasRegistrations() bool { return r.live }
func (r *fakeReactor) Poll(rq *task.ReadyQueue, timeout time.Duration) error {
	if timeout > 0 {
		r.clock.now = r.clock.now.Add(timeout)
	}
	return nil
}
func (r *fakeReactor) Close() error { return nil }

func newLoop(live bool) (*eventloop.Loop, *fakeClock) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	return &eventloop.Loop{
		Timers:  timer.NewScheduler(clock.Now),
		Reactor: &fakeReactor{clock: clock, live: live},
	}, clock
}

func TestLoopRunsSleepsInDeadlineOrder(t *testing.T) {
	loop, _ := newLoop(true)

	var order []int
	entry := task.Spawn("entry", func(c *task.Ctx) (any, error) {
		children := make([]*task.Frame, 3)
		for i, d := range []time.Duration{3 * time.Second, 1 * time.Second, 2 * time.Second} {
			id, dur := i, d
			children[i] = task.Spawn("child", func(c *task.Ctx) (any, error) {
				if err := timer.Sleep(c, loop.Timers, dur); err != nil {
					return nil, err
				}
				order = append(order, id)
				return nil, nil
			})
		}
		return combix.WhenAll(c, children...)
	})

	_, err := loop.Run(entry)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 0}, order)
}

func TestLoopWhenAllSumsResults(t *testing.T) {
	loop, _ := newLoop(true)

	entry := task.Spawn("entry", func(c *task.Ctx) (any, error) {
		a := task.Spawn("a", func(c *task.Ctx) (any, error) {
			return 10, timer.Sleep(c, loop.Timers, time.Second)
		})
		b := task.Spawn("b", func(c *task.Ctx) (any, error) {
			return 20, timer.Sleep(c, loop.Timers, 2*time.Second)
		})
		results, err := combix.WhenAll(c, a, b)
		if err != nil {
			return nil, err
		}
		return results[0].(int) + results[1].(int), nil
	})

	val, err := loop.Run(entry)
	require.NoError(t, err)
	require.Equal(t, 30, val)
}

func TestLoopWhenAllPropagatesFirstError(t *testing.T) {
	loop, _ := newLoop(true)
	boom := errors.New("boom")

	entry := task.Spawn("entry", func(c *task.Ctx) (any, error) {
		ok := task.Spawn("ok", func(c *task.Ctx) (any, error) {
			return 1, timer.Sleep(c, loop.Timers, 5*time.Second)
		})
		bad := task.Spawn("bad", func(c *task.Ctx) (any, error) {
			return nil, boom
		})
		return combix.WhenAll(c, ok, bad)
	})

	_, err := loop.Run(entry)
	require.ErrorIs(t, err, boom)
}

func TestLoopWhenAnyPicksFirstToWake(t *testing.T) {
	loop, _ := newLoop(true)

	entry := task.Spawn("entry", func(c *task.Ctx) (any, error) {
		slow := task.Spawn("slow", func(c *task.Ctx) (any, error) {
			return "slow", timer.Sleep(c, loop.Timers, 10*time.Second)
		})
		fast := task.Spawn("fast", func(c *task.Ctx) (any, error) {
			return "fast", timer.Sleep(c, loop.Timers, time.Second)
		})
		idx, val, err := combix.WhenAny(c, slow, fast)
		if err != nil {
			return nil, err
		}
		return []any{idx, val}, nil
	})

	val, err := loop.Run(entry)
	require.NoError(t, err)
	got := val.([]any)
	require.Equal(t, 1, got[0])
	require.Equal(t, "fast", got[1])
}

func TestLoopStopsWhenNothingPending(t *testing.T) {
	loop, _ := newLoop(false)
	entry := task.Spawn("entry", func(c *task.Ctx) (any, error) {
		return 7, nil
	})
	val, err := loop.Run(entry)
	require.NoError(t, err)
	require.Equal(t, 7, val)
}
