//go:build linux

package reactor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
)

func TestPollDeliversReadability(t *testing.T) {
	var p [2]int
	require.NoError(t, pipe2(&p))
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	var got reactor.Result
	fired := false
	teardown, err := r.Register(p[0], reactor.Read, func(res reactor.Result) {
		fired = true
		got = res
	})
	require.NoError(t, err)
	defer teardown()

	_, werr := unix.Write(p[1], []byte("x"))
	require.NoError(t, werr)

	rq := task.NewReadyQueue()
	require.NoError(t, r.Poll(rq, 2*time.Second))
	rq.Run()
	require.True(t, fired)
	require.True(t, got.Readable)
}

func TestPollDeliversHangup(t *testing.T) {
	var p [2]int
	require.NoError(t, pipe2(&p))
	defer unix.Close(p[0])

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	var got reactor.Result
	teardown, err := r.Register(p[0], reactor.Read, func(res reactor.Result) {
		got = res
	})
	require.NoError(t, err)
	defer teardown()

	require.NoError(t, unix.Close(p[1]))

	rq := task.NewReadyQueue()
	require.NoError(t, r.Poll(rq, 2*time.Second))
	rq.Run()
	require.True(t, got.HUP)
}

func pipe2(p *[2]int) error {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK); err != nil {
		return err
	}
	p[0], p[1] = fds[0], fds[1]
	return nil
}
