package netio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/loopwire/corosrv/netio"
	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
)

func newPipe(t *testing.T) (*netio.File, *netio.File) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK))
	rf, err := netio.NewFile(fds[0], false, false)
	require.NoError(t, err)
	wf, err := netio.NewFile(fds[1], false, false)
	require.NoError(t, err)
	return rf, wf
}

// run executes body to completion inside a Frame and returns its result.
// None of this package's pipe-backed tests ever hit EAGAIN, so the body
// runs straight through without the frame actually suspending.
func run(t *testing.T, body func(c *task.Ctx) (any, error)) any {
	t.Helper()
	f := task.Spawn("test", body)
	task.Start(f)
	require.True(t, f.Done())
	v, err := f.Result()
	require.NoError(t, err)
	return v
}

func TestWriterBuffersSmallWrites(t *testing.T) {
	rf, wf := newPipe(t)
	defer rf.Close()
	defer wf.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	run(t, func(c *task.Ctx) (any, error) {
		w := netio.NewWriter(c, r, wf, 64)
		require.NoError(t, w.Write([]byte("abc")))
		require.NoError(t, w.Write([]byte("def")))
		return nil, nil
	})

	// Nothing reaches the pipe until Flush.
	buf := make([]byte, 16)
	n, rerr := unix.Read(rf.Fd(), buf)
	require.Equal(t, unix.EAGAIN, rerr)
	require.Equal(t, 0, n)
}

func TestWriterFlushDeliversBufferedBytes(t *testing.T) {
	rf, wf := newPipe(t)
	defer rf.Close()
	defer wf.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	run(t, func(c *task.Ctx) (any, error) {
		w := netio.NewWriter(c, r, wf, 64)
		require.NoError(t, w.Write([]byte("hello")))
		require.NoError(t, w.Flush())
		return nil, nil
	})

	buf := make([]byte, 16)
	n, err := unix.Read(rf.Fd(), buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}

// TestWriterBulkWriteBypassesBuffer exercises spec's "fill+payload >
// capacity" rule: a put bigger than the remaining buffer room flushes
// what's already buffered and then writes the new payload directly, as
// one syscall, rather than splitting it across the buffer boundary.
func TestWriterBulkWriteBypassesBuffer(t *testing.T) {
	rf, wf := newPipe(t)
	defer rf.Close()
	defer wf.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	const capacity = 8
	run(t, func(c *task.Ctx) (any, error) {
		w := netio.NewWriter(c, r, wf, capacity)
		require.NoError(t, w.Write([]byte("ab")))         // fill=2, buffered only
		require.NoError(t, w.Write([]byte("0123456789"))) // 2+10 > 8: bypass
		return nil, nil
	})

	buf := make([]byte, 32)
	n, err := unix.Read(rf.Fd(), buf)
	require.NoError(t, err)
	require.Equal(t, "ab0123456789", string(buf[:n]))
}

func TestReaderGetLineSplitsOnDelimiter(t *testing.T) {
	rf, wf := newPipe(t)
	defer rf.Close()
	defer wf.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	_, err = unix.Write(wf.Fd(), []byte("first\nsecond\n"))
	require.NoError(t, err)

	got := run(t, func(c *task.Ctx) (any, error) {
		rd := netio.NewReader(c, r, rf, 4) // smaller than either line: forces refills
		line1, err := rd.GetLine([]byte("\n"))
		if err != nil {
			return nil, err
		}
		line2, err := rd.GetLine([]byte("\n"))
		if err != nil {
			return nil, err
		}
		return []string{string(line1), string(line2)}, nil
	}).([]string)

	require.Equal(t, []string{"first", "second"}, got)
}

func TestReaderGetNReportsHangUp(t *testing.T) {
	rf, wf := newPipe(t)
	defer rf.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	_, err = unix.Write(wf.Fd(), []byte("ab"))
	require.NoError(t, err)
	require.NoError(t, wf.Close())

	f := task.Spawn("test", func(c *task.Ctx) (any, error) {
		rd := netio.NewReader(c, r, rf, 8)
		got, err := rd.GetN(5)
		return got, err
	})
	task.Start(f)
	require.True(t, f.Done())
	v, err := f.Result()
	require.ErrorIs(t, err, netio.ErrHungUp)
	require.Equal(t, []byte("ab"), v)
}

func TestConnectAcceptRoundTrip(t *testing.T) {
	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	ln, err := netio.Listen([4]byte{127, 0, 0, 1}, 0, 0)
	require.NoError(t, err)
	defer ln.Close()
	port, err := netio.BoundPort(ln)
	require.NoError(t, err)

	rq := task.NewReadyQueue()

	var serverConn, clientConn *netio.File
	server := task.Spawn("server", func(c *task.Ctx) (any, error) {
		conn, err := netio.Accept(c, r, ln)
		serverConn = conn
		return nil, err
	})
	client := task.Spawn("client", func(c *task.Ctx) (any, error) {
		conn, err := netio.Connect(c, r, [4]byte{127, 0, 0, 1}, port)
		clientConn = conn
		return nil, err
	})

	task.Start(server)
	task.Start(client)

	for i := 0; i < 20 && (!server.Done() || !client.Done()); i++ {
		require.NoError(t, r.Poll(rq, 50*time.Millisecond))
		rq.Run()
	}

	require.True(t, server.Done())
	require.True(t, client.Done())
	_, serr := server.Result()
	_, cerr := client.Result()
	require.NoError(t, serr)
	require.NoError(t, cerr)
	require.NotNil(t, serverConn)
	require.NotNil(t, clientConn)
	defer serverConn.Close()
	defer clientConn.Close()
}
