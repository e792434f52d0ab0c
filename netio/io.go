package netio

import (
	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
)

// Read performs one best-effort read: it tries a non-blocking read
// immediately, and if the fd isn't ready yet, suspends on r until it is
// and retries exactly once more. It never loops to fill buf completely —
// that is the stream layer's job, the same split as the source's
// read_file_best_effort handing a single attempt back to AsyncFileStream.
func Read(c *task.Ctx, r reactor.Reactor, f *File, buf []byte) (IOResult, error) {
	res, err := f.ReadSync(buf)
	if err != nil || res.N > 0 || res.HUP {
		return res, err
	}

	if _, err := c.Await(reactor.Wait(r, f.Fd(), reactor.Read)); err != nil {
		return IOResult{}, err
	}
	return f.ReadSync(buf)
}

// Write performs one best-effort write, suspending on r once if the fd
// isn't writable yet, mirroring Read.
func Write(c *task.Ctx, r reactor.Reactor, f *File, buf []byte) (IOResult, error) {
	res, err := f.WriteSync(buf)
	if err != nil || res.N > 0 || res.HUP {
		return res, err
	}

	if _, err := c.Await(reactor.Wait(r, f.Fd(), reactor.Write)); err != nil {
		return IOResult{}, err
	}
	return f.WriteSync(buf)
}
