// Package netio implements the owning-fd, non-blocking file and socket
// primitives the rest of the runtime suspends on, and the buffered
// stream adapters on top of them. It is grounded on the source's aio.hpp
// AsyncFile/AsyncFileStream and socket.hpp, realized with Go's
// Close-on-defer discipline standing in for the source's RAII destructors.
package netio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// IOResult is the outcome of one best-effort read or write: a short
// count, or a hung-up signal meaning the peer is gone and no further
// progress on this direction is possible.
type IOResult struct {
	N   int
	HUP bool
}

// File is a move-only owning fd, in the sense that its zero value is
// unusable and copying one around and closing both copies will
// double-close; callers are expected to pass *File. NewFile's borrow flag
// wraps a foreign-owned fd (e.g. a duped standard stream) without taking close
// ownership of it.
type File struct {
	fd     int
	borrow bool
}

// NewFile wraps fd, optionally putting it in non-blocking mode. Pass
// borrow true for a foreign-owned fd (stdio, a fd handed in by a test)
// that Close must not actually close.
func NewFile(fd int, nonblock, borrow bool) (*File, error) {
	f := &File{fd: fd, borrow: borrow}
	if nonblock {
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, fmt.Errorf("netio: set nonblock: %w", err)
		}
	}
	return f, nil
}

// Fd returns the raw descriptor, for registering with a reactor.
func (f *File) Fd() int { return f.fd }

// Release detaches the fd from f without closing it, returning it to the
// caller — the Go analog of AsyncFile::release().
func (f *File) Release() int {
	fd := f.fd
	f.fd = -1
	return fd
}

// Close releases the fd unless f only borrows it. Closing an already
// released or borrowed File is a no-op.
func (f *File) Close() error {
	if f.fd == -1 || f.borrow {
		return nil
	}
	fd := f.fd
	f.fd = -1
	return unix.Close(fd)
}

// ReadSync issues one non-blocking read into buf. EAGAIN/EWOULDBLOCK is
// reported as a zero-length, no-error result so callers can tell "try
// again" apart from a real failure; a zero-length read with no error
// from the kernel means EOF, surfaced as HUP.
func (f *File) ReadSync(buf []byte) (IOResult, error) {
	n, err := unix.Read(f.fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return IOResult{}, nil
		}
		return IOResult{}, fmt.Errorf("netio: read: %w", err)
	}
	if n == 0 {
		return IOResult{HUP: true}, nil
	}
	return IOResult{N: n}, nil
}

// WriteSync issues one non-blocking write of buf.
func (f *File) WriteSync(buf []byte) (IOResult, error) {
	n, err := unix.Write(f.fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return IOResult{}, nil
		}
		if err == unix.EPIPE {
			return IOResult{HUP: true}, nil
		}
		return IOResult{}, fmt.Errorf("netio: write: %w", err)
	}
	return IOResult{N: n}, nil
}
