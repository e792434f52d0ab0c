package netio

import (
	"errors"

	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
)

// ErrHungUp is returned by a Reader read when the peer closed its end
// before the requested amount of data arrived.
var ErrHungUp = errors.New("netio: hung up")

// Reader is a buffered input stream over a File: the Go rendering of the
// source's AsyncFileStream read side. hungUp latches once a zero-length
// read is observed, since a closed peer stays closed.
type Reader struct {
	c      *task.Ctx
	r      reactor.Reactor
	f      *File
	buf    []byte
	start  int
	end    int
	hungUp bool
}

// NewReader wraps f in a Reader with an internal buffer of capacity bufSize.
func NewReader(c *task.Ctx, r reactor.Reactor, f *File, bufSize int) *Reader {
	return &Reader{c: c, r: r, f: f, buf: make([]byte, bufSize)}
}

func (s *Reader) buffered() int { return s.end - s.start }

// fill tops the buffer up with one best-effort read, compacting first if
// the buffer is empty.
func (s *Reader) fill() error {
	if s.hungUp {
		return nil
	}
	if s.start == s.end {
		s.start, s.end = 0, 0
	}
	if s.end == len(s.buf) {
		copy(s.buf, s.buf[s.start:s.end])
		s.end -= s.start
		s.start = 0
	}
	res, err := Read(s.c, s.r, s.f, s.buf[s.end:])
	if err != nil {
		return err
	}
	if res.HUP {
		s.hungUp = true
		return nil
	}
	s.end += res.N
	return nil
}

// GetChar returns the next byte, blocking for more input if the buffer
// is empty.
func (s *Reader) GetChar() (byte, error) {
	for s.buffered() == 0 {
		if s.hungUp {
			return 0, ErrHungUp
		}
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	b := s.buf[s.start]
	s.start++
	return b, nil
}

// GetN reads exactly n bytes, or returns ErrHungUp with whatever was
// read so far if the peer hangs up first.
func (s *Reader) GetN(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		for s.buffered() == 0 && !s.hungUp {
			if err := s.fill(); err != nil {
				return out, err
			}
		}
		if s.buffered() == 0 {
			return out, ErrHungUp
		}
		take := n - len(out)
		if take > s.buffered() {
			take = s.buffered()
		}
		out = append(out, s.buf[s.start:s.start+take]...)
		s.start += take
	}
	return out, nil
}

// GetLine reads up to delim, stripping it from the result, or until
// hang-up. The returned slice omits the delimiter entirely if the
// stream hung up before it appeared. delim may be more than one byte
// (e.g. "\r\n"), so the search is re-run over the whole accumulated line
// on every refill rather than just the newest chunk, since the
// delimiter may straddle a buffer boundary.
func (s *Reader) GetLine(delim []byte) ([]byte, error) {
	var out []byte
	for {
		out = append(out, s.buf[s.start:s.end]...)
		s.start = s.end
		if i := indexOf(out, delim); i >= 0 {
			line := out[:i]
			// Anything read past the delimiter belongs to the next
			// call: push it back into the buffer's front.
			leftover := out[i+len(delim):]
			s.start = 0
			s.end = copy(s.buf, leftover)
			return line, nil
		}
		if s.hungUp {
			return out, ErrHungUp
		}
		if err := s.fill(); err != nil {
			return out, err
		}
	}
}

func indexOf(haystack, needle []byte) int {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
