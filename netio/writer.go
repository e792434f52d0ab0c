package netio

import (
	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
)

// Writer is a buffered output stream over a File: the Go rendering of
// the source's AsyncFileStream write side, including its bulk-write
// threshold — a put that would overflow the buffer bypasses it entirely
// rather than splitting across two writes.
type Writer struct {
	c    *task.Ctx
	r    reactor.Reactor
	f    *File
	buf  []byte
	fill int
}

// NewWriter wraps f in a Writer with an internal buffer of capacity bufSize.
func NewWriter(c *task.Ctx, r reactor.Reactor, f *File, bufSize int) *Writer {
	return &Writer{c: c, r: r, f: f, buf: make([]byte, bufSize)}
}

// Flush writes out everything currently buffered.
func (s *Writer) Flush() error {
	for s.fill > 0 {
		res, err := Write(s.c, s.r, s.f, s.buf[:s.fill])
		if err != nil {
			return err
		}
		if res.HUP {
			return ErrHungUp
		}
		copy(s.buf, s.buf[res.N:s.fill])
		s.fill -= res.N
	}
	return nil
}

// directWrite issues best-effort writes of p until all of it is sent.
func (s *Writer) directWrite(p []byte) error {
	for len(p) > 0 {
		res, err := Write(s.c, s.r, s.f, p)
		if err != nil {
			return err
		}
		if res.HUP {
			return ErrHungUp
		}
		p = p[res.N:]
	}
	return nil
}

// PutChar buffers a single byte, flushing first if the buffer is full.
func (s *Writer) PutChar(b byte) error {
	if s.fill == len(s.buf) {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	s.buf[s.fill] = b
	s.fill++
	return nil
}

// Write buffers p, unless fill+len(p) would overflow the buffer's
// capacity — in which case it flushes whatever is buffered and then
// issues one direct write of the whole of p, never fragmenting p across
// separate buffered writes.
func (s *Writer) Write(p []byte) error {
	if s.fill+len(p) <= len(s.buf) {
		copy(s.buf[s.fill:], p)
		s.fill += len(p)
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	return s.directWrite(p)
}
