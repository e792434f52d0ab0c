//go:build linux

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/loopwire/corosrv/task"
)

type registration struct {
	fd           int
	mask         uint32
	readDeliver  func(Result)
	writeDeliver func(Result)
}

func (r *registration) wanted() uint32 {
	var m uint32
	if r.readDeliver != nil {
		m |= unix.EPOLLIN
	}
	if r.writeDeliver != nil {
		m |= unix.EPOLLOUT
	}
	if m != 0 {
		m |= unix.EPOLLRDHUP
	}
	return m
}

// epollReactor is the Linux backend: one epoll instance, one registration
// table keyed by fd. Unlike the teacher's epollReactor, the table is a
// plain map — see the package doc for why no lock is needed here.
type epollReactor struct {
	epfd int
	regs map[int]*registration
}

func newReactor() (Reactor, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollReactor{epfd: epfd, regs: make(map[int]*registration)}, nil
}

func (r *epollReactor) Register(fd int, interest Interest, deliver func(Result)) (func(), error) {
	reg, exists := r.regs[fd]
	if !exists {
		reg = &registration{fd: fd}
	}
	if interest&Read != 0 {
		reg.readDeliver = deliver
	}
	if interest&Write != 0 {
		reg.writeDeliver = deliver
	}

	newMask := reg.wanted()
	op := unix.EPOLL_CTL_MOD
	if !exists {
		op = unix.EPOLL_CTL_ADD
	}
	ev := unix.EpollEvent{Events: newMask, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, op, fd, &ev); err != nil {
		return nil, fmt.Errorf("reactor: epoll_ctl: %w", err)
	}
	reg.mask = newMask
	r.regs[fd] = reg

	armedInterest := interest
	return func() { r.retract(fd, armedInterest) }, nil
}

func (r *epollReactor) retract(fd int, interest Interest) {
	reg, ok := r.regs[fd]
	if !ok {
		return
	}
	if interest&Read != 0 {
		reg.readDeliver = nil
	}
	if interest&Write != 0 {
		reg.writeDeliver = nil
	}
	newMask := reg.wanted()
	if newMask == 0 {
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		delete(r.regs, fd)
		return
	}
	if newMask != reg.mask {
		ev := unix.EpollEvent{Events: newMask, Fd: int32(fd)}
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
		reg.mask = newMask
	}
}

func (r *epollReactor) HasRegistrations() bool { return len(r.regs) > 0 }

func (r *epollReactor) Poll(rq *task.ReadyQueue, timeout time.Duration) error {
	timeoutMs := -1
	if timeout >= 0 {
		timeoutMs = int(timeout / time.Millisecond)
	}

	var events [128]unix.EpollEvent
	n, err := unix.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("reactor: epoll_wait: %w", err)
	}

	for i := 0; i < n; i++ {
		ev := events[i]
		reg, ok := r.regs[int(ev.Fd)]
		if !ok {
			continue
		}

		res := Result{}
		if ev.Events&unix.EPOLLIN != 0 {
			res.Readable = true
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			res.Writable = true
		}
		if ev.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP|unix.EPOLLERR) != 0 {
			res.HUP = true
		}

		var fired Interest
		if (res.Readable || res.HUP) && reg.readDeliver != nil {
			d := reg.readDeliver
			rq.Push(func() { d(res) })
			fired |= Read
		}
		if (res.Writable || res.HUP) && reg.writeDeliver != nil {
			d := reg.writeDeliver
			rq.Push(func() { d(res) })
			fired |= Write
		}
		// Each delivery is one-shot: retract the directions that fired so
		// a still-ready fd cannot deliver again on a later Poll.
		r.retract(int(ev.Fd), fired)
	}

	return nil
}

func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
