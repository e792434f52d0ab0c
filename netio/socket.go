package netio

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/loopwire/corosrv/reactor"
	"github.com/loopwire/corosrv/task"
)

// Listen creates, binds and listens on a non-blocking IPv4 TCP socket,
// the Go analog of the source's socket_listen. backlog 0 means the
// platform maximum (unix.SOMAXCONN).
func Listen(addr [4]byte, port int, backlog int) (*File, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("netio: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: setsockopt reuseaddr: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: bind: %w", err)
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netio: listen: %w", err)
	}
	return NewFile(fd, true, false)
}

// BoundPort returns the local port a Listen-created File was bound to,
// for the case addr picked port 0 and let the kernel choose.
func BoundPort(f *File) (int, error) {
	sa, err := unix.Getsockname(f.fd)
	if err != nil {
		return 0, fmt.Errorf("netio: getsockname: %w", err)
	}
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, fmt.Errorf("netio: getsockname: unexpected address family")
	}
	return in4.Port, nil
}

// Connect opens a non-blocking TCP connection to addr:port. A connect
// that would block reports EINPROGRESS; the coroutine suspends until the
// socket is writable and then checks SO_ERROR, the same two-step the
// source's socket_connect coroutine performs.
func Connect(c *task.Ctx, r reactor.Reactor, addr [4]byte, port int) (*File, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("netio: socket: %w", err)
	}
	f, err := NewFile(fd, true, false)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	err = unix.Connect(fd, sa)
	if err == nil {
		return f, nil
	}
	if err != unix.EINPROGRESS {
		_ = f.Close()
		return nil, fmt.Errorf("netio: connect: %w", err)
	}

	if _, err := c.Await(reactor.Wait(r, fd, reactor.Write)); err != nil {
		_ = f.Close()
		return nil, err
	}

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("netio: getsockopt so_error: %w", err)
	}
	if soErr != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("netio: connect: %w", unix.Errno(soErr))
	}
	return f, nil
}

// Accept waits for listener to become readable and then accepts exactly
// one connection, returning a fresh non-blocking File. A spurious wakeup
// (EAGAIN on the accept itself, e.g. another coroutine won the race) is
// retried by waiting again, mirroring the source's socket_accept loop.
func Accept(c *task.Ctx, r reactor.Reactor, listener *File) (*File, error) {
	for {
		if _, err := c.Await(reactor.Wait(r, listener.Fd(), reactor.Read)); err != nil {
			return nil, err
		}

		connFd, _, err := unix.Accept4(listener.Fd(), unix.SOCK_NONBLOCK)
		if err == nil {
			return NewFile(connFd, false, false)
		}
		if err == unix.EAGAIN {
			continue
		}
		return nil, fmt.Errorf("netio: accept: %w", err)
	}
}
