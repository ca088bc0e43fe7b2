//go:build linux || darwin || freebsd || netbsd || openbsd

package connections

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const maxSoMaxConn = 500

type Connection struct {
	fd         int
	localAddr  *unix.SockaddrInet4
	remoteAddr *unix.SockaddrInet4
}

func (c *Connection) Read(buf []byte) (int, error) {
	n, err := unix.Read(c.fd, buf)
	if n < 0 {
		n = 0
	}
	return n, err
}

func (c *Connection) Write(buf []byte) (int, error) {
	n, err := unix.Write(c.fd, buf)
	if n < 0 {
		n = 0
	}
	return n, err
}

func (c *Connection) Close() error {
	return unix.Close(c.fd)
}

func (c *Connection) RemoteAddr() net.Addr {
	return toTCPAddr(c.remoteAddr)
}

func (c *Connection) LocalAddr() net.Addr {
	return toTCPAddr(c.localAddr)
}

func (c *Connection) RawFd() int {
	return c.fd
}

type Listener struct {
	fd   int
	addr *unix.SockaddrInet4
}

func (l *Listener) Accept() (IConnection, error) {
	socket, sa, err := unix.Accept(l.fd)
	if err != nil {
		return nil, err
	}
	if err = unix.SetNonblock(socket, true); err != nil {
		_ = unix.Close(socket)
		return nil, err
	}

	remote, _ := sa.(*unix.SockaddrInet4)
	return &Connection{
		fd:         socket,
		localAddr:  l.addr,
		remoteAddr: remote,
	}, nil
}

func (l *Listener) Addr() net.Addr {
	return toTCPAddr(l.addr)
}

func (l *Listener) RawFd() int {
	return l.fd
}

func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

// Listen opens a non-blocking IPv4 listener. Port 0 picks a free port,
// readable back through Addr.
func Listen(addr [4]byte, port int) (IListener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, errors.Wrap(err, "socket")
	}

	fail := func(err error, msg string) (IListener, error) {
		_ = unix.Close(fd)
		return nil, errors.Wrap(err, msg)
	}
	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fail(err, "setsockopt SO_REUSEADDR")
	}
	if err = unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: addr}); err != nil {
		return fail(err, "bind")
	}
	if err = unix.Listen(fd, maxSoMaxConn); err != nil {
		return fail(err, "listen")
	}
	if err = unix.SetNonblock(fd, true); err != nil {
		return fail(err, "set nonblock")
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return fail(err, "getsockname")
	}

	local, _ := sa.(*unix.SockaddrInet4)
	return &Listener{fd: fd, addr: local}, nil
}

func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func IsInterrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}

// IsAbortedAccept reports errors after which the acceptor should simply
// try again.
func IsAbortedAccept(err error) bool {
	return errors.Is(err, unix.ECONNABORTED) || IsInterrupted(err)
}

func toTCPAddr(sa *unix.SockaddrInet4) net.Addr {
	if sa == nil {
		return &net.TCPAddr{}
	}
	return &net.TCPAddr{
		IP:   net.IPv4(sa.Addr[0], sa.Addr[1], sa.Addr[2], sa.Addr[3]),
		Port: sa.Port,
	}
}
