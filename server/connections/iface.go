package connections

import (
	"io"
	"net"
)

// IListener is a non-blocking listening socket. Accept returns an error
// satisfying IsWouldBlock when no connection is queued.
type IListener interface {
	Accept() (IConnection, error)
	Addr() net.Addr
	RawFd() int
	io.Closer
}

// IConnection is a non-blocking stream socket exposing its descriptor so
// it can be registered with a poll set.
type IConnection interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
	RawFd() int
}
