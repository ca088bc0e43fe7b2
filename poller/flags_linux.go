//go:build linux

package poller

import "golang.org/x/sys/unix"

// On linux the flag values are epoll's own, so masks cross the native
// backend untouched.
const (
	CPOLLIN      EventMask = unix.EPOLLIN
	CPOLLOUT     EventMask = unix.EPOLLOUT
	CPOLLRDHUP   EventMask = unix.EPOLLRDHUP
	CPOLLPRI     EventMask = unix.EPOLLPRI
	CPOLLERR     EventMask = unix.EPOLLERR
	CPOLLHUP     EventMask = unix.EPOLLHUP
	CPOLLET      EventMask = unix.EPOLLET
	CPOLLONESHOT EventMask = unix.EPOLLONESHOT
)

const (
	CPOLL_CTL_ADD Op = unix.EPOLL_CTL_ADD
	CPOLL_CTL_DEL Op = unix.EPOLL_CTL_DEL
	CPOLL_CTL_MOD Op = unix.EPOLL_CTL_MOD
)
