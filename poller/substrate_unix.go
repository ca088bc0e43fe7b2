//go:build linux || darwin || freebsd || netbsd || openbsd

package poller

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// pollSubstrate emulates event objects with poll(2). Arming records the
// requested events, WaitAny polls the whole set and Enumerate re-polls a
// single descriptor with a zero timeout to read its current state.
type pollSubstrate struct{}

func newSubstrate() Substrate {
	return pollSubstrate{}
}

func (pollSubstrate) MaxWaitObjects() int {
	return maxWaitObjects
}

func (pollSubstrate) NewWaitSet() (WaitSet, error) {
	return &pollWaitSet{}, nil
}

func (pollSubstrate) AcceptPending(fd int) (bool, error) {
	listening, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ACCEPTCONN)
	if err != nil {
		if errors.Is(err, unix.ENOTSOCK) || errors.Is(err, unix.ENOPROTOOPT) {
			return false, nil
		}
		return false, errors.Wrapf(err, "getsockopt SO_ACCEPTCONN on %d", fd)
	}
	if listening == 0 {
		return false, nil
	}

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := pollOnce(fds, 0)
	if err != nil {
		return false, errors.Wrapf(err, "poll listener %d", fd)
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
}

type pollWaitSet struct {
	fds []unix.PollFd
}

func (s *pollWaitSet) Select(fd int, events NetEvents) error {
	if fd < 0 {
		return errors.Wrapf(unix.EBADF, "select %d", fd)
	}
	s.fds = append(s.fds, unix.PollFd{Fd: int32(fd), Events: toPollEvents(events)})
	return nil
}

func (s *pollWaitSet) WaitAny(timeout time.Duration) (int, bool, error) {
	if len(s.fds) == 0 {
		return 0, false, nil
	}
	n, err := pollOnce(s.fds, durationToMillis(timeout))
	if err != nil {
		return 0, false, errors.Wrap(err, "poll")
	}
	if n == 0 {
		return 0, false, nil
	}
	for i := range s.fds {
		if s.fds[i].Revents != 0 {
			return i, true, nil
		}
	}
	return 0, false, nil
}

func (s *pollWaitSet) Enumerate(slot int) (NetEvents, error) {
	pfd := []unix.PollFd{{Fd: s.fds[slot].Fd, Events: s.fds[slot].Events}}
	if _, err := pollOnce(pfd, 0); err != nil {
		return 0, errors.Wrapf(err, "poll %d", pfd[0].Fd)
	}
	revents := pfd[0].Revents
	if revents&unix.POLLNVAL != 0 {
		return 0, errors.Wrapf(unix.EBADF, "poll %d", pfd[0].Fd)
	}

	var n NetEvents
	if revents&unix.POLLIN != 0 {
		n |= NetRead
	}
	if revents&unix.POLLOUT != 0 {
		n |= NetWrite
	}
	if revents&unix.POLLHUP != 0 {
		n |= NetClose
	}
	if revents&unix.POLLERR != 0 {
		n |= NetError
	}
	return n, nil
}

func (s *pollWaitSet) Close() error {
	s.fds = nil
	return nil
}

func toPollEvents(n NetEvents) int16 {
	var ev int16
	if n&(NetRead|NetAccept) != 0 {
		ev |= unix.POLLIN
	}
	if n&(NetWrite|NetConnect) != 0 {
		ev |= unix.POLLOUT
	}
	if n&NetOOB != 0 {
		ev |= unix.POLLPRI
	}
	// POLLHUP and POLLERR are always reported, NetClose needs no request bit.
	return ev
}

// pollOnce treats an interrupted poll as an empty one.
func pollOnce(fds []unix.PollFd, timeoutMs int) (int, error) {
	n, err := unix.Poll(fds, timeoutMs)
	if err == unix.EINTR {
		return 0, nil
	}
	return n, err
}
