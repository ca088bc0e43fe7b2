//go:build windows

package poller

import (
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	modws2_32 = windows.NewLazySystemDLL("ws2_32.dll")

	procWSAEventSelect       = modws2_32.NewProc("WSAEventSelect")
	procWSAEnumNetworkEvents = modws2_32.NewProc("WSAEnumNetworkEvents")
	procWSAPoll              = modws2_32.NewProc("WSAPoll")
)

const (
	soAcceptConn = 0x0002
	pollRdNorm   = 0x0100
	fdMaxEvents  = 10
)

type wsaNetworkEvents struct {
	NetworkEvents int32
	ErrorCode     [fdMaxEvents]int32
}

type wsaPollFd struct {
	fd      windows.Handle
	events  int16
	revents int16
}

// eventSubstrate binds one manual-reset event object per socket with
// WSAEventSelect and waits on them with WaitForMultipleObjects.
type eventSubstrate struct{}

func newSubstrate() Substrate {
	return eventSubstrate{}
}

func (eventSubstrate) MaxWaitObjects() int {
	return maxWaitObjects
}

func (eventSubstrate) NewWaitSet() (WaitSet, error) {
	return &eventWaitSet{}, nil
}

func (eventSubstrate) AcceptPending(fd int) (bool, error) {
	sock := windows.Handle(fd)
	listening, err := windows.GetsockoptInt(sock, windows.SOL_SOCKET, soAcceptConn)
	if err != nil {
		if errors.Is(err, windows.WSAENOTSOCK) {
			return false, nil
		}
		return false, errors.Wrapf(err, "getsockopt SO_ACCEPTCONN on %d", fd)
	}
	if listening == 0 {
		return false, nil
	}

	pfd := wsaPollFd{fd: sock, events: pollRdNorm}
	r1, _, e1 := procWSAPoll.Call(uintptr(unsafe.Pointer(&pfd)), 1, 0)
	if int32(r1) == -1 {
		return false, errors.Wrapf(e1, "WSAPoll listener %d", fd)
	}
	return int32(r1) > 0 && pfd.revents&pollRdNorm != 0, nil
}

type eventWaitSet struct {
	socks  []windows.Handle
	events []windows.Handle
}

func (s *eventWaitSet) Select(fd int, events NetEvents) error {
	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return errors.Wrap(err, "CreateEvent")
	}
	sock := windows.Handle(fd)
	s.socks = append(s.socks, sock)
	s.events = append(s.events, ev)

	r1, _, e1 := procWSAEventSelect.Call(uintptr(sock), uintptr(ev), uintptr(events&^NetError))
	if int32(r1) == -1 {
		return errors.Wrapf(e1, "WSAEventSelect %d", fd)
	}
	return nil
}

func (s *eventWaitSet) WaitAny(timeout time.Duration) (int, bool, error) {
	if len(s.events) == 0 {
		return 0, false, nil
	}
	ret, err := windows.WaitForMultipleObjects(s.events, false, uint32(durationToMillis(timeout)))
	if err != nil {
		return 0, false, errors.Wrap(err, "WaitForMultipleObjects")
	}
	if ret == uint32(windows.WAIT_TIMEOUT) {
		return 0, false, nil
	}
	slot := int(ret - windows.WAIT_OBJECT_0)
	if slot < 0 || slot >= len(s.events) {
		return 0, false, errors.Errorf("WaitForMultipleObjects returned %#x", ret)
	}
	return slot, true, nil
}

func (s *eventWaitSet) Enumerate(slot int) (NetEvents, error) {
	var ne wsaNetworkEvents
	r1, _, e1 := procWSAEnumNetworkEvents.Call(
		uintptr(s.socks[slot]),
		uintptr(s.events[slot]),
		uintptr(unsafe.Pointer(&ne)),
	)
	if int32(r1) == -1 {
		return 0, errors.Wrapf(e1, "WSAEnumNetworkEvents %d", s.socks[slot])
	}

	n := NetEvents(ne.NetworkEvents) & (NetRead | NetWrite | NetOOB | NetAccept | NetConnect | NetClose)
	for bit := 0; bit < fdMaxEvents; bit++ {
		if n&(1<<bit) != 0 && ne.ErrorCode[bit] != 0 {
			n |= NetError
			break
		}
	}
	return n, nil
}

// Close cancels the event association of every socket and frees the
// event objects.
func (s *eventWaitSet) Close() error {
	var first error
	for i := range s.events {
		r1, _, e1 := procWSAEventSelect.Call(uintptr(s.socks[i]), 0, 0)
		if int32(r1) == -1 && first == nil {
			first = errors.Wrapf(e1, "WSAEventSelect reset %d", s.socks[i])
		}
		if err := windows.CloseHandle(s.events[i]); err != nil && first == nil {
			first = errors.Wrap(err, "CloseHandle")
		}
	}
	s.socks, s.events = nil, nil
	return first
}
