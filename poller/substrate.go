package poller

import "time"

// maxWaitObjects is the per-wait handle limit of the Windows event-object
// primitive (WSA_MAXIMUM_WAIT_EVENTS). The poll(2) substrate adopts the
// same limit so both platforms exercise the same chunking.
const maxWaitObjects = 64

// Substrate is the per-handle readiness primitive the emulated backend is
// built on. A fresh WaitSet is armed for every wait iteration and closed
// before the iteration returns, so nothing native outlives one critical
// section.
type Substrate interface {
	// MaxWaitObjects bounds how many handles one WaitSet may hold.
	MaxWaitObjects() int
	NewWaitSet() (WaitSet, error)
	// AcceptPending reports whether fd is a listening socket with at least
	// one connection ready to be accepted. Non-sockets report false.
	AcceptPending(fd int) (bool, error)
}

// WaitSet is one armed group of handles. Slots are numbered in Select order.
type WaitSet interface {
	Select(fd int, events NetEvents) error
	// WaitAny blocks up to timeout for any slot to be signalled and returns
	// the lowest signalled slot.
	WaitAny(timeout time.Duration) (slot int, signaled bool, err error)
	// Enumerate reads and resets the native events pending on slot.
	Enumerate(slot int) (NetEvents, error)
	// Close disarms every slot and releases the native objects.
	Close() error
}

// durationToMillis rounds up so a short positive slice never becomes a
// zero-timeout busy poll.
func durationToMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}
