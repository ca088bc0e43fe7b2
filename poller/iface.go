package poller

// Poller is the epoll-shaped readiness API. Descriptors returned by Create
// are only meaningful to the Poller that issued them.
type Poller interface {
	// Create opens an empty poll set. size is a hint and must not be negative.
	Create(size int) (int, error)
	Ctl(cpfd int, op Op, fd int, event *Event) error
	// Wait fills events with up to len(events) ready records and returns how
	// many it wrote. timeoutMs < 0 waits forever, 0 polls once.
	Wait(cpfd int, events []Event, timeoutMs int) (int, error)
	Close(cpfd int) error
}
