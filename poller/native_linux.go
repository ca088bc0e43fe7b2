//go:build linux

package poller

import (
	"sync"
	"time"
	"unsafe"

	"github.com/Trinoooo/eggie_poll/consts"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// EpollPoller passes straight through to epoll. Errors are the raw
// unix.Errno values epoll returns.
type EpollPoller struct {
	mu sync.Mutex
	// tags mirrors the data registered per (epfd, fd) so ModEvents can keep
	// it; epoll itself always overwrites data on MOD.
	tags map[epollKey]Data

	metrics *MetricsHelper
}

type epollKey struct {
	epfd int
	fd   int
}

func NewEpollPoller(opts ...Option) *EpollPoller {
	o := newOptions(opts)
	return &EpollPoller{
		tags:    make(map[epollKey]Data),
		metrics: o.metrics,
	}
}

func (ep *EpollPoller) Create(size int) (int, error) {
	if size < 0 {
		return -1, unix.EINVAL
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return -1, err
	}
	logger.Debug("epoll created", zap.Int(consts.LogFieldPollFd, epfd))
	return epfd, nil
}

func (ep *EpollPoller) Ctl(epfd int, op Op, fd int, event *Event) error {
	key := epollKey{epfd: epfd, fd: fd}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	var raw *unix.EpollEvent
	var data Data
	if event != nil {
		data = event.Data
		if event.keepData && op == CPOLL_CTL_MOD {
			data = ep.tags[key]
		}
		raw = &unix.EpollEvent{Events: uint32(event.Events)}
		setEpollData(raw, data)
	}
	if err := unix.EpollCtl(epfd, int(op), fd, raw); err != nil {
		return err
	}

	switch op {
	case CPOLL_CTL_ADD, CPOLL_CTL_MOD:
		ep.tags[key] = data
	case CPOLL_CTL_DEL:
		delete(ep.tags, key)
	}
	ep.metrics.observeCtl(op)
	return nil
}

func (ep *EpollPoller) Wait(epfd int, events []Event, timeoutMs int) (n int, err error) {
	if len(events) < 1 {
		return 0, unix.EINVAL
	}
	start := time.Now()
	defer func() {
		ep.metrics.observeWait(start, n, nil)
	}()

	raw := make([]unix.EpollEvent, len(events))
	n, err = unix.EpollWait(epfd, raw, timeoutMs)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		events[i] = Event{Events: EventMask(raw[i].Events), Data: epollData(&raw[i])}
	}
	return n, nil
}

func (ep *EpollPoller) Close(epfd int) error {
	if err := unix.Close(epfd); err != nil {
		return err
	}
	ep.mu.Lock()
	for key := range ep.tags {
		if key.epfd == epfd {
			delete(ep.tags, key)
		}
	}
	ep.mu.Unlock()
	return nil
}

// unix.EpollEvent splits epoll_data_t into Fd and Pad (with a leading pad
// on some arches); Fd and the word after it are contiguous everywhere, so
// the union is read and written through Fd's address.

func setEpollData(ev *unix.EpollEvent, d Data) {
	*(*uint64)(unsafe.Pointer(&ev.Fd)) = uint64(d)
}

func epollData(ev *unix.EpollEvent) Data {
	return Data(*(*uint64)(unsafe.Pointer(&ev.Fd)))
}

func newNativePoller(opts ...Option) Poller {
	return NewEpollPoller(opts...)
}
