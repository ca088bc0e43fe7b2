package poller

import (
	"sync"

	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/pkg/errors"
)

// New builds a Poller for backend: consts.BackendNative (epoll on linux,
// the emulator elsewhere) or consts.BackendEmulated. An empty backend means
// native.
func New(backend string, opts ...Option) (Poller, error) {
	switch backend {
	case "", consts.BackendNative:
		return newNativePoller(opts...), nil
	case consts.BackendEmulated:
		return NewEmulator(opts...), nil
	default:
		return nil, errs.NewUnsupportedBackendErr().WithErr(errors.Errorf("backend %q", backend))
	}
}

var (
	defaultMu     sync.Mutex
	defaultPoller Poller
)

// Default returns the process-wide poller used by the package level
// functions, building a native one on first use.
func Default() Poller {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultPoller == nil {
		defaultPoller = newNativePoller()
	}
	return defaultPoller
}

// SetDefault replaces the process-wide poller.
func SetDefault(p Poller) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultPoller = p
}

func resetDefault() {
	defaultMu.Lock()
	p := defaultPoller
	defaultMu.Unlock()
	if r, ok := p.(interface{ Reset() }); ok {
		r.Reset()
	}
}

func Create(size int) (int, error) {
	return Default().Create(size)
}

func Ctl(cpfd int, op Op, fd int, event *Event) error {
	return Default().Ctl(cpfd, op, fd, event)
}

func Wait(cpfd int, events []Event, timeoutMs int) (int, error) {
	return Default().Wait(cpfd, events, timeoutMs)
}

func Close(cpfd int) error {
	return Default().Close(cpfd)
}
