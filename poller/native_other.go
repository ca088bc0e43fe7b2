//go:build !linux

package poller

// Without epoll the emulated poller is the native one.
func newNativePoller(opts ...Option) Poller {
	return NewEmulator(opts...)
}
