//go:build !windows

package poller

// Startup is a no-op outside Windows.
func Startup() error {
	return nil
}

// Cleanup drops every poll set of the default poller.
func Cleanup() {
	resetDefault()
}
