//go:build windows

package poller

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// Startup initialises Winsock 2.2. Call it once before creating poll sets.
func Startup() error {
	var data windows.WSAData
	if err := windows.WSAStartup(uint32(0x0202), &data); err != nil {
		return errors.Wrap(err, "WSAStartup")
	}
	return nil
}

// Cleanup drops every poll set of the default poller and releases Winsock.
func Cleanup() {
	resetDefault()
	if err := windows.WSACleanup(); err != nil {
		logger.Warn("WSACleanup failed", zap.Error(err))
	}
}
