package utils

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// HandlePanic runs fn and turns a panic into an error log entry, so a broken
// handler cannot take a reactor down with it.
func HandlePanic(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("recovered from panic: %v", r)
		}
	}()

	fn()
}
