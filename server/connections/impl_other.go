//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package connections

import "github.com/pkg/errors"

func Listen(addr [4]byte, port int) (IListener, error) {
	return nil, errors.New("raw socket listener not supported on this platform")
}

func IsWouldBlock(err error) bool {
	return false
}

func IsInterrupted(err error) bool {
	return false
}

func IsAbortedAccept(err error) bool {
	return false
}
