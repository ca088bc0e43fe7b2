//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package poller

import "github.com/pkg/errors"

var errNoSubstrate = errors.New("no readiness primitive on this platform")

type unsupportedSubstrate struct{}

func newSubstrate() Substrate {
	return unsupportedSubstrate{}
}

func (unsupportedSubstrate) MaxWaitObjects() int {
	return maxWaitObjects
}

func (unsupportedSubstrate) NewWaitSet() (WaitSet, error) {
	return nil, errNoSubstrate
}

func (unsupportedSubstrate) AcceptPending(int) (bool, error) {
	return false, errNoSubstrate
}
