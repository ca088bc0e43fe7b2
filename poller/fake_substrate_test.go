package poller

import (
	"sync"
	"time"
)

// fakeSubstrate keeps a level-triggered readiness table per fd that tests
// flip from any goroutine.
type fakeSubstrate struct {
	mu        sync.Mutex
	ready     map[int]NetEvents
	pending   map[int]bool
	perSet    int
	enumErr   error
	waitErr   error
	selects   int
	openSets  int
	closeSets int
}

func newFakeSubstrate() *fakeSubstrate {
	return &fakeSubstrate{
		ready:   make(map[int]NetEvents),
		pending: make(map[int]bool),
		perSet:  maxWaitObjects,
	}
}

func (f *fakeSubstrate) setReady(fd int, ev NetEvents) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready[fd] = ev
}

func (f *fakeSubstrate) setPending(fd int, pending bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[fd] = pending
}

func (f *fakeSubstrate) selectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selects
}

func (f *fakeSubstrate) balance() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openSets, f.closeSets
}

func (f *fakeSubstrate) MaxWaitObjects() int {
	return f.perSet
}

func (f *fakeSubstrate) NewWaitSet() (WaitSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openSets++
	return &fakeWaitSet{sub: f}, nil
}

func (f *fakeSubstrate) AcceptPending(fd int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[fd], nil
}

type fakeWaitSet struct {
	sub   *fakeSubstrate
	fds   []int
	armed []NetEvents
}

func (s *fakeWaitSet) Select(fd int, events NetEvents) error {
	s.fds = append(s.fds, fd)
	s.armed = append(s.armed, events)
	s.sub.mu.Lock()
	s.sub.selects++
	s.sub.mu.Unlock()
	return nil
}

func (s *fakeWaitSet) state(slot int) NetEvents {
	return s.sub.ready[s.fds[slot]] & (s.armed[slot] | NetClose | NetError)
}

func (s *fakeWaitSet) WaitAny(timeout time.Duration) (int, bool, error) {
	s.sub.mu.Lock()
	if s.sub.waitErr != nil {
		s.sub.mu.Unlock()
		return 0, false, s.sub.waitErr
	}
	for i := range s.fds {
		if s.state(i) != 0 {
			s.sub.mu.Unlock()
			return i, true, nil
		}
	}
	s.sub.mu.Unlock()
	time.Sleep(timeout)
	return 0, false, nil
}

func (s *fakeWaitSet) Enumerate(slot int) (NetEvents, error) {
	s.sub.mu.Lock()
	defer s.sub.mu.Unlock()
	if s.sub.enumErr != nil {
		return 0, s.sub.enumErr
	}
	return s.state(slot), nil
}

func (s *fakeWaitSet) Close() error {
	s.sub.mu.Lock()
	defer s.sub.mu.Unlock()
	s.sub.closeSets++
	return nil
}
