package poller

import "github.com/Trinoooo/eggie_poll/errs"

type entry struct {
	fd    int
	event Event
}

// registry holds the watched descriptors of one poll set in insertion
// order. Lookups are linear; poll sets are expected to stay small.
type registry struct {
	entries []entry
}

func newRegistry() *registry {
	return &registry{}
}

func (r *registry) find(fd int) int {
	for i := range r.entries {
		if r.entries[i].fd == fd {
			return i
		}
	}
	return -1
}

func (r *registry) add(fd int, ev Event) error {
	if r.find(fd) >= 0 {
		return errs.NewAlreadyExistsErr()
	}
	r.entries = append(r.entries, entry{
		fd: fd,
		event: Event{
			Events: ev.Events | CPOLLHUP | CPOLLERR,
			Data:   ev.Data,
		},
	})
	return nil
}

func (r *registry) mod(fd int, ev Event) error {
	idx := r.find(fd)
	if idx < 0 {
		return errs.NewNotFoundErr()
	}
	e := &r.entries[idx]
	e.event.Events = ev.Events | CPOLLHUP | CPOLLERR
	if !ev.keepData {
		e.event.Data = ev.Data
	}
	return nil
}

func (r *registry) del(fd int) error {
	idx := r.find(fd)
	if idx < 0 {
		return errs.NewNotFoundErr()
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	return nil
}

func (r *registry) size() int {
	return len(r.entries)
}

// snapshot copies the entries out, for dumps and tests.
func (r *registry) snapshot() []entry {
	out := make([]entry, len(r.entries))
	copy(out, r.entries)
	return out
}
