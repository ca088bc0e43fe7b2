package poller

import (
	"strconv"
	"strings"
)

// EventMask is the portable interest / ready mask. See flags_linux.go and
// flags_other.go for the bit values.
//
// Not every flag can be honoured by the emulated backend: CPOLLET,
// CPOLLPRI and CPOLLRDHUP are accepted and stored but have no event-object
// counterpart, so an emulated poll set is always level-triggered and never
// reports them. Unsupported returns the affected bits for a mask.
type EventMask uint32

// Op selects what Ctl does with a descriptor.
type Op int

// Data is the opaque user tag attached to a watched descriptor, the Go
// spelling of epoll_data_t. The poller never interprets it.
type Data uint64

func FdData(fd int) Data {
	return Data(uint32(int32(fd)))
}

func U32Data(v uint32) Data {
	return Data(v)
}

func (d Data) Fd() int {
	return int(int32(uint32(d)))
}

func (d Data) U32() uint32 {
	return uint32(d)
}

func (d Data) U64() uint64 {
	return uint64(d)
}

// Event is both the Ctl argument and the Wait result record.
type Event struct {
	Events EventMask
	Data   Data

	keepData bool
}

// ModEvents builds a CPOLL_CTL_MOD argument that replaces the interest mask
// and keeps whatever tag is already registered.
func ModEvents(events EventMask) *Event {
	return &Event{Events: events, keepData: true}
}

var maskNames = []struct {
	bit  EventMask
	name string
}{
	{CPOLLIN, "IN"},
	{CPOLLOUT, "OUT"},
	{CPOLLRDHUP, "RDHUP"},
	{CPOLLPRI, "PRI"},
	{CPOLLERR, "ERR"},
	{CPOLLHUP, "HUP"},
	{CPOLLET, "ET"},
	{CPOLLONESHOT, "ONESHOT"},
}

func (m EventMask) String() string {
	if m == 0 {
		return "0"
	}
	var parts []string
	rest := m
	for _, n := range maskNames {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, "|")
}

// ParseEventMask accepts the String form, e.g. "IN|OUT|ONESHOT".
func ParseEventMask(s string) (EventMask, bool) {
	var m EventMask
	for _, part := range strings.Split(s, "|") {
		part = strings.ToUpper(strings.TrimSpace(part))
		part = strings.TrimPrefix(part, "CPOLL")
		if part == "" || part == "0" {
			continue
		}
		found := false
		for _, n := range maskNames {
			if n.name == part {
				m |= n.bit
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return m, true
}

func (o Op) String() string {
	switch o {
	case CPOLL_CTL_ADD:
		return "ADD"
	case CPOLL_CTL_MOD:
		return "MOD"
	case CPOLL_CTL_DEL:
		return "DEL"
	default:
		return "Op(" + strconv.Itoa(int(o)) + ")"
	}
}
