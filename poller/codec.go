package poller

// NetEvents is the native event-object mask. The low bits share the
// Winsock FD_* values so the windows substrate hands them over unchanged.
type NetEvents uint32

const (
	NetRead    NetEvents = 0x01
	NetWrite   NetEvents = 0x02
	NetOOB     NetEvents = 0x04
	NetAccept  NetEvents = 0x08
	NetConnect NetEvents = 0x10
	NetClose   NetEvents = 0x20

	// NetError is not an FD_* bit. Substrates set it when the native layer
	// attached an error code to any reported event.
	NetError NetEvents = 1 << 16
)

// ToNative translates an interest mask into the events to arm on the
// native object. CPOLLRDHUP, CPOLLPRI, CPOLLERR, CPOLLET and CPOLLONESHOT
// have no native counterpart and are dropped here; the wait engine handles
// one-shot itself and errors are reported whenever the native layer sees
// them.
func ToNative(m EventMask) NetEvents {
	var n NetEvents
	if m&CPOLLIN != 0 {
		n |= NetRead
	}
	if m&CPOLLOUT != 0 {
		n |= NetWrite
	}
	if m&CPOLLHUP != 0 {
		n |= NetClose
	}
	return n
}

// FromNative translates the native events reported for one handle into a
// ready mask. Bits without a portable meaning (NetOOB, NetConnect) vanish.
func FromNative(n NetEvents) EventMask {
	var m EventMask
	if n&(NetRead|NetAccept) != 0 {
		m |= CPOLLIN
	}
	if n&NetWrite != 0 {
		m |= CPOLLOUT
	}
	if n&NetClose != 0 {
		m |= CPOLLHUP
	}
	if n&NetError != 0 {
		m |= CPOLLERR
	}
	return m
}

// Unsupported reports the bits of m the emulated backend accepts but
// cannot honour.
func Unsupported(m EventMask) EventMask {
	return m & (CPOLLRDHUP | CPOLLPRI | CPOLLET)
}
