//go:build !linux

package poller

const (
	CPOLLIN      EventMask = 0x0001
	CPOLLOUT     EventMask = 0x0002
	CPOLLRDHUP   EventMask = 0x0004
	CPOLLPRI     EventMask = 0x0008
	CPOLLERR     EventMask = 0x0010
	CPOLLHUP     EventMask = 0x0020
	CPOLLET      EventMask = 0x0040
	CPOLLONESHOT EventMask = 0x0080
)

const (
	CPOLL_CTL_ADD Op = iota
	CPOLL_CTL_DEL
	CPOLL_CTL_MOD
)
