//go:build unix

package handle

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/Trinoooo/eggie_poll/poller"
	"github.com/Trinoooo/eggie_poll/server/connections"
	"github.com/Trinoooo/eggie_poll/utils"
	"github.com/luci/go-render/render"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Session is the state of one console: the poller under test plus the
// sockets the user opened, so they can be closed on exit.
type Session struct {
	Poller    poller.Poller
	listeners map[int]connections.IListener
	sockets   map[int]bool
}

func NewSession(p poller.Poller) *Session {
	return &Session{
		Poller:    p,
		listeners: make(map[int]connections.IListener),
		sockets:   make(map[int]bool),
	}
}

// Commands lists every verb Handle understands, for completion.
var Commands = []string{
	"listen", "dial", "accept", "send", "recv", "shut",
	"create", "add", "mod", "del", "wait", "close", "dump",
}

// Handle runs one console line and returns what to print.
func (s *Session) Handle(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	out, err := s.dispatch(strings.ToLower(fields[0]), fields[1:])
	if err != nil {
		return utils.WrapError("%v", err)
	}
	return utils.WrapInfo("%s", out)
}

func (s *Session) dispatch(cmd string, args []string) (string, error) {
	switch cmd {
	case "listen":
		return s.listen(args)
	case "dial":
		return s.dial(args)
	case "accept":
		return s.accept(args)
	case "send":
		return s.send(args)
	case "recv":
		return s.recv(args)
	case "shut":
		return s.shut(args)
	case "create":
		return s.create(args)
	case "add":
		return s.ctl(poller.CPOLL_CTL_ADD, args)
	case "mod":
		return s.ctl(poller.CPOLL_CTL_MOD, args)
	case "del":
		return s.ctl(poller.CPOLL_CTL_DEL, args)
	case "wait":
		return s.wait(args)
	case "close":
		return s.close(args)
	case "dump":
		return s.dump(args)
	default:
		return "", errors.Errorf("unsupported command %q", cmd)
	}
}

func intArg(args []string, i int, name string) (int, error) {
	if i >= len(args) {
		return 0, errors.Errorf("missing %s", name)
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", name)
	}
	return v, nil
}

// listen <port>
func (s *Session) listen(args []string) (string, error) {
	port, err := intArg(args, 0, "port")
	if err != nil {
		return "", err
	}
	l, err := connections.Listen([4]byte{127, 0, 0, 1}, port)
	if err != nil {
		return "", err
	}
	s.listeners[l.RawFd()] = l
	return fmt.Sprintf("listener fd %d on %s", l.RawFd(), l.Addr()), nil
}

// dial <host:port>
func (s *Session) dial(args []string) (string, error) {
	if len(args) < 1 {
		return "", errors.New("missing address")
	}
	addr, err := net.ResolveTCPAddr("tcp4", args[0])
	if err != nil {
		return "", err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return "", err
	}
	sa := &unix.SockaddrInet4{Port: addr.Port}
	copy(sa.Addr[:], addr.IP.To4())
	if err = unix.Connect(fd, sa); err != nil {
		_ = unix.Close(fd)
		return "", err
	}
	if err = unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return "", err
	}
	s.sockets[fd] = true
	return fmt.Sprintf("socket fd %d connected to %s", fd, addr), nil
}

// accept <listener fd>
func (s *Session) accept(args []string) (string, error) {
	lfd, err := intArg(args, 0, "listener fd")
	if err != nil {
		return "", err
	}
	l, ok := s.listeners[lfd]
	if !ok {
		return "", errors.Errorf("fd %d is not a console listener", lfd)
	}
	conn, err := l.Accept()
	if err != nil {
		return "", err
	}
	s.sockets[conn.RawFd()] = true
	return fmt.Sprintf("accepted fd %d from %s", conn.RawFd(), conn.RemoteAddr()), nil
}

// send <fd> <text...>
func (s *Session) send(args []string) (string, error) {
	fd, err := intArg(args, 0, "fd")
	if err != nil {
		return "", err
	}
	n, err := unix.Write(fd, []byte(strings.Join(args[1:], " ")))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("sent %d bytes", n), nil
}

// recv <fd>
func (s *Session) recv(args []string) (string, error) {
	fd, err := intArg(args, 0, "fd")
	if err != nil {
		return "", err
	}
	buf := make([]byte, 4096)
	n, err := unix.Read(fd, buf)
	if err != nil {
		if connections.IsWouldBlock(err) {
			return "nothing to read", nil
		}
		return "", err
	}
	if n == 0 {
		return "eof", nil
	}
	return fmt.Sprintf("%q", buf[:n]), nil
}

// shut <fd>
func (s *Session) shut(args []string) (string, error) {
	fd, err := intArg(args, 0, "fd")
	if err != nil {
		return "", err
	}
	if l, ok := s.listeners[fd]; ok {
		delete(s.listeners, fd)
		return "listener closed", l.Close()
	}
	delete(s.sockets, fd)
	return "socket closed", unix.Close(fd)
}

// create [size]
func (s *Session) create(args []string) (string, error) {
	size := 1
	if len(args) > 0 {
		v, err := intArg(args, 0, "size")
		if err != nil {
			return "", err
		}
		size = v
	}
	cpfd, err := s.Poller.Create(size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("poll set %d", cpfd), nil
}

// add|mod <cpfd> <fd> <mask> [data], del <cpfd> <fd>
func (s *Session) ctl(op poller.Op, args []string) (string, error) {
	cpfd, err := intArg(args, 0, "cpfd")
	if err != nil {
		return "", err
	}
	fd, err := intArg(args, 1, "fd")
	if err != nil {
		return "", err
	}
	if op == poller.CPOLL_CTL_DEL {
		return "ok", s.Poller.Ctl(cpfd, op, fd, nil)
	}
	if len(args) < 3 {
		return "", errors.New("missing mask, e.g. IN|ONESHOT")
	}
	mask, ok := poller.ParseEventMask(args[2])
	if !ok {
		return "", errors.Errorf("bad mask %q", args[2])
	}

	var ev *poller.Event
	switch {
	case len(args) > 3:
		data, err := strconv.ParseUint(args[3], 10, 64)
		if err != nil {
			return "", errors.Wrap(err, "parse data")
		}
		ev = &poller.Event{Events: mask, Data: poller.Data(data)}
	case op == poller.CPOLL_CTL_MOD:
		ev = poller.ModEvents(mask)
	default:
		ev = &poller.Event{Events: mask, Data: poller.FdData(fd)}
	}
	if unsupported := poller.Unsupported(mask); unsupported != 0 {
		if _, emulated := s.Poller.(*poller.Emulator); emulated {
			return utils.WrapWarn("%s accepted but not honoured", unsupported), s.Poller.Ctl(cpfd, op, fd, ev)
		}
	}
	return "ok", s.Poller.Ctl(cpfd, op, fd, ev)
}

// wait <cpfd> [max] [timeout ms]
func (s *Session) wait(args []string) (string, error) {
	cpfd, err := intArg(args, 0, "cpfd")
	if err != nil {
		return "", err
	}
	capacity, timeout := 16, 0
	if len(args) > 1 {
		if capacity, err = intArg(args, 1, "max"); err != nil {
			return "", err
		}
	}
	if len(args) > 2 {
		if timeout, err = intArg(args, 2, "timeout"); err != nil {
			return "", err
		}
	}
	if capacity < 1 {
		capacity = 1
	}
	events := make([]poller.Event, capacity)
	n, err := s.Poller.Wait(cpfd, events, timeout)
	if err != nil {
		return "", err
	}
	lines := []string{fmt.Sprintf("%d ready", n)}
	for _, ev := range events[:n] {
		lines = append(lines, fmt.Sprintf("  data %d: %s", ev.Data.U64(), ev.Events))
	}
	return strings.Join(lines, "\n"), nil
}

// close <cpfd>
func (s *Session) close(args []string) (string, error) {
	cpfd, err := intArg(args, 0, "cpfd")
	if err != nil {
		return "", err
	}
	return "ok", s.Poller.Close(cpfd)
}

// dump <cpfd>
func (s *Session) dump(args []string) (string, error) {
	cpfd, err := intArg(args, 0, "cpfd")
	if err != nil {
		return "", err
	}
	em, ok := s.Poller.(*poller.Emulator)
	if !ok {
		return render.Render(s.Poller), nil
	}
	return em.Dump(cpfd)
}

// Release closes every socket the session opened.
func (s *Session) Release() {
	for fd, l := range s.listeners {
		_ = l.Close()
		delete(s.listeners, fd)
	}
	for fd := range s.sockets {
		_ = unix.Close(fd)
		delete(s.sockets, fd)
	}
}
