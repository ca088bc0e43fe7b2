//go:build linux || darwin || freebsd || netbsd || openbsd

package poller

import (
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func listenLoopback(t *testing.T) (int, int) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	require.Nil(t, err)
	require.Nil(t, unix.Bind(fd, &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}))
	require.Nil(t, unix.Listen(fd, 16))
	sa, err := unix.Getsockname(fd)
	require.Nil(t, err)
	return fd, sa.(*unix.SockaddrInet4).Port
}

func socketPair(t *testing.T) (int, int) {
	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.Nil(t, err)
	t.Cleanup(func() {
		_ = unix.Close(pair[0])
		_ = unix.Close(pair[1])
	})
	return pair[0], pair[1]
}

func TestPollSubstrate_AcceptPending(t *testing.T) {
	sub := newSubstrate()
	lfd, port := listenLoopback(t)
	defer unix.Close(lfd)

	pending, err := sub.AcceptPending(lfd)
	require.Nil(t, err)
	assert.False(t, pending)

	conn, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
	require.Nil(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		pending, err := sub.AcceptPending(lfd)
		return err == nil && pending
	}, time.Second, 5*time.Millisecond)

	a, _ := socketPair(t)
	pending, err = sub.AcceptPending(a)
	assert.Nil(t, err)
	assert.False(t, pending)
}

func TestEmulator_ListeningSocket(t *testing.T) {
	em := NewEmulator()
	cpfd, err := em.Create(1)
	require.Nil(t, err)
	defer em.Close(cpfd)

	lfd, port := listenLoopback(t)
	defer unix.Close(lfd)
	require.Nil(t, em.Ctl(cpfd, CPOLL_CTL_ADD, lfd, &Event{Events: CPOLLIN, Data: FdData(lfd)}))

	n, err := em.Wait(cpfd, make([]Event, 4), 0)
	require.Nil(t, err)
	assert.Equal(t, 0, n)

	conn, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
	require.Nil(t, err)
	defer conn.Close()

	events := make([]Event, 4)
	n, err = em.Wait(cpfd, events, 1000)
	require.Nil(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, CPOLLIN, events[0].Events&CPOLLIN)
	assert.Equal(t, lfd, events[0].Data.Fd())
}

func TestEmulator_TwoReadySocketsCapacityOne(t *testing.T) {
	em := NewEmulator()
	cpfd, err := em.Create(2)
	require.Nil(t, err)
	defer em.Close(cpfd)

	a, peerA := socketPair(t)
	b, peerB := socketPair(t)
	require.Nil(t, em.Ctl(cpfd, CPOLL_CTL_ADD, a, &Event{Events: CPOLLIN, Data: FdData(a)}))
	require.Nil(t, em.Ctl(cpfd, CPOLL_CTL_ADD, b, &Event{Events: CPOLLIN, Data: FdData(b)}))
	_, err = unix.Write(peerA, []byte("a"))
	require.Nil(t, err)
	_, err = unix.Write(peerB, []byte("b"))
	require.Nil(t, err)

	events := make([]Event, 1)
	n, err := em.Wait(cpfd, events, 1000)
	require.Nil(t, err)
	require.Equal(t, 1, n)
	fd := events[0].Data.Fd()
	assert.True(t, fd == a || fd == b)
}

func TestEmulator_PeerHangup(t *testing.T) {
	em := NewEmulator()
	cpfd, err := em.Create(1)
	require.Nil(t, err)
	defer em.Close(cpfd)

	a, peer := socketPair(t)
	require.Nil(t, em.Ctl(cpfd, CPOLL_CTL_ADD, a, &Event{Events: CPOLLIN | CPOLLONESHOT, Data: FdData(a)}))
	require.Nil(t, unix.Shutdown(peer, unix.SHUT_RDWR))

	events := make([]Event, 1)
	n, err := em.Wait(cpfd, events, 1000)
	require.Nil(t, err)
	require.Equal(t, 1, n)
	assert.NotZero(t, events[0].Events&(CPOLLIN|CPOLLHUP))

	n, err = em.Wait(cpfd, events, 30)
	require.Nil(t, err)
	assert.Equal(t, 0, n)
}

func TestEmulator_ClosedDescriptorIsNativeFailure(t *testing.T) {
	em := NewEmulator()
	cpfd, err := em.Create(1)
	require.Nil(t, err)
	defer em.Close(cpfd)

	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.Nil(t, err)
	require.Nil(t, em.Ctl(cpfd, CPOLL_CTL_ADD, pair[0], &Event{Events: CPOLLOUT}))
	require.Nil(t, unix.Close(pair[0]))
	require.Nil(t, unix.Close(pair[1]))

	n, err := em.Wait(cpfd, make([]Event, 1), 100)
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, errs.NewNativeFailureErr()))
}
