//go:build linux || darwin || freebsd || netbsd || openbsd

package handle

import (
	"fmt"
	"testing"

	"github.com/Trinoooo/eggie_poll/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ListenDialWait(t *testing.T) {
	s := NewSession(poller.NewEmulator())
	defer s.Release()

	out, err := s.dispatch("listen", []string{"0"})
	require.Nil(t, err)
	assert.Contains(t, out, "listener fd")
	require.Len(t, s.listeners, 1)
	var lfd int
	for fd := range s.listeners {
		lfd = fd
	}
	addr := s.listeners[lfd].Addr().String()

	out, err = s.dispatch("create", nil)
	require.Nil(t, err)
	assert.Equal(t, "poll set 1", out)

	_, err = s.dispatch("add", []string{"1", fmt.Sprint(lfd), "IN|ONESHOT"})
	require.Nil(t, err)

	_, err = s.dispatch("dial", []string{addr})
	require.Nil(t, err)

	out, err = s.dispatch("wait", []string{"1", "4", "1000"})
	require.Nil(t, err)
	assert.Contains(t, out, "1 ready")
	assert.Contains(t, out, "IN")

	out, err = s.dispatch("dump", []string{"1"})
	require.Nil(t, err)
	assert.Contains(t, out, fmt.Sprint(lfd))

	out, err = s.dispatch("accept", []string{fmt.Sprint(lfd)})
	require.Nil(t, err)
	assert.Contains(t, out, "accepted fd")

	_, err = s.dispatch("close", []string{"1"})
	require.Nil(t, err)
	_, err = s.dispatch("wait", []string{"1"})
	assert.NotNil(t, err)
}

func TestSession_BadInput(t *testing.T) {
	s := NewSession(poller.NewEmulator())

	assert.Equal(t, "", s.Handle("   "))
	assert.Contains(t, s.Handle("frobnicate"), "unsupported command")
	assert.Contains(t, s.Handle("add 1"), "missing fd")
	assert.Contains(t, s.Handle("add 1 3 IN|BOGUS"), "bad mask")
	assert.Contains(t, s.Handle("wait x"), "parse cpfd")
}
