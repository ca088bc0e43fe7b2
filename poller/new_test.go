package poller

import (
	"errors"
	"testing"

	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New(consts.BackendEmulated)
	require.Nil(t, err)
	_, ok := p.(*Emulator)
	assert.True(t, ok)

	p, err = New("")
	require.Nil(t, err)
	assert.NotNil(t, p)

	_, err = New("kqueue")
	assert.True(t, errors.Is(err, errs.NewUnsupportedBackendErr()))
}

func TestDefault(t *testing.T) {
	em, sub := newTestEmulator()
	SetDefault(em)
	defer SetDefault(nil)

	require.Nil(t, Startup())
	cpfd, err := Create(1)
	require.Nil(t, err)
	require.Nil(t, Ctl(cpfd, CPOLL_CTL_ADD, 3, &Event{Events: CPOLLIN, Data: FdData(3)}))
	sub.setReady(3, NetRead)

	events := make([]Event, 1)
	n, err := Wait(cpfd, events, 100)
	require.Nil(t, err)
	assert.Equal(t, 1, n)

	Cleanup()
	assert.True(t, errors.Is(Close(cpfd), errs.NewInvalidDescriptorErr()))
}
