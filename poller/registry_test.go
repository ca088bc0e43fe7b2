package poller

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistry_AgainstModel drives random add/mod/del sequences against a
// map model and compares outcomes and final contents.
func TestRegistry_AgainstModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	masks := []EventMask{CPOLLIN, CPOLLOUT, CPOLLIN | CPOLLOUT, CPOLLIN | CPOLLONESHOT, CPOLLPRI | CPOLLET, 0}

	for round := 0; round < 50; round++ {
		reg := newRegistry()
		model := make(map[int]Event)
		var order []int

		for step := 0; step < 200; step++ {
			fd := rng.Intn(12)
			ev := Event{Events: masks[rng.Intn(len(masks))], Data: Data(rng.Uint64())}
			_, present := model[fd]

			switch rng.Intn(3) {
			case 0:
				err := reg.add(fd, ev)
				if present {
					assert.True(t, errors.Is(err, errs.NewAlreadyExistsErr()))
					continue
				}
				require.Nil(t, err)
				model[fd] = Event{Events: ev.Events | CPOLLHUP | CPOLLERR, Data: ev.Data}
				order = append(order, fd)
			case 1:
				err := reg.mod(fd, ev)
				if !present {
					assert.True(t, errors.Is(err, errs.NewNotFoundErr()))
					continue
				}
				require.Nil(t, err)
				model[fd] = Event{Events: ev.Events | CPOLLHUP | CPOLLERR, Data: ev.Data}
			case 2:
				err := reg.del(fd)
				if !present {
					assert.True(t, errors.Is(err, errs.NewNotFoundErr()))
					continue
				}
				require.Nil(t, err)
				delete(model, fd)
				for i, o := range order {
					if o == fd {
						order = append(order[:i], order[i+1:]...)
						break
					}
				}
			}
		}

		got := reg.snapshot()
		require.Equal(t, len(order), len(got))
		for i, ent := range got {
			assert.Equal(t, order[i], ent.fd)
			assert.Equal(t, model[ent.fd], ent.event)
			assert.Equal(t, CPOLLHUP|CPOLLERR, ent.event.Events&(CPOLLHUP|CPOLLERR))
		}
	}
}

func TestRegistry_ModKeepData(t *testing.T) {
	reg := newRegistry()
	require.Nil(t, reg.add(1, Event{Events: CPOLLIN, Data: 99}))
	require.Nil(t, reg.mod(1, *ModEvents(CPOLLOUT)))

	got := reg.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, CPOLLOUT|CPOLLHUP|CPOLLERR, got[0].event.Events)
	assert.Equal(t, Data(99), got[0].event.Data)
	assert.False(t, got[0].event.keepData)
}
