package poller

import (
	"sync"
	"time"

	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/Trinoooo/eggie_poll/logs"
	"github.com/Trinoooo/eggie_poll/utils"
	"github.com/luci/go-render/render"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var logger = logs.Named("poller")

// Emulator implements Poller on top of a Substrate. Every poll set lives in
// one table behind a single guard; Ctl, Create and Close hold the guard for
// their whole body and Wait holds it for one slice at a time, so a control
// call issued during a long wait is delayed by at most one slice.
type Emulator struct {
	guard sync.Mutex

	substrate Substrate
	sets      map[int]*registry
	lastID    int
	maxID     int
	slice     time.Duration

	metrics *MetricsHelper
}

func NewEmulator(opts ...Option) *Emulator {
	o := newOptions(opts)
	return &Emulator{
		substrate: o.substrate,
		sets:      make(map[int]*registry),
		maxID:     o.maxPollSets,
		slice:     o.waitSlice,
		metrics:   o.metrics,
	}
}

func (e *Emulator) Create(size int) (int, error) {
	if size < 0 {
		return -1, errs.NewInvalidParamErr().WithErr(errors.Errorf("negative size hint %d", size))
	}

	id := -1
	err := utils.WrapLockErr(&e.guard, func() error {
		next, ok := e.allocateID()
		if !ok {
			return errs.NewResourceExhaustedErr().WithErr(errors.Errorf("all %d poll set ids in use", e.maxID))
		}
		id = next
		e.sets[id] = newRegistry()
		e.metrics.observeOpenSets(len(e.sets))
		return nil
	})
	if err != nil {
		return -1, err
	}

	logger.Debug("poll set created", zap.Int(consts.LogFieldPollFd, id))
	return id, nil
}

// allocateID hands out ids in increasing order, wrapping back to 1 after
// maxID and skipping ids still open. A just-closed id is therefore not
// reissued until the whole id space has been walked.
func (e *Emulator) allocateID() (int, bool) {
	for i := 0; i < e.maxID; i++ {
		e.lastID++
		if e.lastID <= 0 || e.lastID > e.maxID {
			e.lastID = 1
		}
		if _, used := e.sets[e.lastID]; !used {
			return e.lastID, true
		}
	}
	return 0, false
}

func (e *Emulator) Close(cpfd int) error {
	err := utils.WrapLockErr(&e.guard, func() error {
		if _, ok := e.sets[cpfd]; !ok {
			return errs.NewInvalidDescriptorErr()
		}
		delete(e.sets, cpfd)
		e.metrics.observeOpenSets(len(e.sets))
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("poll set closed", zap.Int(consts.LogFieldPollFd, cpfd))
	return nil
}

func (e *Emulator) Ctl(cpfd int, op Op, fd int, event *Event) error {
	err := utils.WrapLockErr(&e.guard, func() error {
		reg, ok := e.sets[cpfd]
		if !ok {
			return errs.NewInvalidDescriptorErr()
		}
		switch op {
		case CPOLL_CTL_ADD:
			if event == nil {
				return errs.NewInvalidParamErr().WithErr(errors.New("nil event for add"))
			}
			return reg.add(fd, *event)
		case CPOLL_CTL_MOD:
			if event == nil {
				return errs.NewInvalidParamErr().WithErr(errors.New("nil event for mod"))
			}
			return reg.mod(fd, *event)
		case CPOLL_CTL_DEL:
			return reg.del(fd)
		default:
			return errs.NewInvalidParamErr().WithErr(errors.Errorf("unknown op %d", op))
		}
	})
	if err != nil {
		return err
	}

	e.metrics.observeCtl(op)
	if event != nil && op != CPOLL_CTL_DEL {
		if degraded := Unsupported(event.Events); degraded != 0 {
			logger.Warn("flags not honoured by emulated poller",
				zap.Int(consts.LogFieldPollFd, cpfd),
				zap.Int(consts.LogFieldFd, fd),
				zap.Stringer(consts.LogFieldEvents, degraded))
		}
	}
	return nil
}

// SetWaitSlice changes the slice used by later wait iterations.
func (e *Emulator) SetWaitSlice(d time.Duration) {
	if d <= 0 {
		return
	}
	utils.WrapLock(&e.guard, func() {
		e.slice = d
	})
}

func (e *Emulator) waitSlice() time.Duration {
	var d time.Duration
	utils.WrapLock(&e.guard, func() {
		d = e.slice
	})
	return d
}

// Reset drops every poll set. Ids keep advancing from where they were.
func (e *Emulator) Reset() {
	utils.WrapLock(&e.guard, func() {
		e.sets = make(map[int]*registry)
		e.metrics.observeOpenSets(0)
	})
}

// Dump renders the registry of cpfd for debugging.
func (e *Emulator) Dump(cpfd int) (string, error) {
	var out string
	err := utils.WrapLockErr(&e.guard, func() error {
		reg, ok := e.sets[cpfd]
		if !ok {
			return errs.NewInvalidDescriptorErr()
		}
		type watched struct {
			Fd     int
			Events string
			Data   uint64
		}
		view := make([]watched, 0, reg.size())
		for _, ent := range reg.snapshot() {
			view = append(view, watched{Fd: ent.fd, Events: ent.event.Events.String(), Data: ent.event.Data.U64()})
		}
		out = render.Render(view)
		return nil
	})
	return out, err
}
