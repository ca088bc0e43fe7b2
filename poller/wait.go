package poller

import (
	"time"

	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/luci/go-render/render"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Wait runs wait iterations until something is ready, the timeout expires
// or the poll set goes away. The guard is only held inside an iteration,
// never across the gap between two of them.
func (e *Emulator) Wait(cpfd int, events []Event, timeoutMs int) (n int, err error) {
	if len(events) < 1 {
		return 0, errs.NewInvalidParamErr().WithErr(errors.New("no room for results"))
	}

	start := time.Now()
	defer func() {
		e.metrics.observeWait(start, n, err)
	}()

	infinite := timeoutMs < 0
	deadline := start.Add(time.Duration(timeoutMs) * time.Millisecond)
	for {
		slice := e.waitSlice()
		if !infinite {
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			if remaining < slice {
				slice = remaining
			}
		}

		var armed int
		n, armed, err = e.waitOnce(cpfd, events, slice)
		if err != nil {
			return 0, err
		}
		if n > 0 && logger.DebugEnabled() {
			logger.Debug("wait ready",
				zap.Int(consts.LogFieldPollFd, cpfd),
				zap.Int(consts.LogFieldReady, n),
				zap.String(consts.LogFieldEvents, render.Render(events[:n])))
		}
		if n > 0 {
			return n, nil
		}
		if armed == 0 && slice > 0 {
			// Nothing to block on, let control calls in while the slice passes.
			time.Sleep(slice)
		}
		if !infinite && !time.Now().Before(deadline) {
			return 0, nil
		}
	}
}

// slotRef locates one armed registry entry inside the chunked wait sets.
type slotRef struct {
	set   WaitSet
	slot  int
	entry int
}

// waitOnce is a single iteration, run entirely under the guard: probe
// listeners, arm, block for at most slice, enumerate and apply one-shot.
// armed reports how many entries were handed to the substrate.
func (e *Emulator) waitOnce(cpfd int, events []Event, slice time.Duration) (n int, armed int, err error) {
	e.guard.Lock()
	defer e.guard.Unlock()

	reg, ok := e.sets[cpfd]
	if !ok {
		return 0, 0, errs.NewInvalidDescriptorErr()
	}

	limit := len(events)
	reported := make([]bool, reg.size())
	report := func(idx int, ready EventMask) {
		events[n] = Event{Events: ready, Data: reg.entries[idx].event.Data}
		reported[idx] = true
		n++
	}

	for i := range reg.entries {
		if n == limit {
			break
		}
		ent := &reg.entries[i]
		if ent.event.Events&CPOLLIN == 0 {
			continue
		}
		pending, perr := e.substrate.AcceptPending(ent.fd)
		if perr != nil {
			return 0, 0, e.nativeFailure(cpfd, perr)
		}
		if pending {
			report(i, CPOLLIN)
		}
	}

	if n < limit {
		if n > 0 {
			slice = 0
		}
		var refs []slotRef
		var sets []WaitSet
		defer func() {
			for _, set := range sets {
				if cerr := set.Close(); cerr != nil {
					logger.Warn("release wait set failed", zap.Int(consts.LogFieldPollFd, cpfd), zap.Error(cerr))
				}
			}
		}()

		refs, sets, err = e.arm(reg)
		if err != nil {
			logger.Error("arm wait set failed", zap.Int(consts.LogFieldPollFd, cpfd), zap.Error(err))
			return 0, 0, err
		}
		armed = len(refs)

		first, signaled, werr := e.block(refs, sets, slice)
		if werr != nil {
			return 0, 0, e.nativeFailure(cpfd, werr)
		}
		if signaled {
			for j := 0; j < len(refs) && n < limit; j++ {
				ref := refs[(first+j)%len(refs)]
				if reported[ref.entry] {
					continue
				}
				native, eerr := ref.set.Enumerate(ref.slot)
				if eerr != nil {
					return 0, 0, e.nativeFailure(cpfd, eerr)
				}
				ent := &reg.entries[ref.entry]
				ready := FromNative(native) & (ent.event.Events | CPOLLHUP | CPOLLERR)
				if ready != 0 {
					report(ref.entry, ready)
				}
			}
		}
	}

	for i, hit := range reported {
		if !hit {
			continue
		}
		ent := &reg.entries[i]
		if ent.event.Events&CPOLLONESHOT != 0 {
			ent.event.Events = 0
			e.metrics.observeDisarm()
		}
	}
	return n, armed, nil
}

// arm hands every active entry to the substrate in registry order, opening
// a new wait set whenever the current one is full. On error the sets
// created so far are still returned so the caller can release them.
func (e *Emulator) arm(reg *registry) ([]slotRef, []WaitSet, error) {
	var (
		refs []slotRef
		sets []WaitSet
		cur  WaitSet
		used int
	)
	perSet := e.substrate.MaxWaitObjects()
	for i := range reg.entries {
		ent := &reg.entries[i]
		native := ToNative(ent.event.Events)
		if ent.event.Events == 0 || native == 0 {
			continue
		}
		if cur == nil || used == perSet {
			set, err := e.substrate.NewWaitSet()
			if err != nil {
				return refs, sets, errs.NewResourceExhaustedErr().WithErr(err)
			}
			sets = append(sets, set)
			cur, used = set, 0
		}
		if err := cur.Select(ent.fd, native); err != nil {
			return refs, sets, errs.NewNativeFailureErr().WithErr(err)
		}
		refs = append(refs, slotRef{set: cur, slot: used, entry: i})
		used++
	}
	return refs, sets, nil
}

// block waits on each set in turn, splitting slice evenly between them,
// and returns the position in refs of the first signalled entry.
func (e *Emulator) block(refs []slotRef, sets []WaitSet, slice time.Duration) (int, bool, error) {
	if len(sets) == 0 {
		return 0, false, nil
	}
	share := slice / time.Duration(len(sets))
	for _, set := range sets {
		slot, signaled, err := set.WaitAny(share)
		if err != nil {
			return 0, false, err
		}
		if !signaled {
			continue
		}
		for pos, ref := range refs {
			if ref.set == set && ref.slot == slot {
				return pos, true, nil
			}
		}
	}
	return 0, false, nil
}

func (e *Emulator) nativeFailure(cpfd int, err error) error {
	logger.Error("native wait primitive failed", zap.Int(consts.LogFieldPollFd, cpfd), zap.Error(err))
	return errs.NewNativeFailureErr().WithErr(err)
}
