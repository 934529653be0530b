package gotimeout

import (
	"log/slog"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
)

// SingleSlotTimeout is the lock-free [Timeout] engine that trades the chain
// bookkeeping of [ChainedTimeout] for two independent atomics: the deadline
// and one best-effort cached registration. Arming and moving the deadline is
// a single CAS plus an opportunistic cache probe, the cheapest path of the
// three engines.
//
// The price is looser resource tracking: a registration that lost a cache
// publish race, or was superseded by an earlier-firing one, is no longer
// tracked and stays outstanding until it fires, observes the current state
// and no-ops. Destroy cancels only the cached registration. Correctness is
// unaffected, it rests solely on the deadline CAS.
type SingleSlotTimeout struct {
	sched     Scheduler
	onExpired func()
	deadline  atomic.Int64 // MonotonicTime, deadlineUnset when not armed
	slot      atomic.Pointer[wakeup]
	destroyed atomic.Bool
	log       *slog.Logger
	stats     *StatsRecorder
}

// NewSingleSlot creates a [SingleSlotTimeout] running on sched.
// A nil sched selects the [DefaultScheduler].
func NewSingleSlot(sched Scheduler, onExpired func(), opts *Options) (*SingleSlotTimeout, error) {
	if onExpired == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil expire callback"))
	}
	if sched == nil {
		sched = DefaultScheduler()
	}

	t := &SingleSlotTimeout{
		sched:     sched,
		onExpired: onExpired,
		log:       opts.log(),
		stats:     opts.stats(),
	}
	t.deadline.Store(int64(deadlineUnset))

	return t, nil
}

// Schedule arms the timeout at now+delay.
// It returns [ErrTimeoutArmed] if a deadline is already set and
// [ErrTimeoutDestroyed] after a destroy.
func (t *SingleSlotTimeout) Schedule(delay time.Duration) error {
	t.stats.incSchedules()
	if t.destroyed.Load() {
		return errtrace.Wrap(ErrTimeoutDestroyed)
	}

	now := t.sched.NowMonotonic()
	at := now.Add(delay)

	if !t.deadline.CompareAndSwap(int64(deadlineUnset), int64(at)) {
		return errtrace.Wrap(ErrTimeoutArmed)
	}
	t.ensure(now, at)
	return nil
}

// Reschedule unconditionally moves the deadline to now+delay and reports
// whether a deadline was armed before the call.
func (t *SingleSlotTimeout) Reschedule(delay time.Duration) bool {
	t.stats.incReschedules()
	if t.destroyed.Load() {
		return false
	}

	now := t.sched.NowMonotonic()
	at := now.Add(delay)

	var armed bool
	for {
		cur := t.deadline.Load()
		armed = MonotonicTime(cur) != deadlineUnset
		if t.deadline.CompareAndSwap(cur, int64(at)) {
			break
		}
		t.stats.incRetries()
	}
	t.ensure(now, at)
	return armed
}

// Cancel unarms the timeout and reports whether a deadline was set.
// The cached registration stays armed, its firing observes the unarmed
// state and does nothing.
func (t *SingleSlotTimeout) Cancel() bool {
	t.stats.incCancels()

	armed := MonotonicTime(t.deadline.Swap(int64(deadlineUnset))) != deadlineUnset
	return armed
}

// Destroy permanently disables the timeout and cancels the cached
// registration. It is idempotent. Registrations the engine no longer
// tracks die on their own next firing.
func (t *SingleSlotTimeout) Destroy() {
	if t.destroyed.Swap(true) {
		return
	}
	t.deadline.Store(int64(deadlineUnset))

	cancelled := 0
	if old := t.slot.Swap(nil); old != nil && old.unregister() {
		cancelled = 1
	}
	t.log.Debug("timeout destroyed",
		"strategy", StrategySingleSlot, "cancelled", cancelled)
}

func (t *SingleSlotTimeout) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("strategy", string(StrategySingleSlot)),
		slog.Bool("armed", MonotonicTime(t.deadline.Load()) != deadlineUnset),
		slog.Bool("cached", t.slot.Load() != nil),
	)
}

// ensure makes sure some registration will evaluate the deadline at. The
// cached registration covers it if it fires no later than at, otherwise a
// fresh one is registered and published best-effort.
//
// Ordering invariant with [SingleSlotTimeout.onWakeup]: writers store the
// deadline before probing the cache, firings clear themselves from the
// cache before re-reading the deadline. Whichever side observes the other
// first, an armed deadline is always re-read by some live registration.
// A publish loser stays unpublished and simply fires for nothing. A covered
// probe relies on the cached entry without touching it, which is also why
// superseded entries are never cancelled here: a concurrent reliance leaves
// no trace to detect.
func (t *SingleSlotTimeout) ensure(now, at MonotonicTime) {
	cur := t.slot.Load()
	if cur != nil && !cur.at.After(at) {
		return
	}

	w := &wakeup{at: at}
	t.register(w, now)
	t.slot.CompareAndSwap(cur, w)
}

func (t *SingleSlotTimeout) register(w *wakeup, now MonotonicTime) {
	t.stats.incRegistrations()
	w.register(t.sched, now, func() { t.onWakeup(w) })
}

// onWakeup evaluates one firing: drop self from the cache, then act on the
// deadline as it is now.
func (t *SingleSlotTimeout) onWakeup(w *wakeup) {
	t.stats.incWakeups()
	t.slot.CompareAndSwap(w, nil)

	if t.destroyed.Load() {
		return
	}

	for {
		now := t.sched.NowMonotonic()
		at := MonotonicTime(t.deadline.Load())
		switch {
		case at == deadlineUnset:
			// Cancelled, or another firing already expired it.
			t.stats.incStaleWakeups()
			return
		case at <= now:
			if !t.deadline.CompareAndSwap(int64(at), int64(deadlineUnset)) {
				t.stats.incRetries()
				continue
			}
			if t.destroyed.Load() {
				return
			}
			t.stats.incExpiries()
			t.log.Debug("timeout expired", "strategy", StrategySingleSlot)
			t.onExpired()
			return
		default:
			// The deadline moved past our instant, hand it over to a
			// covering registration.
			t.ensure(now, at)
			return
		}
	}
}
