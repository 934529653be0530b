package gotimeout

import (
	"log/slog"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
)

// expiry pairs the armed deadline with the chain of wakeups that must be
// consulted next. Records are immutable, engines replace whole records.
type expiry struct {
	at     MonotonicTime // deadlineUnset when not armed
	wakeup *wakeup       // chain head, nearest fire-at first, nil if none
}

// Shared terminal records, distinguished by pointer identity.
var (
	expiryNotSet    = &expiry{at: deadlineUnset}
	expiryDestroyed = &expiry{at: deadlineUnset}
)

func unsetExpiry(chain *wakeup) *expiry {
	if chain == nil {
		return expiryNotSet
	}
	return &expiry{at: deadlineUnset, wakeup: chain}
}

// wakeup is one node of the persistent registration chain. at and next are
// fixed at construction, the registration slot is written once after the
// scheduler accepts the registration.
type wakeup struct {
	at   MonotonicTime
	next *wakeup
	reg  atomic.Pointer[Registration]
}

// regPoisoned fills a wakeup's registration slot on destroy so that a
// registration arriving late cancels itself, see [wakeup.register].
var regPoisoned = new(Registration)

// register arms fn on the scheduler for this wakeup's instant. A destroy
// may slip in between the wakeup's publication and the scheduler accepting
// the registration, the slot CAS hands such a late registration straight
// back to Cancel.
func (w *wakeup) register(sched Scheduler, now MonotonicTime, fn func()) {
	r := sched.AfterFunc(w.at.Sub(now), fn)
	if !w.reg.CompareAndSwap(nil, &r) {
		r.Cancel()
	}
}

// unregister cancels the wakeup's registration and poisons the slot.
// It reports whether a pending firing was actually prevented.
func (w *wakeup) unregister() bool {
	old := w.reg.Swap(regPoisoned)
	if old == nil || old == regPoisoned {
		return false
	}
	return (*old).Cancel()
}

// ChainedTimeout is the lock-free [Timeout] engine. It runs a CAS loop over
// immutable (deadline, chain) records, where the chain is a persistent list
// of outstanding registrations kept as reuse candidates: as long as the chain
// head still fires no later than the newest deadline, arming and moving the
// deadline touch no scheduler at all.
//
// The engine is tuned for the cancel-then-reuse pattern of idle timeouts,
// collapsing O(resets) scheduler registrations into O(1) amortized.
type ChainedTimeout struct {
	sched     Scheduler
	onExpired func()
	expiry    atomic.Pointer[expiry]
	log       *slog.Logger
	stats     *StatsRecorder
}

// NewChained creates a [ChainedTimeout] running on sched.
// A nil sched selects the [DefaultScheduler].
func NewChained(sched Scheduler, onExpired func(), opts *Options) (*ChainedTimeout, error) {
	if onExpired == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil expire callback"))
	}
	if sched == nil {
		sched = DefaultScheduler()
	}

	t := &ChainedTimeout{
		sched:     sched,
		onExpired: onExpired,
		log:       opts.log(),
		stats:     opts.stats(),
	}
	t.expiry.Store(expiryNotSet)

	return t, nil
}

// Schedule arms the timeout at now+delay.
// It returns [ErrTimeoutArmed] if a deadline is already set and
// [ErrTimeoutDestroyed] after a destroy.
func (t *ChainedTimeout) Schedule(delay time.Duration) error {
	t.stats.incSchedules()
	now := t.sched.NowMonotonic()
	at := now.Add(delay)

	var head *wakeup
	for {
		cur := t.expiry.Load()
		if cur == expiryDestroyed {
			return errtrace.Wrap(ErrTimeoutDestroyed)
		}
		if cur.at != deadlineUnset {
			return errtrace.Wrap(ErrTimeoutArmed)
		}

		head = nil
		chain := cur.wakeup
		// Reuse the chain head only if it fires no later than the new
		// deadline, otherwise it becomes the tail of a fresh head.
		if chain == nil || chain.at.After(at) {
			head = &wakeup{at: at, next: chain}
			chain = head
		}

		if t.expiry.CompareAndSwap(cur, &expiry{at: at, wakeup: chain}) {
			break
		}
		t.stats.incRetries()
		// Heads built in lost iterations were never registered and just
		// become garbage.
	}

	if head != nil {
		t.register(head, now)
	}
	return nil
}

// Reschedule unconditionally moves the deadline to now+delay and reports
// whether a deadline was armed before the call.
func (t *ChainedTimeout) Reschedule(delay time.Duration) bool {
	t.stats.incReschedules()
	now := t.sched.NowMonotonic()
	at := now.Add(delay)

	var (
		armed bool
		head  *wakeup
	)
	for {
		cur := t.expiry.Load()
		if cur == expiryDestroyed {
			return false
		}
		armed = cur.at != deadlineUnset

		head = nil
		chain := cur.wakeup
		if chain == nil || chain.at.After(at) {
			head = &wakeup{at: at, next: chain}
			chain = head
		}

		if t.expiry.CompareAndSwap(cur, &expiry{at: at, wakeup: chain}) {
			break
		}
		t.stats.incRetries()
	}

	if head != nil {
		t.register(head, now)
	}
	return armed
}

// Cancel unarms the timeout and reports whether a deadline was set.
// The chain stays registered, firings observe the unarmed state and no-op.
func (t *ChainedTimeout) Cancel() bool {
	t.stats.incCancels()

	var armed bool
	for {
		cur := t.expiry.Load()
		if cur == expiryDestroyed {
			return false
		}
		armed = cur.at != deadlineUnset

		if t.expiry.CompareAndSwap(cur, unsetExpiry(cur.wakeup)) {
			break
		}
		t.stats.incRetries()
	}
	return armed
}

// Destroy permanently disables the timeout and cancels every registration
// in the chain. It is idempotent.
func (t *ChainedTimeout) Destroy() {
	cur := t.expiry.Swap(expiryDestroyed)
	if cur == expiryDestroyed {
		return
	}

	var cancelled int
	for w := cur.wakeup; w != nil; w = w.next {
		if w.unregister() {
			cancelled++
		}
	}
	t.log.Debug("timeout destroyed",
		"strategy", StrategyChained, "cancelled", cancelled)
}

func (t *ChainedTimeout) LogValue() slog.Value {
	cur := t.expiry.Load()
	depth := 0
	for w := cur.wakeup; w != nil; w = w.next {
		depth++
	}
	return slog.GroupValue(
		slog.String("strategy", string(StrategyChained)),
		slog.Bool("armed", cur.at != deadlineUnset),
		slog.Int("chain_depth", depth),
	)
}

func (t *ChainedTimeout) register(w *wakeup, now MonotonicTime) {
	t.stats.incRegistrations()
	w.register(t.sched, now, func() { t.onWakeup(w) })
}

// onWakeup evaluates one firing. The wakeup looks for itself in the current
// chain: found means its tail has not fired yet and it must act, dropping
// itself and every entry published before it; not found means a later wakeup
// already fired and removed it, so the firing is stale and does nothing.
func (t *ChainedTimeout) onWakeup(w *wakeup) {
	t.stats.incWakeups()

	var (
		now     MonotonicTime
		expired bool
		head    *wakeup
	)
	for {
		now = t.sched.NowMonotonic()
		expired = false
		head = nil

		cur := t.expiry.Load()
		next := cur
		found := false

		chain := cur.wakeup
		for chain != nil {
			if chain != w {
				chain = chain.next
				continue
			}

			found = true
			chain = chain.next // truncate to our tail

			switch {
			case cur.at <= now:
				// Genuine expiry. The deadline resets, the tail stays
				// registered for reuse.
				expired = true
				next = unsetExpiry(chain)
			case cur.at != deadlineUnset:
				// Armed but not due yet, the deadline moved past our
				// instant. Re-arm on the tail or on a fresh head.
				if chain == nil || chain.at.After(cur.at) {
					head = &wakeup{at: cur.at, next: chain}
					chain = head
				}
				next = &expiry{at: cur.at, wakeup: chain}
			default:
				// Cancelled. Prune ourselves, keep the tail.
				next = unsetExpiry(chain)
			}
			break
		}

		if next == cur || t.expiry.CompareAndSwap(cur, next) {
			if !found {
				t.stats.incStaleWakeups()
			}
			break
		}
		t.stats.incRetries()
	}

	if head != nil {
		t.register(head, now)
	}
	if expired {
		t.stats.incExpiries()
		t.log.Debug("timeout expired", "strategy", StrategyChained)
		t.onExpired()
	}
}
