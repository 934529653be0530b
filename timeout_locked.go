package gotimeout

import (
	"log/slog"
	"sync"
	"time"

	"braces.dev/errtrace"
)

// LockedTimeout is the mutex-guarded [Timeout] engine. It keeps the same
// wakeup chain as [ChainedTimeout] but mutates the deadline and the chain
// head in place under one lock. It is the correctness and contention
// baseline for the lock-free engines.
//
// The expire callback runs outside the lock, so re-arming the timeout from
// within the callback is safe.
type LockedTimeout struct {
	sched     Scheduler
	onExpired func()
	log       *slog.Logger
	stats     *StatsRecorder

	mu        sync.Mutex
	at        MonotonicTime
	chain     *wakeup
	destroyed bool
}

// NewLocked creates a [LockedTimeout] running on sched.
// A nil sched selects the [DefaultScheduler].
func NewLocked(sched Scheduler, onExpired func(), opts *Options) (*LockedTimeout, error) {
	if onExpired == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil expire callback"))
	}
	if sched == nil {
		sched = DefaultScheduler()
	}

	return &LockedTimeout{
		sched:     sched,
		onExpired: onExpired,
		log:       opts.log(),
		stats:     opts.stats(),
		at:        deadlineUnset,
	}, nil
}

// Schedule arms the timeout at now+delay.
// It returns [ErrTimeoutArmed] if a deadline is already set and
// [ErrTimeoutDestroyed] after a destroy.
func (t *LockedTimeout) Schedule(delay time.Duration) error {
	t.stats.incSchedules()
	now := t.sched.NowMonotonic()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return errtrace.Wrap(ErrTimeoutDestroyed)
	}
	if t.at != deadlineUnset {
		return errtrace.Wrap(ErrTimeoutArmed)
	}
	t.arm(now, now.Add(delay))
	return nil
}

// Reschedule unconditionally moves the deadline to now+delay and reports
// whether a deadline was armed before the call.
func (t *LockedTimeout) Reschedule(delay time.Duration) bool {
	t.stats.incReschedules()
	now := t.sched.NowMonotonic()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return false
	}
	armed := t.at != deadlineUnset
	t.arm(now, now.Add(delay))
	return armed
}

// arm moves the deadline and makes sure some registration fires early
// enough to evaluate it. Callers hold the lock.
func (t *LockedTimeout) arm(now, at MonotonicTime) {
	t.at = at
	if t.chain == nil || t.chain.at.After(at) {
		head := &wakeup{at: at, next: t.chain}
		t.chain = head
		t.register(head, now)
	}
}

// Cancel unarms the timeout and reports whether a deadline was set.
// The chain stays registered, firings observe the unarmed state and no-op.
func (t *LockedTimeout) Cancel() bool {
	t.stats.incCancels()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return false
	}
	armed := t.at != deadlineUnset
	t.at = deadlineUnset
	return armed
}

// Destroy permanently disables the timeout and cancels every registration
// in the chain. It is idempotent.
func (t *LockedTimeout) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	t.at = deadlineUnset
	chain := t.chain
	t.chain = nil
	t.mu.Unlock()

	// The detached chain is exclusively ours now, no need to hold the lock
	// while cancelling.
	var cancelled int
	for w := chain; w != nil; w = w.next {
		if w.unregister() {
			cancelled++
		}
	}
	t.log.Debug("timeout destroyed",
		"strategy", StrategyLocked, "cancelled", cancelled)
}

func (t *LockedTimeout) LogValue() slog.Value {
	t.mu.Lock()
	armed := t.at != deadlineUnset
	depth := 0
	for w := t.chain; w != nil; w = w.next {
		depth++
	}
	t.mu.Unlock()

	return slog.GroupValue(
		slog.String("strategy", string(StrategyLocked)),
		slog.Bool("armed", armed),
		slog.Int("chain_depth", depth),
	)
}

func (t *LockedTimeout) register(w *wakeup, now MonotonicTime) {
	t.stats.incRegistrations()
	w.register(t.sched, now, func() { t.onWakeup(w) })
}

// onWakeup evaluates one firing under the lock: locate self in the chain,
// drop self and every entry published before, then decide between genuine
// expiry, re-arm for a moved deadline, and plain pruning after a cancel.
func (t *LockedTimeout) onWakeup(w *wakeup) {
	t.stats.incWakeups()
	now := t.sched.NowMonotonic()

	expired := false
	t.mu.Lock()

	found := false
	for chain := t.chain; chain != nil; chain = chain.next {
		if chain == w {
			found = true
			break
		}
	}
	if found {
		t.chain = w.next // truncate to our tail
		switch {
		case t.at <= now:
			t.at = deadlineUnset
			expired = true
		case t.at != deadlineUnset:
			if t.chain == nil || t.chain.at.After(t.at) {
				head := &wakeup{at: t.at, next: t.chain}
				t.chain = head
				t.register(head, now)
			}
		}
	} else {
		t.stats.incStaleWakeups()
	}
	t.mu.Unlock()

	if expired {
		t.stats.incExpiries()
		t.log.Debug("timeout expired", "strategy", StrategyLocked)
		t.onExpired()
	}
}
