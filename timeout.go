package gotimeout

//go:generate go tool errtrace -w .

import (
	"time"

	"braces.dev/errtrace"
)

// Timeout is a single logical deadline that can be armed, moved forward,
// cancelled and reset arbitrarily many times. A genuine expiry invokes the
// expire callback supplied at construction exactly once.
//
// All operations are safe for concurrent use and safe to call from within
// the expire callback itself. No operation blocks on the underlying
// [Scheduler].
type Timeout interface {
	// Schedule arms the timeout at now+delay.
	// It returns [ErrTimeoutArmed] if a deadline is already set and
	// [ErrTimeoutDestroyed] after a destroy.
	Schedule(delay time.Duration) error
	// Reschedule unconditionally moves the deadline to now+delay and
	// reports whether a deadline was armed before the call.
	Reschedule(delay time.Duration) bool
	// Cancel unarms the timeout and reports whether a deadline was set.
	// Outstanding scheduler registrations are kept for reuse, their
	// firing observes the unarmed state and does nothing.
	Cancel() bool
	// Destroy permanently disables the timeout and cancels every
	// registration it created. It is idempotent. Calling any other
	// operation after Destroy is the caller's responsibility to avoid,
	// such calls never re-arm anything.
	Destroy()
}

// New creates a [Timeout] running on sched with the engine selected by
// [Options.Strategy]. The onExpired callback is invoked on a scheduler
// goroutine once per genuine expiry. A nil sched selects the
// [DefaultScheduler].
func New(sched Scheduler, onExpired func(), opts *Options) (Timeout, error) {
	switch s := opts.strategy(); s {
	case StrategyChained:
		return errtrace.Wrap2(NewChained(sched, onExpired, opts))
	case StrategySingleSlot:
		return errtrace.Wrap2(NewSingleSlot(sched, onExpired, opts))
	case StrategyLocked:
		return errtrace.Wrap2(NewLocked(sched, onExpired, opts))
	default:
		return nil, errtrace.Wrap(NewInvalidArgumentError("unknown timeout strategy %q", s))
	}
}
