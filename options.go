package gotimeout

import (
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/gotimeout/internal/log"
)

// Strategy selects the synchronization design of a [Timeout].
type Strategy string

const (
	// StrategyChained is the lock-free engine that keeps a persistent chain
	// of reusable registrations. Best under reset-heavy concurrent load.
	StrategyChained Strategy = "chained"
	// StrategySingleSlot is the lock-free engine that keeps a single cached
	// registration. Cheapest per call, may produce redundant wakeups under
	// racing callers.
	StrategySingleSlot Strategy = "single-slot"
	// StrategyLocked is the mutex-guarded engine. Baseline.
	StrategyLocked Strategy = "locked"
)

// ParseStrategy converts a string into a [Strategy].
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyChained, StrategySingleSlot, StrategyLocked:
		return st, nil
	default:
		return "", errtrace.Wrap(NewInvalidArgumentError("unknown timeout strategy %q", s))
	}
}

// Options contains options for a [Timeout].
// A nil *Options is valid and selects all defaults.
type Options struct {
	// Strategy is the timeout engine to construct.
	// If empty, [StrategyChained] is used.
	Strategy Strategy
	// Log is the logger that will be used with the timeout.
	// Only rare lifecycle events are logged, never per-call activity.
	// If nil, [log.Noop] is used.
	Log *slog.Logger
	// Stats is an optional recorder of timeout activity counters.
	// If nil, nothing is recorded.
	Stats *StatsRecorder
}

func (o *Options) strategy() Strategy {
	if o == nil || o.Strategy == "" {
		return StrategyChained
	}
	return o.Strategy
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Noop
	}
	return o.Log
}

func (o *Options) stats() *StatsRecorder {
	if o == nil {
		return nil
	}
	return o.Stats
}
