package idleconn

import (
	"log/slog"
	"time"

	"github.com/ghettovoice/gotimeout"
	"github.com/ghettovoice/gotimeout/internal/log"
)

// Options are used to configure an idle-aware connection.
type Options struct {
	// IdleTimeout is the maximum duration a connection may stay inactive
	// before the idle action runs. Inactivity is measured since the last
	// successful Read or Write. Must be positive.
	IdleTimeout time.Duration
	// OnIdle is the idle action. It runs on a scheduler goroutine each time
	// the connection goes idle. If nil, the connection is closed and
	// subsequent I/O fails with [ErrIdleTimeout].
	OnIdle func(*Conn)
	// Scheduler runs the idle deadline.
	// If nil, [gotimeout.DefaultScheduler] is used.
	Scheduler gotimeout.Scheduler
	// Strategy selects the timeout engine.
	// If empty, [gotimeout.StrategyChained] is used.
	Strategy gotimeout.Strategy
	// Log is the logger that will be used with the connection.
	// Only lifecycle transitions are logged, never per-call activity.
	// If nil, a noop logger is used.
	Log *slog.Logger
	// Stats is an optional recorder of the idle deadline activity.
	// If nil, nothing is recorded.
	Stats *gotimeout.StatsRecorder
}

func (o *Options) idleTimeout() time.Duration {
	if o == nil {
		return 0
	}
	return o.IdleTimeout
}

func (o *Options) onIdle() func(*Conn) {
	if o == nil || o.OnIdle == nil {
		return closeOnIdle
	}
	return o.OnIdle
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Noop
	}
	return o.Log
}

func closeOnIdle(c *Conn) {
	if err := c.Close(); err != nil {
		c.opts.log().Warn("failed to close the idle connection", "error", err)
	}
}
