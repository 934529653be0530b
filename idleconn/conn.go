// Package idleconn closes network connections that stay inactive too long.
//
// [Conn] wraps a [net.Conn] and arms one [gotimeout.Timeout] over it: every
// successful Read or Write moves the idle deadline forward at the price of a
// single atomic update, and an expiry runs the idle action, which by default
// closes the connection. The active/idle/closed lifecycle is tracked by a
// state machine that is consulted only on those rare transitions, never on
// the I/O path.
package idleconn

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/gotimeout"
)

// State is a lifecycle state of a [Conn].
type State string

const (
	// StateActive is a connection with recent activity and an armed idle deadline.
	StateActive State = "active"
	// StateIdle is a connection whose idle deadline expired. The connection
	// leaves the state on the next successful I/O or on close.
	StateIdle State = "idle"
	// StateClosed is a closed connection. The state is terminal.
	StateClosed State = "closed"
)

const (
	triggerExpire = "expire"
	triggerTouch  = "touch"
	triggerClose  = "close"
)

// Conn is a [net.Conn] with an idle deadline.
//
// Inactivity is measured since the last successful Read or Write. When the
// connection stays inactive for the configured duration, the idle action
// runs on a scheduler goroutine; unless a custom [Options.OnIdle] decides
// otherwise, the connection is closed and subsequent I/O fails with
// [ErrIdleTimeout].
type Conn struct {
	conn net.Conn
	opts Options

	tm gotimeout.Timeout
	sm *stateless.StateMachine

	// idle is set by the expiry and cleared by the first activity after it,
	// so that I/O consults the state machine only right after an expiry.
	idle       atomic.Bool
	idleClosed atomic.Bool
}

// New wraps conn with an idle deadline of [Options.IdleTimeout].
// The deadline is armed immediately.
func New(conn net.Conn, opts *Options) (*Conn, error) {
	if conn == nil {
		return nil, errtrace.Wrap(gotimeout.NewInvalidArgumentError("nil connection"))
	}
	if ttl := opts.idleTimeout(); ttl <= 0 {
		return nil, errtrace.Wrap(gotimeout.NewInvalidArgumentError("non-positive idle timeout %v", ttl))
	}

	c := &Conn{
		conn: conn,
		opts: *opts,
	}
	c.opts.Log = c.opts.log().With("connection", c)
	c.sm = c.newLifecycle()

	tm, err := gotimeout.New(c.opts.Scheduler, c.onExpired, &gotimeout.Options{
		Strategy: c.opts.Strategy,
		Log:      c.opts.Log,
		Stats:    c.opts.Stats,
	})
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	c.tm = tm

	if err = tm.Schedule(c.opts.idleTimeout()); err != nil {
		tm.Destroy()
		return nil, errtrace.Wrap(err)
	}
	return c, nil
}

func (c *Conn) newLifecycle() *stateless.StateMachine {
	sm := stateless.NewStateMachine(StateActive)
	sm.Configure(StateActive).
		Permit(triggerExpire, StateIdle).
		Permit(triggerClose, StateClosed).
		// An activity racing the expiry instant may observe the idle flag
		// before the expire trigger lands, its touch arrives here first.
		Ignore(triggerTouch).
		OnEntry(c.onActive)
	sm.Configure(StateIdle).
		Permit(triggerTouch, StateActive).
		Permit(triggerClose, StateClosed).
		// A non-closing idle action that re-arms the deadline gets the
		// action re-run on every subsequent expiry.
		PermitReentry(triggerExpire).
		OnEntry(c.onIdle)
	sm.Configure(StateClosed).
		Ignore(triggerExpire).
		Ignore(triggerTouch).
		Ignore(triggerClose).
		OnEntry(c.onClosed)
	return sm
}

func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.conn.Read(p)
	if n > 0 {
		c.touch()
	}
	if err != nil {
		return n, errtrace.Wrap(c.ioErr(err))
	}
	return n, nil
}

func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.conn.Write(p)
	if n > 0 {
		c.touch()
	}
	if err != nil {
		return n, errtrace.Wrap(c.ioErr(err))
	}
	return n, nil
}

// Close closes the connection and releases its idle deadline.
// Calls after the first one are no-ops.
func (c *Conn) Close() error {
	return errtrace.Wrap(c.sm.Fire(triggerClose))
}

func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *Conn) SetDeadline(t time.Time) error { return errtrace.Wrap(c.conn.SetDeadline(t)) }

func (c *Conn) SetReadDeadline(t time.Time) error { return errtrace.Wrap(c.conn.SetReadDeadline(t)) }

func (c *Conn) SetWriteDeadline(t time.Time) error {
	return errtrace.Wrap(c.conn.SetWriteDeadline(t))
}

// NetConn returns the underlying connection.
// I/O on it bypasses the idle deadline.
func (c *Conn) NetConn() net.Conn { return c.conn }

// Timeout returns the idle deadline of the connection. Custom idle actions
// may move it, for example to keep firing while the connection stays idle.
func (c *Conn) Timeout() gotimeout.Timeout { return c.tm }

// State returns the current lifecycle state.
func (c *Conn) State() State {
	return c.sm.MustState().(State) //nolint:forcetypeassert
}

func (c *Conn) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", fmt.Sprintf("%T", c)),
		slog.String("ptr", fmt.Sprintf("%p", c)),
		slog.Any("local_addr", c.conn.LocalAddr()),
		slog.Any("remote_addr", c.conn.RemoteAddr()),
	)
}

// touch counts one activity. The fast path is a deadline move on the
// timeout, the state machine is fired only when the expiry got there first.
func (c *Conn) touch() {
	if c.idle.CompareAndSwap(true, false) {
		if err := c.sm.Fire(triggerTouch); err != nil {
			c.opts.log().Warn("failed to process the connection activity", "error", err)
		}
		return
	}
	c.tm.Reschedule(c.opts.idleTimeout())
}

func (c *Conn) ioErr(err error) error {
	if c.idleClosed.Load() {
		return newIdleTimeoutError(err) //errtrace:skip
	}
	return err //errtrace:skip
}

func (c *Conn) onExpired() {
	c.idle.Store(true)
	if err := c.sm.Fire(triggerExpire); err != nil {
		c.opts.log().Warn("failed to process the idle expiry", "error", err)
	}
}

func (c *Conn) onActive(context.Context, ...any) error {
	c.tm.Reschedule(c.opts.idleTimeout())
	c.opts.log().Debug("connection is active again")
	return nil
}

func (c *Conn) onIdle(context.Context, ...any) error {
	c.opts.log().Debug("connection went idle", "idle_timeout", c.opts.idleTimeout())
	c.opts.onIdle()(c)
	return nil
}

func (c *Conn) onClosed(ctx context.Context, _ ...any) error {
	if stateless.GetTransition(ctx).Source == StateIdle {
		c.idleClosed.Store(true)
	}
	c.tm.Destroy()
	err := c.conn.Close()
	c.opts.log().Debug("connection closed", "error", err)
	return errtrace.Wrap(err)
}
