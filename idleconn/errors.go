package idleconn

import (
	"github.com/ghettovoice/gotimeout"
	"github.com/ghettovoice/gotimeout/internal/errorutil"
)

// ErrIdleTimeout reports I/O on a connection that was closed after staying
// idle too long. Errors returned by [Conn] after an idle close wrap it and
// satisfy net.Error with Timeout() true.
const ErrIdleTimeout gotimeout.Error = "connection idle timeout"

type idleTimeoutError struct{ error }

func newIdleTimeoutError(err error) error {
	return idleTimeoutError{errorutil.NewWrapperError(ErrIdleTimeout, err)}
}

func (idleTimeoutError) Timeout() bool { return true }

func (idleTimeoutError) Temporary() bool { return false }

func (e idleTimeoutError) Unwrap() error { return e.error }
