package gotimeout

import "github.com/ghettovoice/gotimeout/internal/errorutil"

// Common errors.
const (
	ErrInvalidArgument = errorutil.ErrInvalidArgument

	// ErrTimeoutArmed is returned by [Timeout.Schedule] when a deadline
	// is already set. It marks a contract violation on the caller side,
	// [Timeout.Reschedule] never produces it.
	ErrTimeoutArmed Error = "timeout already armed"
	// ErrTimeoutDestroyed is returned by [Timeout.Schedule] on a destroyed
	// instance. Destroy is terminal, engines refuse to re-arm afterwards
	// so that a racing arm cannot resurrect scheduler registrations.
	ErrTimeoutDestroyed Error = "timeout destroyed"
)

// Error represents a timeout error.
// See [errorutil.Error].
type Error = errorutil.Error

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}
