package gotimeout

//go:generate go tool mockgen -typed -destination internal/testutil/schedmock/scheduler.mock.go -package schedmock github.com/ghettovoice/gotimeout Scheduler,Registration

import (
	"math"
	"time"
)

// MonotonicTime is a reading of a [Scheduler] clock: nanoseconds elapsed
// since the scheduler's own arbitrary epoch. Readings taken from different
// schedulers are not comparable.
type MonotonicTime int64

// Add returns t shifted forward by d.
func (t MonotonicTime) Add(d time.Duration) MonotonicTime { return t + MonotonicTime(d) }

// Sub returns the duration t-u.
func (t MonotonicTime) Sub(u MonotonicTime) time.Duration { return time.Duration(t - u) }

// Before reports whether t is before u.
func (t MonotonicTime) Before(u MonotonicTime) bool { return t < u }

// After reports whether t is after u.
func (t MonotonicTime) After(u MonotonicTime) bool { return t > u }

func (t MonotonicTime) String() string { return time.Duration(t).String() }

// deadlineUnset marks an unarmed deadline.
// It compares after every reachable clock reading.
const deadlineUnset MonotonicTime = math.MaxInt64

// Registration is a handle to one outstanding delayed callback armed on a
// [Scheduler].
type Registration interface {
	// Cancel prevents the pending firing if it has not happened yet and
	// returns whether it did. It is idempotent and safe to call
	// concurrently with the firing itself.
	Cancel() bool
}

// Scheduler runs callbacks after a delay. It is the single external
// collaborator of every [Timeout]: implementations only promise that a
// callback runs at most once, at or after the requested delay, on an
// unspecified goroutine.
//
// [SystemScheduler] adapts the runtime timer service. Tests use the manual
// scheduler from the schedtest package.
type Scheduler interface {
	// NowMonotonic returns the current reading of the scheduler clock.
	NowMonotonic() MonotonicTime
	// AfterFunc arranges for fn to be called once after delay d.
	AfterFunc(d time.Duration, fn func()) Registration
}

// SystemScheduler is a [Scheduler] backed by the runtime timer service.
// The zero value is not usable, construct with [NewSystemScheduler].
type SystemScheduler struct {
	epoch time.Time
}

// NewSystemScheduler creates a scheduler over the runtime timer service
// with its clock epoch fixed at the moment of the call.
func NewSystemScheduler() *SystemScheduler {
	return &SystemScheduler{epoch: time.Now()}
}

func (s *SystemScheduler) NowMonotonic() MonotonicTime {
	return MonotonicTime(time.Since(s.epoch))
}

func (s *SystemScheduler) AfterFunc(d time.Duration, fn func()) Registration {
	return sysRegistration{time.AfterFunc(d, fn)}
}

type sysRegistration struct {
	timer *time.Timer
}

func (r sysRegistration) Cancel() bool { return r.timer.Stop() }

var defScheduler = NewSystemScheduler()

// DefaultScheduler returns the process-wide [SystemScheduler].
func DefaultScheduler() *SystemScheduler { return defScheduler }
