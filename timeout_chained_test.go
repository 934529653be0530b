package gotimeout_test

import (
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ghettovoice/gotimeout"
	"github.com/ghettovoice/gotimeout/internal/testutil/schedmock"
	"github.com/ghettovoice/gotimeout/schedtest"
)

// TestChainedTimeout_StaleWakeup inverts the firing order of two chain
// entries, something a real scheduler may do for near-equal instants. The
// later-instant entry fires first, expires the deadline and drops its chain
// predecessor from tracking, whose own firing must then recognize itself as
// stale and stay silent.
func TestChainedTimeout_StaleWakeup(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	now := gotimeout.MonotonicTime(0)
	var fns []func()

	sched := schedmock.NewMockScheduler(ctrl)
	sched.EXPECT().
		NowMonotonic().
		DoAndReturn(func() gotimeout.MonotonicTime { return now }).
		AnyTimes()
	sched.EXPECT().
		AfterFunc(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ time.Duration, fn func()) gotimeout.Registration {
			fns = append(fns, fn)
			reg := schedmock.NewMockRegistration(ctrl)
			reg.EXPECT().Cancel().Return(true).AnyTimes()
			return reg
		}).
		Times(2)

	stats := &gotimeout.StatsRecorder{}
	var fired int
	tm, err := gotimeout.NewChained(sched, func() { fired++ }, &gotimeout.Options{Stats: stats})
	if err != nil {
		t.Fatalf("gotimeout.NewChained() error = %v, want nil", err)
	}

	if err := tm.Schedule(30 * time.Millisecond); err != nil {
		t.Fatalf("tm.Schedule(30ms) error = %v, want nil", err)
	}
	if got := tm.Reschedule(20 * time.Millisecond); !got {
		t.Fatalf("tm.Reschedule(20ms) = %v, want true", got)
	}
	if len(fns) != 2 {
		t.Fatalf("registered %d callbacks, want 2", len(fns))
	}

	now = gotimeout.MonotonicTime(25 * time.Millisecond) // past both instants

	fns[0]() // the 30ms entry fires first and expires the 20ms deadline
	if fired != 1 {
		t.Fatalf("expire callback ran %d times, want 1", fired)
	}

	fns[1]() // the 20ms entry was dropped from the chain, stale
	if fired != 1 {
		t.Fatalf("expire callback ran %d times after stale firing, want 1", fired)
	}

	report := stats.Report()
	if report.Wakeups != 2 {
		t.Errorf("report.Wakeups = %d, want 2", report.Wakeups)
	}
	if report.StaleWakeups != 1 {
		t.Errorf("report.StaleWakeups = %d, want 1", report.StaleWakeups)
	}
	if report.Expiries != 1 {
		t.Errorf("report.Expiries = %d, want 1", report.Expiries)
	}
}

// TestChainedTimeout_ExpiryKeepsTail checks that a genuine expiry drops only
// the firing entry: farther chain entries stay registered and cover later
// re-arms without new registrations.
func TestChainedTimeout_ExpiryKeepsTail(t *testing.T) {
	t.Parallel()

	sched := schedtest.New()
	var fired int
	tm, err := gotimeout.NewChained(sched, func() { fired++ }, nil)
	if err != nil {
		t.Fatalf("gotimeout.NewChained() error = %v, want nil", err)
	}
	t.Cleanup(tm.Destroy)

	if err := tm.Schedule(100 * time.Millisecond); err != nil {
		t.Fatalf("tm.Schedule(100ms) error = %v, want nil", err)
	}
	tm.Reschedule(40 * time.Millisecond) // prepends an earlier entry

	sched.Advance(40 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("expire callback ran %d times, want 1", fired)
	}
	if got := sched.Live(); got != 1 {
		t.Fatalf("sched.Live() after expiry = %d, want 1", got)
	}

	// The kept 100ms entry covers the new deadline at 130ms.
	if err := tm.Schedule(90 * time.Millisecond); err != nil {
		t.Fatalf("tm.Schedule(90ms) error = %v, want nil", err)
	}
	if got := sched.Created(); got != 2 {
		t.Errorf("sched.Created() = %d, want 2", got)
	}

	sched.Advance(60 * time.Millisecond) // kept entry fires at 100ms, hands over
	if fired != 1 {
		t.Fatalf("expire callback ran %d times at hand-over, want 1", fired)
	}
	sched.Advance(30 * time.Millisecond)
	if fired != 2 {
		t.Fatalf("expire callback ran %d times, want 2", fired)
	}
	if got := sched.Created(); got != 3 {
		t.Errorf("sched.Created() = %d, want 3", got)
	}
}

// TestChainedTimeout_DestroyCancelsChain builds a deep chain with shrinking
// reschedules and checks destroy cancels every tracked registration.
func TestChainedTimeout_DestroyCancelsChain(t *testing.T) {
	t.Parallel()

	sched := schedtest.New()
	var fired int
	tm, err := gotimeout.NewChained(sched, func() { fired++ }, nil)
	if err != nil {
		t.Fatalf("gotimeout.NewChained() error = %v, want nil", err)
	}

	if err := tm.Schedule(100 * time.Millisecond); err != nil {
		t.Fatalf("tm.Schedule(100ms) error = %v, want nil", err)
	}
	tm.Reschedule(80 * time.Millisecond)
	tm.Reschedule(60 * time.Millisecond)
	tm.Reschedule(40 * time.Millisecond)

	if got := sched.Live(); got != 4 {
		t.Fatalf("sched.Live() = %d, want 4", got)
	}
	if got := logAttr(t, tm.LogValue(), "chain_depth").Int64(); got != 4 {
		t.Errorf("chain_depth attr = %d, want 4", got)
	}

	tm.Destroy()

	if got := sched.Live(); got != 0 {
		t.Errorf("sched.Live() after destroy = %d, want 0", got)
	}
	if got := sched.Cancelled(); got != 4 {
		t.Errorf("sched.Cancelled() after destroy = %d, want 4", got)
	}

	sched.Advance(time.Hour)
	if fired != 0 {
		t.Fatalf("expire callback ran %d times after destroy, want 0", fired)
	}
}
