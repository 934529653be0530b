package gotimeout

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// StatsReport is a point-in-time snapshot of [StatsRecorder] counters.
type StatsReport struct {
	Time time.Time `json:"time"`
	// Schedules is a number of Schedule calls, including failed ones.
	Schedules uint64 `json:"schedules"`
	// Reschedules is a number of Reschedule calls.
	Reschedules uint64 `json:"reschedules"`
	// Cancels is a number of Cancel calls.
	Cancels uint64 `json:"cancels"`
	// Registrations is a number of physical registrations created on the scheduler.
	Registrations uint64 `json:"registrations"`
	// Wakeups is a number of registration firings evaluated by the engine.
	Wakeups uint64 `json:"wakeups"`
	// StaleWakeups is a number of firings that observed themselves superseded
	// and did nothing.
	StaleWakeups uint64 `json:"stale_wakeups"`
	// Retries is a number of state update retries under contention.
	Retries uint64 `json:"retries"`
	// Expiries is a number of genuine expiries delivered to the expire callback.
	Expiries uint64 `json:"expiries"`
}

// StatsRecorder records timeout activity counters. One recorder may be
// shared by any number of [Timeout] instances, counters are cumulative.
// A nil *StatsRecorder is valid and records nothing.
type StatsRecorder struct {
	schedules,
	reschedules,
	cancels,
	registrations,
	wakeups,
	staleWakeups,
	retries,
	expiries atomic.Uint64
}

// Report returns a snapshot of the current counter values.
// Call this function periodically to get updated values.
func (rcdr *StatsRecorder) Report() StatsReport {
	report := StatsReport{
		Time: time.Now(),
	}
	if rcdr == nil {
		return report
	}

	report.Schedules = rcdr.schedules.Load()
	report.Reschedules = rcdr.reschedules.Load()
	report.Cancels = rcdr.cancels.Load()
	report.Registrations = rcdr.registrations.Load()
	report.Wakeups = rcdr.wakeups.Load()
	report.StaleWakeups = rcdr.staleWakeups.Load()
	report.Retries = rcdr.retries.Load()
	report.Expiries = rcdr.expiries.Load()

	return report
}

func (rcdr *StatsRecorder) LogValue() slog.Value {
	report := rcdr.Report()
	return slog.GroupValue(
		slog.Uint64("schedules", report.Schedules),
		slog.Uint64("reschedules", report.Reschedules),
		slog.Uint64("cancels", report.Cancels),
		slog.Uint64("registrations", report.Registrations),
		slog.Uint64("wakeups", report.Wakeups),
		slog.Uint64("stale_wakeups", report.StaleWakeups),
		slog.Uint64("retries", report.Retries),
		slog.Uint64("expiries", report.Expiries),
	)
}

func (rcdr *StatsRecorder) incSchedules() {
	if rcdr != nil {
		rcdr.schedules.Add(1)
	}
}

func (rcdr *StatsRecorder) incReschedules() {
	if rcdr != nil {
		rcdr.reschedules.Add(1)
	}
}

func (rcdr *StatsRecorder) incCancels() {
	if rcdr != nil {
		rcdr.cancels.Add(1)
	}
}

func (rcdr *StatsRecorder) incRegistrations() {
	if rcdr != nil {
		rcdr.registrations.Add(1)
	}
}

func (rcdr *StatsRecorder) incWakeups() {
	if rcdr != nil {
		rcdr.wakeups.Add(1)
	}
}

func (rcdr *StatsRecorder) incStaleWakeups() {
	if rcdr != nil {
		rcdr.staleWakeups.Add(1)
	}
}

func (rcdr *StatsRecorder) incRetries() {
	if rcdr != nil {
		rcdr.retries.Add(1)
	}
}

func (rcdr *StatsRecorder) incExpiries() {
	if rcdr != nil {
		rcdr.expiries.Add(1)
	}
}
