// Package metrics exposes [gotimeout.StatsRecorder] counters to prometheus.
//
// The core package stays free of any prometheus dependency: a [Collector]
// reads a recorder on every scrape and emits const metrics, so attaching
// observability costs one registration at startup and nothing on the
// timeout hot path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghettovoice/gotimeout"
)

// Collector is a [prometheus.Collector] over one [gotimeout.StatsRecorder].
// Every scrape takes a fresh [gotimeout.StatsRecorder.Report] snapshot, the
// collector itself holds no state.
type Collector struct {
	stats *gotimeout.StatsRecorder

	schedules,
	reschedules,
	cancels,
	registrations,
	wakeups,
	staleWakeups,
	retries,
	expiries *prometheus.Desc
}

// NewCollector creates a [Collector] over stats.
// Register it on a [prometheus.Registerer] to start scraping.
func NewCollector(stats *gotimeout.StatsRecorder, opts *Options) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(opts.namespace(), "timeout", name),
			help, nil, opts.constLabels(),
		)
	}
	return &Collector{
		stats:         stats,
		schedules:     desc("schedules_total", "Schedule calls, including failed ones."),
		reschedules:   desc("reschedules_total", "Reschedule calls."),
		cancels:       desc("cancels_total", "Cancel calls."),
		registrations: desc("registrations_total", "Physical registrations created on the scheduler."),
		wakeups:       desc("wakeups_total", "Registration firings evaluated by the engines."),
		staleWakeups:  desc("stale_wakeups_total", "Firings that observed themselves superseded."),
		retries:       desc("state_retries_total", "State update retries under contention."),
		expiries:      desc("expiries_total", "Genuine expiries delivered to expire callbacks."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	report := c.stats.Report()
	counter := func(desc *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v))
	}
	counter(c.schedules, report.Schedules)
	counter(c.reschedules, report.Reschedules)
	counter(c.cancels, report.Cancels)
	counter(c.registrations, report.Registrations)
	counter(c.wakeups, report.Wakeups)
	counter(c.staleWakeups, report.StaleWakeups)
	counter(c.retries, report.Retries)
	counter(c.expiries, report.Expiries)
}

// Options are used to configure a [Collector].
type Options struct {
	// Namespace prefixes every metric name.
	// If empty, "gotimeout" is used.
	Namespace string
	// ConstLabels are attached to every metric, for example to tell
	// recorders of several components apart within one registry.
	ConstLabels prometheus.Labels
}

func (o *Options) namespace() string {
	if o == nil || o.Namespace == "" {
		return "gotimeout"
	}
	return o.Namespace
}

func (o *Options) constLabels() prometheus.Labels {
	if o == nil {
		return nil
	}
	return o.ConstLabels
}
