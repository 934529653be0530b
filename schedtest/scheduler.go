// Package schedtest provides a deterministic manual [gotimeout.Scheduler]
// for tests: a virtual clock advanced explicitly by the test, with counters
// over every registration it ever saw.
package schedtest

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/ghettovoice/gotimeout"
)

// Scheduler is a manual [gotimeout.Scheduler]. Its clock starts at zero and
// moves only through [Scheduler.Advance]. Safe for concurrent use, though
// deterministic results require a single advancing goroutine.
type Scheduler struct {
	mu        sync.Mutex
	now       gotimeout.MonotonicTime
	seq       uint64
	pending   []*timer
	created   int
	cancelled int
	fired     int
}

// New creates a manual scheduler with its clock at zero.
func New() *Scheduler { return &Scheduler{} }

func (s *Scheduler) NowMonotonic() gotimeout.MonotonicTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Scheduler) AfterFunc(d time.Duration, fn func()) gotimeout.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d < 0 {
		d = 0
	}
	tm := &timer{s: s, at: s.now.Add(d), seq: s.seq, fn: fn}
	s.seq++
	s.created++

	i, _ := slices.BinarySearchFunc(s.pending, tm, compareTimers)
	s.pending = slices.Insert(s.pending, i, tm)

	return tm
}

// Advance moves the clock forward by d and runs every callback that becomes
// due, in fire-instant order, on the calling goroutine. The clock jumps to
// each timer's instant before its callback runs, so callbacks observe a now
// at or after their own fire instant. Callbacks may arm new timers, ones due
// within the same advance run too.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	for len(s.pending) > 0 && !s.pending[0].at.After(target) {
		tm := s.pending[0]
		s.pending = s.pending[1:]
		if s.now.Before(tm.at) {
			s.now = tm.at
		}
		tm.state = timerFired
		s.fired++

		s.mu.Unlock()
		tm.fn()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

// Created returns the total number of registrations ever made.
func (s *Scheduler) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

// Fired returns the number of registrations whose callback ran.
func (s *Scheduler) Fired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Cancelled returns the number of registrations cancelled in time.
func (s *Scheduler) Cancelled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Live returns the number of registrations still waiting to fire.
func (s *Scheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

type timerState int

const (
	timerPending timerState = iota
	timerFired
	timerCancelled
)

type timer struct {
	s     *Scheduler
	at    gotimeout.MonotonicTime
	seq   uint64
	fn    func()
	state timerState
}

func (tm *timer) Cancel() bool {
	tm.s.mu.Lock()
	defer tm.s.mu.Unlock()

	if tm.state != timerPending {
		return false
	}
	tm.state = timerCancelled
	tm.s.cancelled++

	if i := slices.Index(tm.s.pending, tm); i >= 0 {
		tm.s.pending = slices.Delete(tm.s.pending, i, i+1)
	}
	return true
}

func compareTimers(a, b *timer) int {
	if a.at != b.at {
		return cmp.Compare(a.at, b.at)
	}
	return cmp.Compare(a.seq, b.seq)
}
