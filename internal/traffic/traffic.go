package traffic

import (
	"sync"
	"time"
)

// Outcome classifies a finished invocation for health accounting.
type Outcome int

const (
	// Success is an invocation that returned the upstream forecast.
	Success Outcome = iota
	// Failure is an invocation that failed on the upstream side (transport,
	// timeout, non-200 status, undecodable or incomplete body).
	Failure
	// Rejected is an invocation refused by route validation. Rejections say
	// nothing about upstream health and are excluded from ErrorRate.
	Rejected
)

// retention bounds how long events are kept regardless of the windows queried.
const retention = 5 * time.Minute

var defaultTracker Tracker

// Record records an outcome on the process-wide tracker.
func Record(o Outcome) {
	defaultTracker.Record(o)
}

// RecordN records n identical outcomes. For synthetic load in tests.
func RecordN(o Outcome, n int) {
	defaultTracker.RecordN(o, n)
}

// RequestCount returns all outcomes (including rejections) within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// RejectedCount returns route rejections within the window.
func RejectedCount(window time.Duration) int {
	return defaultTracker.RejectedCount(window)
}

// ErrorRate returns (failures, total) within the window where total = successes + failures.
func ErrorRate(window time.Duration) (failures, total int) {
	return defaultTracker.ErrorRate(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

type event struct {
	at      time.Time
	outcome Outcome
}

// Tracker keeps a time-ordered log of outcomes and answers sliding-window queries.
type Tracker struct {
	mu     sync.Mutex
	events []event
	now    func() time.Time // nil means time.Now
}

func (t *Tracker) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Record appends one outcome.
func (t *Tracker) Record(o Outcome) {
	t.RecordN(o, 1)
}

// RecordN appends n outcomes with the same timestamp.
func (t *Tracker) RecordN(o Outcome, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	for i := 0; i < n; i++ {
		t.events = append(t.events, event{at: now, outcome: o})
	}
	t.pruneLocked(now)
}

// RequestCount returns the number of outcomes of any kind within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	counts := t.countSince(window)
	return counts[Success] + counts[Failure] + counts[Rejected]
}

// RejectedCount returns the number of rejections within the window.
func (t *Tracker) RejectedCount(window time.Duration) int {
	return t.countSince(window)[Rejected]
}

// ErrorRate returns (failures, successes+failures) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (failures, total int) {
	counts := t.countSince(window)
	return counts[Failure], counts[Success] + counts[Failure]
}

// Reset drops all events.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

func (t *Tracker) countSince(window time.Duration) [3]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var counts [3]int
	cutoff := t.clock().Add(-window)
	// events are appended in time order; walk back from the newest.
	for i := len(t.events) - 1; i >= 0; i-- {
		e := t.events[i]
		if e.at.Before(cutoff) {
			break
		}
		counts[e.outcome]++
	}
	return counts
}

// pruneLocked drops events older than retention. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
