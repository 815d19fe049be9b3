// Package degraded decides whether upstream failures in the recent window are
// frequent enough to report the service as degraded.
package degraded

import (
	"time"

	"github.com/kjstillabower/forecast-gateway/internal/traffic"
)

// Status is the outcome of one evaluation.
type Status struct {
	Failures int
	Total    int
	Degraded bool
}

// Percent returns the failure share of upstream-bound invocations, 0 when there were none.
func (s Status) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failures) * 100 / float64(s.Total)
}

// Evaluate reports degraded when failures reach thresholdPct of upstream-bound
// invocations within window. Rejected requests never count. A non-positive
// window or threshold disables the check.
func Evaluate(window time.Duration, thresholdPct int) Status {
	if window <= 0 || thresholdPct <= 0 {
		return Status{}
	}
	failures, total := traffic.ErrorRate(window)
	s := Status{Failures: failures, Total: total}
	s.Degraded = total > 0 && s.Percent() >= float64(thresholdPct)
	return s
}
