package stats

import (
	"sync"
	"time"
)

// SLAEvaluator tracks compliance episodes against the configured
// success-rate target across calculation passes. State is in-memory only
// and resets on restart, matching the engine's no-durable-state scope.
type SLAEvaluator struct {
	mu     sync.Mutex
	target float64 // percent

	violations     int
	lastViolation  time.Time
	violationStart time.Time // zero while compliant
	recoveries     int
	totalRecovery  time.Duration
}

// NewSLAEvaluator creates an evaluator for the given target success rate
// (percent).
func NewSLAEvaluator(target float64) *SLAEvaluator {
	return &SLAEvaluator{target: target}
}

// Evaluate records the pass outcome and returns the current SLA view.
// Passes without traffic neither open nor close an episode: an idle system
// is not in violation.
func (e *SLAEvaluator) Evaluate(successRate float64, hasTraffic bool, now time.Time) SLAMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	inViolation := !e.violationStart.IsZero()

	if hasTraffic {
		compliant := successRate >= e.target
		switch {
		case !compliant && !inViolation:
			// Opening a new episode
			e.violations++
			e.lastViolation = now
			e.violationStart = now
			inViolation = true
		case compliant && inViolation:
			// Recovered
			e.totalRecovery += now.Sub(e.violationStart)
			e.recoveries++
			e.violationStart = time.Time{}
			inViolation = false
		}
	}

	m := SLAMetrics{
		TargetSuccessRate: e.target,
		Compliant:         !inViolation,
		Violations:        e.violations,
		MeanTimeToRecover: e.meanTimeToRecover(),
	}
	if !e.lastViolation.IsZero() {
		last := e.lastViolation
		m.LastViolation = &last
	}
	return m
}

// meanTimeToRecover averages closed violation episodes; zero when none
// have closed yet. Callers hold e.mu.
func (e *SLAEvaluator) meanTimeToRecover() time.Duration {
	if e.recoveries == 0 {
		return 0
	}
	return e.totalRecovery / time.Duration(e.recoveries)
}
