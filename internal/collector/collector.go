// Package collector defines the read-only metrics collection contract and
// the concurrent fan-out aggregator that merges per-subsystem metric maps
// into one snapshot. Collectors are registered once at startup; the
// aggregator never mutates subsystem state.
package collector

import (
	"context"
	"strings"
	"time"
)

// Collector provides uniform read-only access to one subsystem's current
// metric values.
//
// Implementations must be safe for concurrent invocation and must never
// panic on missing data: an absent metric is an absent key in the returned
// map, not a sentinel value. Collect must honor the caller's deadline.
type Collector interface {
	// Collect returns the subsystem's current metric values.
	Collect(ctx context.Context) (map[string]float64, error)

	// Name is a stable identifier used for labeling and failure attribution.
	Name() string

	// IsAvailable reports cheaply whether the underlying subsystem is
	// initialized; false means the collector is skipped, not invoked.
	IsAvailable() bool
}

// Snapshot is the merged, immutable result of one collection pass.
// It is handed to consumers by value semantics: the metric map is never
// mutated after the pass that built it completes.
type Snapshot struct {
	Metrics     map[string]float64
	CollectedAt time.Time
	Duration    time.Duration

	// Pass summary for self-monitoring
	Collected int // collectors merged successfully
	Failed    int // collectors that errored, timed out, or were abandoned
	Skipped   int // collectors skipped as unavailable
}

// Value looks up a single metric; ok is false when the key is absent.
func (s *Snapshot) Value(name string) (float64, bool) {
	v, ok := s.Metrics[name]
	return v, ok
}

// Result is one collector's outcome within a pass. It is discarded after
// the merge and never shared outside the aggregation pass.
type Result struct {
	Collector string
	Available bool
	Metrics   map[string]float64
	Err       error
}

// Metric key helpers. Collectors flatten dimensional tags into the key,
// and the stats derivation parses them back out, so both sides go through
// these.

// QueueKey builds a queue subsystem metric key, e.g. QueueKey("depth", "high").
func QueueKey(parts ...string) string {
	return "queue." + strings.Join(parts, ".")
}

// TargetKey builds a per-target metric key, e.g. TargetKey("pagerduty", "attempts").
// Target names must not contain dots.
func TargetKey(target string, parts ...string) string {
	return "target." + target + "." + strings.Join(parts, ".")
}

// Circuit-breaker states are encoded into metric values.
const (
	BreakerClosed   = "closed"
	BreakerHalfOpen = "half_open"
	BreakerOpen     = "open"
)

// BreakerStateValue encodes a breaker state name as a metric value.
func BreakerStateValue(state string) float64 {
	switch state {
	case BreakerHalfOpen:
		return 1
	case BreakerOpen:
		return 2
	default:
		return 0
	}
}

// BreakerStateName decodes a metric value back to a breaker state name.
func BreakerStateName(v float64) string {
	switch v {
	case 1:
		return BreakerHalfOpen
	case 2:
		return BreakerOpen
	default:
		return BreakerClosed
	}
}
