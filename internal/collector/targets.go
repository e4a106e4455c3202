package collector

import (
	"context"
	"time"
)

// TargetSnapshot is one publishing target's current counters as tracked by
// its subsystem.
type TargetSnapshot struct {
	Name string // slug, no dots
	Type string // e.g. "incident", "chat", "webhook"

	Attempts  uint64
	Successes uint64
	Failures  map[string]uint64 // by error type
	Retries   uint64

	LatencyP50 time.Duration
	LatencyP90 time.Duration
	LatencyP95 time.Duration
	LatencyP99 time.Duration

	CacheHitRate *float64 // nil when the target has no cache
	BreakerState string
	DeadLetters  int64

	LastSuccess *time.Time // nil when never observed
	LastFailure *time.Time
}

// TargetStatsProvider exposes the per-target publisher counters for direct
// in-process reads.
type TargetStatsProvider interface {
	Targets() []TargetSnapshot
}

// TargetCollector reads publishing target metrics via direct struct access.
type TargetCollector struct {
	provider TargetStatsProvider
}

// NewTargetCollector creates a collector over the given provider. A nil
// provider yields an unavailable collector.
func NewTargetCollector(provider TargetStatsProvider) *TargetCollector {
	return &TargetCollector{provider: provider}
}

// Name implements Collector
func (c *TargetCollector) Name() string { return "targets" }

// IsAvailable implements Collector
func (c *TargetCollector) IsAvailable() bool { return c.provider != nil }

// Collect implements Collector. Each target is flattened under
// target.<name>.*; the type tag is encoded into the key as
// target.<name>.info.<type>.
func (c *TargetCollector) Collect(ctx context.Context) (map[string]float64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m := make(map[string]float64)

	for _, t := range c.provider.Targets() {
		m[TargetKey(t.Name, "info", t.Type)] = 1
		m[TargetKey(t.Name, "attempts")] = float64(t.Attempts)
		m[TargetKey(t.Name, "successes")] = float64(t.Successes)
		m[TargetKey(t.Name, "retries")] = float64(t.Retries)
		m[TargetKey(t.Name, "dead_letters")] = float64(t.DeadLetters)
		m[TargetKey(t.Name, "breaker_state")] = BreakerStateValue(t.BreakerState)

		m[TargetKey(t.Name, "latency", "p50")] = t.LatencyP50.Seconds()
		m[TargetKey(t.Name, "latency", "p90")] = t.LatencyP90.Seconds()
		m[TargetKey(t.Name, "latency", "p95")] = t.LatencyP95.Seconds()
		m[TargetKey(t.Name, "latency", "p99")] = t.LatencyP99.Seconds()

		for errType, count := range t.Failures {
			m[TargetKey(t.Name, "errors", errType)] = float64(count)
		}

		// Optional values stay absent rather than zero: "never observed"
		// must be distinguishable from "observed at epoch".
		if t.CacheHitRate != nil {
			m[TargetKey(t.Name, "cache_hit_rate")] = *t.CacheHitRate
		}
		if t.LastSuccess != nil {
			m[TargetKey(t.Name, "last_success_ts")] = float64(t.LastSuccess.Unix())
		}
		if t.LastFailure != nil {
			m[TargetKey(t.Name, "last_failure_ts")] = float64(t.LastFailure.Unix())
		}
	}

	return m, nil
}
