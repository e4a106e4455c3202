// Package stats turns merged collector snapshots into the cached,
// trend-annotated PublishingStats view served to the presentation layer.
package stats

import (
	"time"

	"github.com/samijaber1/pulse-metrics/internal/trend"
)

// HealthStatus classifies an entity or the whole system
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)

// PublishingStats is the top-level aggregate result. It is immutable once
// constructed and safe for concurrent reads while cached; callers may
// serialize it directly.
type PublishingStats struct {
	Timestamp           time.Time      `json:"timestamp"`
	CalculationDuration time.Duration  `json:"calculationDuration"`
	System              SystemStats    `json:"system"`
	Targets             []TargetStats  `json:"targets"`
	Trends              trend.Analysis `json:"trends"`
	SLA                 SLAMetrics     `json:"sla"`
}

// SystemStats is the aggregated view across all discovered targets and the
// queue subsystem.
type SystemStats struct {
	TotalTargets     int `json:"totalTargets"`
	HealthyTargets   int `json:"healthyTargets"`
	DegradedTargets  int `json:"degradedTargets"`
	UnhealthyTargets int `json:"unhealthyTargets"`
	UnknownTargets   int `json:"unknownTargets"`

	// Job throughput over fixed windows, derived from history
	JobsLastMinute   float64 `json:"jobsLastMinute"`
	JobsLast5Minutes float64 `json:"jobsLast5Minutes"`
	JobsLastHour     float64 `json:"jobsLastHour"`
	JobsLast24Hours  float64 `json:"jobsLast24Hours"`

	SuccessRate float64 `json:"successRate"` // percent
	ErrorRate   float64 `json:"errorRate"`   // percent

	LatencyP50 time.Duration `json:"latencyP50"`
	LatencyP90 time.Duration `json:"latencyP90"`
	LatencyP95 time.Duration `json:"latencyP95"`
	LatencyP99 time.Duration `json:"latencyP99"`

	QueueDepthByPriority map[string]int64 `json:"queueDepthByPriority"`
	QueueDepth           int64            `json:"queueDepth"` // sum across priorities
	DeadLetters          int64            `json:"deadLetters"`
	WorkerUtilization    float64          `json:"workerUtilization"` // 0-1

	BreakersClosed   int `json:"breakersClosed"`
	BreakersHalfOpen int `json:"breakersHalfOpen"`
	BreakersOpen     int `json:"breakersOpen"`

	HealthScore  float64      `json:"healthScore"` // 0-100
	HealthStatus HealthStatus `json:"healthStatus"`
}

// TargetStats is the per-target view derived from one snapshot.
type TargetStats struct {
	Name   string       `json:"name"`
	Type   string       `json:"type"`
	Health HealthStatus `json:"health"`

	Attempts    uint64  `json:"attempts"`
	Successes   uint64  `json:"successes"`
	SuccessRate float64 `json:"successRate"` // percent
	Retries     uint64  `json:"retries"`

	LatencyP50 time.Duration `json:"latencyP50"`
	LatencyP90 time.Duration `json:"latencyP90"`
	LatencyP95 time.Duration `json:"latencyP95"`
	LatencyP99 time.Duration `json:"latencyP99"`

	ErrorsByType map[string]uint64 `json:"errorsByType,omitempty"`

	CacheHitRate *float64 `json:"cacheHitRate,omitempty"`
	BreakerState string   `json:"breakerState"`
	DeadLetters  int64    `json:"deadLetters"`

	// Nil means never observed, which is a valid state.
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	LastFailure *time.Time `json:"lastFailure,omitempty"`
}

// SLAMetrics reports compliance against the configured success-rate target.
type SLAMetrics struct {
	TargetSuccessRate float64       `json:"targetSuccessRate"` // percent
	Compliant         bool          `json:"compliant"`
	Violations        int           `json:"violations"`
	LastViolation     *time.Time    `json:"lastViolation,omitempty"`
	MeanTimeToRecover time.Duration `json:"meanTimeToRecover"`
}
