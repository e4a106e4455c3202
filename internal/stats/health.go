package stats

import (
	"time"

	"github.com/samijaber1/pulse-metrics/internal/config"
)

// HealthInputs are the components feeding the weighted health score.
type HealthInputs struct {
	SuccessRate          float64 // percent
	HealthyTargets       int
	TotalTargets         int
	P95Latency           time.Duration
	MaxAcceptableLatency time.Duration
	QueueDepth           float64
	MaxQueueCapacity     float64
}

// ComputeHealthScore calculates the weighted composite health score,
// clamped to [0, 100]:
//
//	score = w_success * successRate
//	      + w_avail   * healthy/max(total,1) * 100
//	      + w_perf    * 100 * (1 - min(p95/maxLatency, 1))
//	      + w_queue   * 100 * (1 - min(depth/capacity, 1))
//
// Zero targets yield an availability component of 0, never a division by
// zero.
func ComputeHealthScore(w config.Weights, in HealthInputs) float64 {
	totalTargets := in.TotalTargets
	if totalTargets < 1 {
		totalTargets = 1
	}
	availability := float64(in.HealthyTargets) / float64(totalTargets) * 100

	performance := 100 * (1 - boundedRatio(in.P95Latency.Seconds(), in.MaxAcceptableLatency.Seconds()))
	queueHealth := 100 * (1 - boundedRatio(in.QueueDepth, in.MaxQueueCapacity))

	score := w.Success*in.SuccessRate +
		w.Availability*availability +
		w.Performance*performance +
		w.QueueHealth*queueHealth

	return clamp(score, 0, 100)
}

// StatusForScore maps a health score to a status: >= 90 healthy,
// >= 70 degraded, otherwise unhealthy.
func StatusForScore(score float64) HealthStatus {
	switch {
	case score >= 90:
		return HealthHealthy
	case score >= 70:
		return HealthDegraded
	default:
		return HealthUnhealthy
	}
}

// boundedRatio returns value/limit capped at 1. A non-positive limit means
// the bound is unconfigured and contributes no penalty.
func boundedRatio(value, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	ratio := value / limit
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
