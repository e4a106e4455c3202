package stats

import (
	"math"
	"testing"
	"time"

	"github.com/samijaber1/pulse-metrics/internal/config"
)

func TestComputeHealthScore(t *testing.T) {
	weights := config.DefaultWeights()

	tests := []struct {
		name string
		in   HealthInputs
		want float64
	}{
		{
			name: "perfect system",
			in: HealthInputs{
				SuccessRate:          100,
				HealthyTargets:       2,
				TotalTargets:         2,
				P95Latency:           0,
				MaxAcceptableLatency: 2 * time.Second,
				QueueDepth:           0,
				MaxQueueCapacity:     1000,
			},
			want: 100,
		},
		{
			name: "healthy with light load",
			in: HealthInputs{
				SuccessRate:          99.5,
				HealthyTargets:       3,
				TotalTargets:         3,
				P95Latency:           500 * time.Millisecond,
				MaxAcceptableLatency: 2 * time.Second,
				QueueDepth:           50,
				MaxQueueCapacity:     1000,
			},
			// 0.4*99.5 + 0.3*100 + 0.2*75 + 0.1*95
			want: 94.3,
		},
		{
			name: "degraded",
			in: HealthInputs{
				SuccessRate:          90,
				HealthyTargets:       2,
				TotalTargets:         2,
				P95Latency:           1 * time.Second,
				MaxAcceptableLatency: 2 * time.Second,
				QueueDepth:           500,
				MaxQueueCapacity:     1000,
			},
			// 0.4*90 + 0.3*100 + 0.2*50 + 0.1*50
			want: 81,
		},
		{
			name: "latency penalty capped at max",
			in: HealthInputs{
				SuccessRate:          100,
				HealthyTargets:       1,
				TotalTargets:         1,
				P95Latency:           30 * time.Second,
				MaxAcceptableLatency: 2 * time.Second,
				QueueDepth:           0,
				MaxQueueCapacity:     1000,
			},
			// performance component bottoms out at 0, never negative
			want: 80,
		},
		{
			name: "queue overflow capped at capacity",
			in: HealthInputs{
				SuccessRate:          100,
				HealthyTargets:       1,
				TotalTargets:         1,
				P95Latency:           0,
				MaxAcceptableLatency: 2 * time.Second,
				QueueDepth:           5000,
				MaxQueueCapacity:     1000,
			},
			want: 90,
		},
		{
			name: "zero targets no division by zero",
			in: HealthInputs{
				SuccessRate:          0,
				HealthyTargets:       0,
				TotalTargets:         0,
				P95Latency:           0,
				MaxAcceptableLatency: 2 * time.Second,
				QueueDepth:           0,
				MaxQueueCapacity:     1000,
			},
			// only performance and queue components contribute
			want: 30,
		},
		{
			name: "everything failing clamps to zero",
			in: HealthInputs{
				SuccessRate:          0,
				HealthyTargets:       0,
				TotalTargets:         5,
				P95Latency:           time.Minute,
				MaxAcceptableLatency: 2 * time.Second,
				QueueDepth:           9999,
				MaxQueueCapacity:     1000,
			},
			want: 0,
		},
		{
			name: "unconfigured limits add no penalty",
			in: HealthInputs{
				SuccessRate:    100,
				HealthyTargets: 1,
				TotalTargets:   1,
				P95Latency:     10 * time.Second,
				QueueDepth:     9999,
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeHealthScore(weights, tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComputeHealthScore = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("ComputeHealthScore = %v, outside [0, 100]", got)
			}
		})
	}
}

func TestStatusForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  HealthStatus
	}{
		{100, HealthHealthy},
		{90, HealthHealthy},
		{89.99, HealthDegraded},
		{70, HealthDegraded},
		{69.99, HealthUnhealthy},
		{0, HealthUnhealthy},
	}

	for _, tt := range tests {
		if got := StatusForScore(tt.score); got != tt.want {
			t.Errorf("StatusForScore(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
