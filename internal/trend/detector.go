// Package trend classifies metric movement against recorded history:
// direction versus a long baseline, sigma-based anomaly detection, and a
// short-window growth rate. All detections are pure reads over the history
// store; insufficient data always degrades to "stable", never to an error.
package trend

import (
	"math"
	"time"

	"github.com/samijaber1/pulse-metrics/internal/history"
)

// Direction classifies a metric's movement against its baseline
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionStable     Direction = "stable"
	DirectionDecreasing Direction = "decreasing"
)

// LatencyDirection classifies latency movement in quality terms
type LatencyDirection string

const (
	LatencyImproving LatencyDirection = "improving"
	LatencyStable    LatencyDirection = "stable"
	LatencyDegrading LatencyDirection = "degrading"
)

// Metric series the stats aggregator records and the detector reads.
const (
	MetricSuccessRate   = "system.success_rate"
	MetricP95Latency    = "system.p95_latency_seconds"
	MetricErrorRate     = "system.error_rate"
	MetricQueueDepth    = "system.queue_depth"
	MetricJobsCompleted = "system.jobs_completed"
)

// Config holds trend detection parameters
type Config struct {
	ChangeThreshold float64       // relative change fraction for trend classification
	AnomalySigma    float64       // deviation multiplier for anomaly detection
	BaselineWindow  time.Duration // lookback for baseline mean and sigma
	GrowthWindow    time.Duration // lookback for slope estimation
}

// DefaultConfig returns default trend detection parameters
func DefaultConfig() Config {
	return Config{
		ChangeThreshold: 0.05,
		AnomalySigma:    3,
		BaselineWindow:  24 * time.Hour,
		GrowthWindow:    5 * time.Minute,
	}
}

// Detector runs trend and anomaly detection over a history store
type Detector struct {
	config  Config
	history *history.Store

	now func() time.Time
}

// NewDetector creates a detector reading from the given store
func NewDetector(config Config, store *history.Store) *Detector {
	return &Detector{
		config:  config,
		history: store,
		now:     time.Now,
	}
}

// ClassifyTrend compares the current value to the baseline mean over the
// configured window. A zero or missing baseline classifies as stable.
func (d *Detector) ClassifyTrend(metric string, current float64) Direction {
	baseline, ok := d.baselineMean(metric)
	if !ok || baseline == 0 {
		return DirectionStable
	}

	change := (current - baseline) / baseline
	switch {
	case change > d.config.ChangeThreshold:
		return DirectionIncreasing
	case change < -d.config.ChangeThreshold:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}

// DetectAnomaly flags the current value when it deviates from the baseline
// mean by more than the configured number of standard deviations. It also
// returns the baseline mean. Zero variance or no history never flags.
func (d *Detector) DetectAnomaly(metric string, current float64) (bool, float64) {
	samples := d.baselineSamples(metric)
	if len(samples) < 2 {
		return false, 0
	}

	mean, sigma := meanStddev(samples)
	if sigma == 0 {
		return false, mean
	}

	return math.Abs(current-mean) > d.config.AnomalySigma*sigma, mean
}

// GrowthRate estimates the metric's slope in units per minute via a
// least-squares fit over the growth window, with the current value
// appended as the newest point. Fewer than two points yields 0.
func (d *Detector) GrowthRate(metric string, current float64) float64 {
	now := d.now()
	samples := d.history.Query(metric, now.Add(-d.config.GrowthWindow), now)
	samples = append(samples, history.Sample{Timestamp: now, Value: current})
	if len(samples) < 2 {
		return 0
	}

	// x in minutes since the first sample
	origin := samples[0].Timestamp
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(samples))
	for _, s := range samples {
		x := s.Timestamp.Sub(origin).Minutes()
		sumX += x
		sumY += s.Value
		sumXY += x * s.Value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// Current holds the freshly computed values the detector analyzes against
// history.
type Current struct {
	SuccessRate       float64 // percent
	P95LatencySeconds float64
	ErrorRate         float64 // percent
	QueueDepth        float64
}

// Analysis is the combined trend view for one calculation pass
type Analysis struct {
	SuccessRateTrend Direction        `json:"successRateTrend"`
	LatencyTrend     LatencyDirection `json:"latencyTrend"`
	AnomalyDetected  bool             `json:"anomalyDetected"`
	AnomalyBaseline  float64          `json:"anomalyBaseline"`
	AnomalyCurrent   float64          `json:"anomalyCurrent"`
	QueueGrowthRate  float64          `json:"queueGrowthRate"` // units per minute
	QueueDepthTrend  Direction        `json:"queueDepthTrend"`
}

// Analyze runs the four independent detections for one pass: success-rate
// trend, latency trend, error-rate anomaly, and queue growth.
func (d *Detector) Analyze(current Current) Analysis {
	analysis := Analysis{
		SuccessRateTrend: d.ClassifyTrend(MetricSuccessRate, current.SuccessRate),
		QueueGrowthRate:  d.GrowthRate(MetricQueueDepth, current.QueueDepth),
		QueueDepthTrend:  d.ClassifyTrend(MetricQueueDepth, current.QueueDepth),
	}

	// Rising latency is a degradation, so the raw direction inverts.
	switch d.ClassifyTrend(MetricP95Latency, current.P95LatencySeconds) {
	case DirectionIncreasing:
		analysis.LatencyTrend = LatencyDegrading
	case DirectionDecreasing:
		analysis.LatencyTrend = LatencyImproving
	default:
		analysis.LatencyTrend = LatencyStable
	}

	anomaly, baseline := d.DetectAnomaly(MetricErrorRate, current.ErrorRate)
	analysis.AnomalyDetected = anomaly
	analysis.AnomalyBaseline = baseline
	analysis.AnomalyCurrent = current.ErrorRate

	return analysis
}

// baselineMean returns the mean over the baseline window, false if empty.
func (d *Detector) baselineMean(metric string) (float64, bool) {
	samples := d.baselineSamples(metric)
	if len(samples) == 0 {
		return 0, false
	}
	mean, _ := meanStddev(samples)
	return mean, true
}

func (d *Detector) baselineSamples(metric string) []history.Sample {
	now := d.now()
	return d.history.Query(metric, now.Add(-d.config.BaselineWindow), now)
}

// meanStddev computes the mean and population standard deviation.
func meanStddev(samples []history.Sample) (float64, float64) {
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	mean := sum / float64(len(samples))

	var sumSq float64
	for _, s := range samples {
		dev := s.Value - mean
		sumSq += dev * dev
	}

	return mean, math.Sqrt(sumSq / float64(len(samples)))
}
