package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/samijaber1/pulse-metrics/internal/collector"
	"github.com/samijaber1/pulse-metrics/internal/config"
	"github.com/samijaber1/pulse-metrics/internal/history"
	"github.com/samijaber1/pulse-metrics/internal/metrics"
	"github.com/samijaber1/pulse-metrics/internal/trend"
)

// Config holds stats aggregation parameters
type Config struct {
	CacheTTL             time.Duration
	Weights              config.Weights
	MaxAcceptableLatency time.Duration
	MaxQueueCapacity     float64
	SLATargetSuccessRate float64 // percent
}

// DefaultConfig returns default aggregation parameters
func DefaultConfig() Config {
	return Config{
		CacheTTL:             1 * time.Second,
		Weights:              config.DefaultWeights(),
		MaxAcceptableLatency: 2 * time.Second,
		MaxQueueCapacity:     1000,
		SLATargetSuccessRate: 99.9,
	}
}

// FromEngineConfig extracts the aggregation parameters from the engine
// config.
func FromEngineConfig(cfg config.Config) Config {
	return Config{
		CacheTTL:             cfg.CacheTTL,
		Weights:              cfg.HealthWeights,
		MaxAcceptableLatency: cfg.MaxAcceptableLatency,
		MaxQueueCapacity:     cfg.MaxQueueCapacity,
		SLATargetSuccessRate: cfg.SLATargetSuccessRate,
	}
}

// Aggregator orchestrates collection, derivation, trend analysis, SLA
// evaluation, and the single-slot cache. Calculate is safe for many
// concurrent callers and never returns an error: degraded inputs degrade
// the content of the result, not the call.
type Aggregator struct {
	config     Config
	collectors *collector.Aggregator
	history    *history.Store
	detector   *trend.Detector
	sla        *SLAEvaluator
	cache      *resultCache
	logger     *zap.Logger
	engine     *metrics.Engine

	violMu         sync.Mutex
	seenViolations int

	now func() time.Time
}

// New creates a stats aggregator. The aggregator owns its cache and SLA
// state; construct one per process at startup.
func New(cfg Config, collectors *collector.Aggregator, hist *history.Store, detector *trend.Detector, logger *zap.Logger, engine *metrics.Engine) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = metrics.NewEngine()
	}

	return &Aggregator{
		config:     cfg,
		collectors: collectors,
		history:    hist,
		detector:   detector,
		sla:        NewSLAEvaluator(cfg.SLATargetSuccessRate),
		cache:      newResultCache(cfg.CacheTTL),
		logger:     logger,
		engine:     engine,
		now:        time.Now,
	}
}

// Calculate returns the current publishing stats, served from the cache
// when it is younger than the TTL.
func (a *Aggregator) Calculate(ctx context.Context) *PublishingStats {
	now := a.now()
	if cached, ok := a.cache.get(now); ok {
		a.engine.CacheHits.Inc()
		return cached
	}
	a.engine.CacheMisses.Inc()

	start := time.Now()
	snap := a.collectors.CollectAll(ctx)

	targets := a.deriveTargetStats(snap)
	system, totalAttempts := a.deriveSystemStats(snap, targets, now)

	score := ComputeHealthScore(a.config.Weights, HealthInputs{
		SuccessRate:          system.SuccessRate,
		HealthyTargets:       system.HealthyTargets,
		TotalTargets:         system.TotalTargets,
		P95Latency:           system.LatencyP95,
		MaxAcceptableLatency: a.config.MaxAcceptableLatency,
		QueueDepth:           float64(system.QueueDepth),
		MaxQueueCapacity:     a.config.MaxQueueCapacity,
	})
	system.HealthScore = score
	system.HealthStatus = StatusForScore(score)
	a.engine.HealthScore.Set(score)

	// Trends read the history as left by the previous completed pass;
	// this pass's projection is appended afterwards.
	trends := a.detector.Analyze(trend.Current{
		SuccessRate:       system.SuccessRate,
		P95LatencySeconds: system.LatencyP95.Seconds(),
		ErrorRate:         system.ErrorRate,
		QueueDepth:        float64(system.QueueDepth),
	})

	sla := a.sla.Evaluate(system.SuccessRate, totalAttempts > 0, now)
	a.countViolations(sla.Violations)

	result := &PublishingStats{
		Timestamp:           now,
		CalculationDuration: time.Since(start),
		System:              system,
		Targets:             targets,
		Trends:              trends,
		SLA:                 sla,
	}

	a.appendHistory(system, snap, now)
	a.cache.set(result, now)
	a.engine.PassDuration.Observe(time.Since(start).Seconds())

	a.logger.Debug("stats calculated",
		zap.Float64("healthScore", score),
		zap.String("healthStatus", string(system.HealthStatus)),
		zap.Int("targets", system.TotalTargets),
		zap.Int("collected", snap.Collected),
		zap.Int("failed", snap.Failed),
		zap.Duration("took", result.CalculationDuration))

	return result
}

// Invalidate forces the next Calculate call to bypass the cache.
func (a *Aggregator) Invalidate() {
	a.cache.invalidate()
}

// LastCalculated reports the timestamp of the most recent result,
// regardless of cache freshness. Used for readiness checks.
func (a *Aggregator) LastCalculated() (time.Time, bool) {
	s, ok := a.cache.peek()
	if !ok {
		return time.Time{}, false
	}
	return s.Timestamp, true
}

// deriveTargetStats discovers targets from the snapshot's target.* keys
// and assembles their per-entity view, ordered by name.
func (a *Aggregator) deriveTargetStats(snap *collector.Snapshot) []TargetStats {
	byName := make(map[string]*TargetStats)
	get := func(name string) *TargetStats {
		t, ok := byName[name]
		if !ok {
			t = &TargetStats{Name: name, BreakerState: collector.BreakerClosed}
			byName[name] = t
		}
		return t
	}

	for key, value := range snap.Metrics {
		if !strings.HasPrefix(key, "target.") {
			continue
		}
		parts := strings.SplitN(key, ".", 3)
		if len(parts) < 3 {
			continue
		}
		t := get(parts[1])
		field := parts[2]

		switch {
		case field == "attempts":
			t.Attempts = uint64(value)
		case field == "successes":
			t.Successes = uint64(value)
		case field == "retries":
			t.Retries = uint64(value)
		case field == "dead_letters":
			t.DeadLetters = int64(value)
		case field == "breaker_state":
			t.BreakerState = collector.BreakerStateName(value)
		case field == "cache_hit_rate":
			rate := value
			t.CacheHitRate = &rate
		case field == "last_success_ts":
			ts := time.Unix(int64(value), 0).UTC()
			t.LastSuccess = &ts
		case field == "last_failure_ts":
			ts := time.Unix(int64(value), 0).UTC()
			t.LastFailure = &ts
		case strings.HasPrefix(field, "latency."):
			d := secondsToDuration(value)
			switch strings.TrimPrefix(field, "latency.") {
			case "p50":
				t.LatencyP50 = d
			case "p90":
				t.LatencyP90 = d
			case "p95":
				t.LatencyP95 = d
			case "p99":
				t.LatencyP99 = d
			}
		case strings.HasPrefix(field, "errors."):
			if t.ErrorsByType == nil {
				t.ErrorsByType = make(map[string]uint64)
			}
			t.ErrorsByType[strings.TrimPrefix(field, "errors.")] = uint64(value)
		case strings.HasPrefix(field, "info."):
			t.Type = strings.TrimPrefix(field, "info.")
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TargetStats, 0, len(names))
	for _, name := range names {
		t := byName[name]
		if t.Attempts > 0 {
			t.SuccessRate = float64(t.Successes) / float64(t.Attempts) * 100
		}
		t.Health = classifyTarget(t)
		out = append(out, *t)
	}
	return out
}

// classifyTarget maps one target's state to a health class. An open
// breaker is unhealthy regardless of rate; a target with no attempts is
// unknown, not unhealthy.
func classifyTarget(t *TargetStats) HealthStatus {
	if t.BreakerState == collector.BreakerOpen {
		return HealthUnhealthy
	}
	if t.Attempts == 0 {
		return HealthUnknown
	}
	return StatusForScore(t.SuccessRate)
}

// deriveSystemStats aggregates the queue metrics and the per-target views
// into the system-wide figures. Returns the stats and the total attempt
// count (zero attempts means no traffic this window).
func (a *Aggregator) deriveSystemStats(snap *collector.Snapshot, targets []TargetStats, now time.Time) (SystemStats, uint64) {
	sys := SystemStats{
		QueueDepthByPriority: make(map[string]int64),
		HealthStatus:         HealthUnknown,
	}

	for key, value := range snap.Metrics {
		if !strings.HasPrefix(key, "queue.") {
			continue
		}
		field := strings.TrimPrefix(key, "queue.")
		switch {
		case strings.HasPrefix(field, "depth."):
			priority := strings.TrimPrefix(field, "depth.")
			sys.QueueDepthByPriority[priority] = int64(value)
			sys.QueueDepth += int64(value)
		case field == "dead_letters":
			sys.DeadLetters = int64(value)
		case field == "worker_utilization":
			sys.WorkerUtilization = value
		}
	}

	var attempts, successes uint64
	var weightedP50, weightedP90, weightedP95, weightedP99 float64
	for _, t := range targets {
		sys.TotalTargets++
		switch t.Health {
		case HealthHealthy:
			sys.HealthyTargets++
		case HealthDegraded:
			sys.DegradedTargets++
		case HealthUnhealthy:
			sys.UnhealthyTargets++
		default:
			sys.UnknownTargets++
		}

		switch t.BreakerState {
		case collector.BreakerOpen:
			sys.BreakersOpen++
		case collector.BreakerHalfOpen:
			sys.BreakersHalfOpen++
		default:
			sys.BreakersClosed++
		}

		attempts += t.Attempts
		successes += t.Successes

		w := float64(t.Attempts)
		weightedP50 += w * t.LatencyP50.Seconds()
		weightedP90 += w * t.LatencyP90.Seconds()
		weightedP95 += w * t.LatencyP95.Seconds()
		weightedP99 += w * t.LatencyP99.Seconds()
	}

	if attempts > 0 {
		sys.SuccessRate = float64(successes) / float64(attempts) * 100
		sys.ErrorRate = 100 - sys.SuccessRate

		// Exact cross-target percentile merging is not possible from
		// quantile summaries; attempt-weighted averaging is the accepted
		// approximation.
		total := float64(attempts)
		sys.LatencyP50 = secondsToDuration(weightedP50 / total)
		sys.LatencyP90 = secondsToDuration(weightedP90 / total)
		sys.LatencyP95 = secondsToDuration(weightedP95 / total)
		sys.LatencyP99 = secondsToDuration(weightedP99 / total)
	}

	completed, haveCompleted := snap.Value(collector.QueueKey("jobs", "completed"))
	sys.JobsLastMinute = a.throughputOver(time.Minute, now, completed, haveCompleted)
	sys.JobsLast5Minutes = a.throughputOver(5*time.Minute, now, completed, haveCompleted)
	sys.JobsLastHour = a.throughputOver(time.Hour, now, completed, haveCompleted)
	sys.JobsLast24Hours = a.throughputOver(24*time.Hour, now, completed, haveCompleted)

	return sys, attempts
}

// throughputOver derives job throughput within the window from the
// recorded cumulative completed counter, including the current reading.
// Counter resets clamp to zero rather than report negative throughput.
func (a *Aggregator) throughputOver(window time.Duration, now time.Time, current float64, haveCurrent bool) float64 {
	samples := a.history.Query(trend.MetricJobsCompleted, now.Add(-window), now)

	var first, last float64
	switch {
	case len(samples) == 0:
		return 0
	case haveCurrent:
		first, last = samples[0].Value, current
	case len(samples) >= 2:
		first, last = samples[0].Value, samples[len(samples)-1].Value
	default:
		return 0
	}

	delta := last - first
	if delta < 0 {
		return 0
	}
	return delta
}

// appendHistory records this pass's reduced projection for the trend
// detector and throughput windows.
func (a *Aggregator) appendHistory(sys SystemStats, snap *collector.Snapshot, now time.Time) {
	a.history.Append(trend.MetricSuccessRate, sys.SuccessRate, now)
	a.history.Append(trend.MetricP95Latency, sys.LatencyP95.Seconds(), now)
	a.history.Append(trend.MetricErrorRate, sys.ErrorRate, now)
	a.history.Append(trend.MetricQueueDepth, float64(sys.QueueDepth), now)

	if completed, ok := snap.Value(collector.QueueKey("jobs", "completed")); ok {
		a.history.Append(trend.MetricJobsCompleted, completed, now)
	}
}

// countViolations bumps the violations counter by however many new
// episodes the SLA evaluator has opened since the last pass.
func (a *Aggregator) countViolations(total int) {
	a.violMu.Lock()
	defer a.violMu.Unlock()

	if total > a.seenViolations {
		a.engine.SLAViolations.Add(float64(total - a.seenViolations))
		a.seenViolations = total
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
