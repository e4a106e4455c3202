package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/samijaber1/pulse-metrics/internal/metrics"
)

// AggregatorConfig holds fan-out timing parameters
type AggregatorConfig struct {
	CollectorTimeout time.Duration // per-collector deadline
	PassTimeout      time.Duration // hard ceiling for the whole fan-out
}

// DefaultAggregatorConfig returns default fan-out parameters
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		CollectorTimeout: 500 * time.Millisecond,
		PassTimeout:      2 * time.Second,
	}
}

// Aggregator fans out to all registered collectors concurrently and merges
// their results into one Snapshot. Per-collector failures are isolated:
// they are logged, counted, and omitted from the merge, never surfaced as
// a pass failure.
type Aggregator struct {
	config     AggregatorConfig
	collectors []Collector
	sem        *semaphore.Weighted
	logger     *zap.Logger
	engine     *metrics.Engine
}

// NewAggregator creates an aggregator over a fixed set of collectors.
// Concurrency is capped at the registered collector count.
func NewAggregator(config AggregatorConfig, collectors []Collector, logger *zap.Logger, engine *metrics.Engine) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = metrics.NewEngine()
	}

	weight := int64(len(collectors))
	if weight < 1 {
		weight = 1
	}

	return &Aggregator{
		config:     config,
		collectors: collectors,
		sem:        semaphore.NewWeighted(weight),
		logger:     logger,
		engine:     engine,
	}
}

// Collectors returns the registered collector count.
func (a *Aggregator) Collectors() int {
	return len(a.collectors)
}

// CollectAll runs one fan-out pass. It always returns a usable snapshot:
// if every collector is unavailable or fails, the snapshot is empty but
// non-nil.
func (a *Aggregator) CollectAll(ctx context.Context) *Snapshot {
	start := time.Now()
	a.engine.CollectionPasses.Inc()

	passCtx, cancel := context.WithTimeout(ctx, a.config.PassTimeout)
	defer cancel()

	resultCh := make(chan Result, len(a.collectors))
	var wg sync.WaitGroup
	skipped := 0
	started := 0

	for _, c := range a.collectors {
		if !c.IsAvailable() {
			skipped++
			a.engine.CollectorSkips.WithLabelValues(c.Name()).Inc()
			a.logger.Debug("collector unavailable, skipping",
				zap.String("collector", c.Name()))
			continue
		}

		started++
		wg.Add(1)
		go func(c Collector) {
			defer wg.Done()
			resultCh <- a.collectOne(passCtx, c)
		}(c)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Join all workers, but give up on the pass deadline: a still-running
	// collector is abandoned for this pass and counted as failed.
	var results []Result
join:
	for {
		select {
		case r, ok := <-resultCh:
			if !ok {
				break join
			}
			results = append(results, r)
		case <-passCtx.Done():
			a.logger.Warn("collection pass deadline exceeded, abandoning stragglers",
				zap.Int("reported", len(results)),
				zap.Int("started", started))
			break join
		}
	}

	// Merge deterministically: sort by collector name so two passes over
	// identical inputs produce identical snapshots regardless of
	// completion order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Collector < results[j].Collector
	})

	merged := make(map[string]float64)
	collected, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			a.engine.CollectorFailures.WithLabelValues(r.Collector).Inc()
			a.logger.Warn("collector failed",
				zap.String("collector", r.Collector),
				zap.Error(r.Err))
			continue
		}
		for k, v := range r.Metrics {
			merged[k] = v
		}
		collected++
	}

	// Abandoned collectors never reported a result.
	failed += started - len(results)

	return &Snapshot{
		Metrics:     merged,
		CollectedAt: start,
		Duration:    time.Since(start),
		Collected:   collected,
		Failed:      failed,
		Skipped:     skipped,
	}
}

// collectOne invokes a single collector under its own deadline.
func (a *Aggregator) collectOne(ctx context.Context, c Collector) (result Result) {
	result = Result{Collector: c.Name(), Available: true}

	// A panicking collector violates the contract; contain it to this
	// pass rather than take down the engine.
	defer func() {
		if r := recover(); r != nil {
			result.Metrics = nil
			result.Err = fmt.Errorf("collector panic: %v", r)
		}
	}()

	if err := a.sem.Acquire(ctx, 1); err != nil {
		result.Err = fmt.Errorf("semaphore acquire: %w", err)
		return result
	}
	defer a.sem.Release(1)

	cctx, cancel := context.WithTimeout(ctx, a.config.CollectorTimeout)
	defer cancel()

	m, err := c.Collect(cctx)
	result.Metrics = m
	result.Err = err
	return result
}
