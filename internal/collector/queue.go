package collector

import (
	"context"
)

// QueueStatsProvider exposes the queue subsystem's internally tracked
// counters for direct in-process reads. The engine never mutates the
// provider.
type QueueStatsProvider interface {
	// QueueDepths returns the current depth per priority class.
	QueueDepths() map[string]int64

	// DeadLetterCount returns the number of dead-lettered jobs.
	DeadLetterCount() int64

	// WorkerUtilization returns the busy fraction of the worker pool (0-1).
	WorkerUtilization() float64

	// JobCounts returns cumulative dispatched/completed/failed job counters.
	JobCounts() (dispatched, completed, failed uint64)
}

// QueueCollector reads the alert queue's metrics via direct struct access.
type QueueCollector struct {
	provider QueueStatsProvider
}

// NewQueueCollector creates a collector over the given provider. A nil
// provider yields an unavailable collector.
func NewQueueCollector(provider QueueStatsProvider) *QueueCollector {
	return &QueueCollector{provider: provider}
}

// Name implements Collector
func (c *QueueCollector) Name() string { return "queue" }

// IsAvailable implements Collector
func (c *QueueCollector) IsAvailable() bool { return c.provider != nil }

// Collect implements Collector
func (c *QueueCollector) Collect(ctx context.Context) (map[string]float64, error) {
	// Provider reads are in-memory; still honor cancellation so an
	// abandoned pass never keeps work alive.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m := make(map[string]float64)

	for priority, depth := range c.provider.QueueDepths() {
		m[QueueKey("depth", priority)] = float64(depth)
	}

	m[QueueKey("dead_letters")] = float64(c.provider.DeadLetterCount())
	m[QueueKey("worker_utilization")] = c.provider.WorkerUtilization()

	dispatched, completed, failed := c.provider.JobCounts()
	m[QueueKey("jobs", "dispatched")] = float64(dispatched)
	m[QueueKey("jobs", "completed")] = float64(completed)
	m[QueueKey("jobs", "failed")] = float64(failed)

	return m, nil
}
