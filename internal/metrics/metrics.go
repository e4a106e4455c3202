// Package metrics holds the engine's own operational metrics. They live on
// a private registry so the engine's self-monitoring never mixes with the
// subsystem registries it scrapes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine bundles the engine self-metrics and their registry
type Engine struct {
	registry *prometheus.Registry

	CollectionPasses  prometheus.Counter
	CollectorFailures *prometheus.CounterVec
	CollectorSkips    *prometheus.CounterVec
	PassDuration      prometheus.Histogram
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	HealthScore       prometheus.Gauge
	SLAViolations     prometheus.Counter
}

// NewEngine creates the self-metrics on a fresh private registry
func NewEngine() *Engine {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Engine{
		registry: registry,

		CollectionPasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_collection_passes_total",
			Help: "Total number of collector fan-out passes",
		}),
		CollectorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_collector_failures_total",
			Help: "Collector errors and timeouts by collector name",
		}, []string{"collector"}),
		CollectorSkips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_collector_skips_total",
			Help: "Collectors skipped because their subsystem was unavailable",
		}, []string{"collector"}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_calculation_duration_seconds",
			Help:    "Full stats calculation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 500us to ~1s
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_stats_cache_hits_total",
			Help: "Calculate calls served from the stats cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_stats_cache_misses_total",
			Help: "Calculate calls that recomputed the stats",
		}),
		HealthScore: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_health_score",
			Help: "Last computed composite health score (0-100)",
		}),
		SLAViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_sla_violations_total",
			Help: "SLA violation episodes opened",
		}),
	}
}

// Registry returns the private registry for the /metrics handler
func (e *Engine) Registry() *prometheus.Registry {
	return e.registry
}
