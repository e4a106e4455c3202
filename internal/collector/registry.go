package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// RegistryCollector is the fallback for subsystems whose metrics are only
// reachable through a monitoring-backend registry: it gathers the registry
// and flattens families matching a name prefix into the metric map. Slower
// than direct struct access, but satisfies the same contract.
type RegistryCollector struct {
	name     string
	prefix   string
	gatherer prometheus.Gatherer
}

// NewRegistryCollector creates a collector scraping the given gatherer for
// metric families whose name starts with prefix. An empty prefix matches
// everything.
func NewRegistryCollector(name, prefix string, gatherer prometheus.Gatherer) *RegistryCollector {
	return &RegistryCollector{
		name:     name,
		prefix:   prefix,
		gatherer: gatherer,
	}
}

// Name implements Collector
func (c *RegistryCollector) Name() string { return c.name }

// IsAvailable implements Collector
func (c *RegistryCollector) IsAvailable() bool { return c.gatherer != nil }

// Collect implements Collector
func (c *RegistryCollector) Collect(ctx context.Context) (map[string]float64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	families, err := c.gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather registry: %w", err)
	}

	out := make(map[string]float64)
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), c.prefix) {
			continue
		}
		for _, m := range family.GetMetric() {
			flattenMetric(out, family.GetName()+labelSuffix(m.GetLabel()), m)
		}
	}

	return out, nil
}

// flattenMetric writes one sample's values under base into out.
func flattenMetric(out map[string]float64, base string, m *dto.Metric) {
	switch {
	case m.Counter != nil:
		out[base] = m.Counter.GetValue()
	case m.Gauge != nil:
		out[base] = m.Gauge.GetValue()
	case m.Untyped != nil:
		out[base] = m.Untyped.GetValue()
	case m.Summary != nil:
		out[base+".count"] = float64(m.Summary.GetSampleCount())
		out[base+".sum"] = m.Summary.GetSampleSum()
		for _, q := range m.Summary.GetQuantile() {
			out[fmt.Sprintf("%s.p%g", base, q.GetQuantile()*100)] = q.GetValue()
		}
	case m.Histogram != nil:
		out[base+".count"] = float64(m.Histogram.GetSampleCount())
		out[base+".sum"] = m.Histogram.GetSampleSum()
	}
}

// labelSuffix encodes label pairs into the metric name, sorted by label
// name for deterministic keys.
func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(labels))
	for _, l := range labels {
		pairs = append(pairs, l.GetName()+"."+l.GetValue())
	}
	sort.Strings(pairs)

	return "." + strings.Join(pairs, ".")
}
