package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StaticCollector serves a fixed metric map. It backs the synthetic mode
// of the server and doubles as a fixture collector in tests, where the
// optional error and delay simulate failing or slow subsystems.
type StaticCollector struct {
	name      string
	metrics   map[string]float64
	available bool

	// Failure injection
	Err   error
	Delay time.Duration
}

// NewStaticCollector creates an available collector serving the given map.
func NewStaticCollector(name string, metrics map[string]float64) *StaticCollector {
	return &StaticCollector{
		name:      name,
		metrics:   metrics,
		available: true,
	}
}

// NewUnavailableCollector creates a collector that reports unavailable.
func NewUnavailableCollector(name string) *StaticCollector {
	return &StaticCollector{name: name}
}

// staticFixture is the JSON layout of a fixture file.
type staticFixture struct {
	Name      string             `json:"name"`
	Available *bool              `json:"available,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// LoadFixture reads a static collector from a JSON fixture file.
func LoadFixture(path string) (*StaticCollector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture staticFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	if fixture.Name == "" {
		return nil, fmt.Errorf("fixture %s: name is required", path)
	}

	c := NewStaticCollector(fixture.Name, fixture.Metrics)
	if fixture.Available != nil {
		c.available = *fixture.Available
	}
	return c, nil
}

// Name implements Collector
func (c *StaticCollector) Name() string { return c.name }

// IsAvailable implements Collector
func (c *StaticCollector) IsAvailable() bool { return c.available }

// Collect implements Collector. The map is copied so the snapshot merge
// never aliases collector-owned state.
func (c *StaticCollector) Collect(ctx context.Context) (map[string]float64, error) {
	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if c.Err != nil {
		return nil, c.Err
	}

	out := make(map[string]float64, len(c.metrics))
	for k, v := range c.metrics {
		out[k] = v
	}
	return out, nil
}
