package config

import (
	"fmt"
	"math"
	"time"
)

// Weights are the health score component weights. They must sum to 1.0.
type Weights struct {
	Success      float64
	Availability float64
	Performance  float64
	QueueHealth  float64
}

// DefaultWeights returns the default health score weighting.
func DefaultWeights() Weights {
	return Weights{
		Success:      0.4,
		Availability: 0.3,
		Performance:  0.2,
		QueueHealth:  0.1,
	}
}

// Validate checks that all weights are non-negative and sum to 1.0
func (w Weights) Validate() error {
	if w.Success < 0 || w.Availability < 0 || w.Performance < 0 || w.QueueHealth < 0 {
		return fmt.Errorf("health weights must be non-negative")
	}

	sum := w.Success + w.Availability + w.Performance + w.QueueHealth
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("health weights must sum to 1.0, got %.3f", sum)
	}

	return nil
}

// Config holds engine configuration
type Config struct {
	// Self-monitoring server settings
	Host string
	Port int

	// Collection settings
	CollectorTimeout time.Duration // per-collector deadline
	PassTimeout      time.Duration // whole fan-out ceiling
	MetricPrefix     string        // name prefix for registry-scrape collectors

	// Stats settings
	CacheTTL             time.Duration
	HealthWeights        Weights
	MaxAcceptableLatency time.Duration
	MaxQueueCapacity     float64
	SLATargetSuccessRate float64 // percent

	// Trend detection settings
	TrendChangeThreshold float64 // fraction, e.g. 0.05 for 5%
	AnomalySigma         float64
	BaselineWindow       time.Duration
	GrowthWindow         time.Duration

	// History settings
	HistoryCapacity  int // samples retained per metric
	HistoryRetention time.Duration

	// Background refresh settings
	RefreshInterval time.Duration
	CleanupInterval time.Duration

	// Logging settings
	LogLevel string
	LogFile  string

	// Operational settings
	GracefulShutdownTimeout time.Duration
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.CollectorTimeout <= 0 {
		return fmt.Errorf("collector timeout must be positive")
	}

	if c.PassTimeout < c.CollectorTimeout {
		return fmt.Errorf("pass timeout (%s) must be >= collector timeout (%s)",
			c.PassTimeout, c.CollectorTimeout)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if err := c.HealthWeights.Validate(); err != nil {
		return err
	}

	if c.MaxAcceptableLatency <= 0 {
		return fmt.Errorf("max acceptable latency must be positive")
	}

	if c.MaxQueueCapacity <= 0 {
		return fmt.Errorf("max queue capacity must be positive")
	}

	if c.SLATargetSuccessRate <= 0 || c.SLATargetSuccessRate > 100 {
		return fmt.Errorf("SLA target success rate must be in (0, 100], got %.2f", c.SLATargetSuccessRate)
	}

	if c.TrendChangeThreshold <= 0 {
		return fmt.Errorf("trend change threshold must be positive")
	}

	if c.AnomalySigma <= 0 {
		return fmt.Errorf("anomaly sigma must be positive")
	}

	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be positive")
	}

	if c.HistoryRetention <= 0 {
		return fmt.Errorf("history retention must be positive")
	}

	if c.RefreshInterval <= 0 || c.CleanupInterval <= 0 {
		return fmt.Errorf("refresh and cleanup intervals must be positive")
	}

	return nil
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Host:                    "0.0.0.0",
		Port:                    9090,
		CollectorTimeout:        500 * time.Millisecond,
		PassTimeout:             2 * time.Second,
		CacheTTL:                1 * time.Second,
		HealthWeights:           DefaultWeights(),
		MaxAcceptableLatency:    2 * time.Second,
		MaxQueueCapacity:        1000,
		SLATargetSuccessRate:    99.9,
		TrendChangeThreshold:    0.05,
		AnomalySigma:            3,
		BaselineWindow:          24 * time.Hour,
		GrowthWindow:            5 * time.Minute,
		HistoryCapacity:         2880, // 24h at the default 30s refresh
		HistoryRetention:        24 * time.Hour,
		RefreshInterval:         30 * time.Second,
		CleanupInterval:         5 * time.Minute,
		LogLevel:                "info",
		GracefulShutdownTimeout: 30 * time.Second,
	}
}
