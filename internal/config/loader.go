package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout of the engine config file. Durations
// are strings in the file ("500ms", "24h", "1d") and parsed on load.
type fileConfig struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Collection struct {
		CollectorTimeout string `yaml:"collectorTimeout"`
		PassTimeout      string `yaml:"passTimeout"`
		MetricPrefix     string `yaml:"metricPrefix"`
	} `yaml:"collection"`

	Stats struct {
		CacheTTL string `yaml:"cacheTTL"`
		Weights  struct {
			Success      *float64 `yaml:"success"`
			Availability *float64 `yaml:"availability"`
			Performance  *float64 `yaml:"performance"`
			QueueHealth  *float64 `yaml:"queueHealth"`
		} `yaml:"weights"`
		MaxAcceptableLatency string  `yaml:"maxAcceptableLatency"`
		MaxQueueCapacity     float64 `yaml:"maxQueueCapacity"`
		SLATargetSuccessRate float64 `yaml:"slaTargetSuccessRate"`
	} `yaml:"stats"`

	Trend struct {
		ChangeThreshold float64 `yaml:"changeThreshold"`
		AnomalySigma    float64 `yaml:"anomalySigma"`
		BaselineWindow  string  `yaml:"baselineWindow"`
		GrowthWindow    string  `yaml:"growthWindow"`
	} `yaml:"trend"`

	History struct {
		Capacity  int    `yaml:"capacity"`
		Retention string `yaml:"retention"`
	} `yaml:"history"`

	Refresh struct {
		Interval        string `yaml:"interval"`
		CleanupInterval string `yaml:"cleanupInterval"`
	} `yaml:"refresh"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Load reads a YAML config file and merges it over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := applyFile(&cfg, &fc); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// applyFile copies the non-zero file values onto cfg.
func applyFile(cfg *Config, fc *fileConfig) error {
	if fc.Server.Host != "" {
		cfg.Host = fc.Server.Host
	}
	if fc.Server.Port != 0 {
		cfg.Port = fc.Server.Port
	}

	if err := setDuration(&cfg.CollectorTimeout, fc.Collection.CollectorTimeout, "collection.collectorTimeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.PassTimeout, fc.Collection.PassTimeout, "collection.passTimeout"); err != nil {
		return err
	}
	if fc.Collection.MetricPrefix != "" {
		cfg.MetricPrefix = fc.Collection.MetricPrefix
	}

	if err := setDuration(&cfg.CacheTTL, fc.Stats.CacheTTL, "stats.cacheTTL"); err != nil {
		return err
	}

	// Weights are all-or-nothing: a partial override would silently break
	// the sum-to-one invariant.
	w := fc.Stats.Weights
	if w.Success != nil || w.Availability != nil || w.Performance != nil || w.QueueHealth != nil {
		if w.Success == nil || w.Availability == nil || w.Performance == nil || w.QueueHealth == nil {
			return fmt.Errorf("stats.weights: all four weights must be set together")
		}
		cfg.HealthWeights = Weights{
			Success:      *w.Success,
			Availability: *w.Availability,
			Performance:  *w.Performance,
			QueueHealth:  *w.QueueHealth,
		}
	}

	if err := setDuration(&cfg.MaxAcceptableLatency, fc.Stats.MaxAcceptableLatency, "stats.maxAcceptableLatency"); err != nil {
		return err
	}
	if fc.Stats.MaxQueueCapacity != 0 {
		cfg.MaxQueueCapacity = fc.Stats.MaxQueueCapacity
	}
	if fc.Stats.SLATargetSuccessRate != 0 {
		cfg.SLATargetSuccessRate = fc.Stats.SLATargetSuccessRate
	}

	if fc.Trend.ChangeThreshold != 0 {
		cfg.TrendChangeThreshold = fc.Trend.ChangeThreshold
	}
	if fc.Trend.AnomalySigma != 0 {
		cfg.AnomalySigma = fc.Trend.AnomalySigma
	}
	if err := setDuration(&cfg.BaselineWindow, fc.Trend.BaselineWindow, "trend.baselineWindow"); err != nil {
		return err
	}
	if err := setDuration(&cfg.GrowthWindow, fc.Trend.GrowthWindow, "trend.growthWindow"); err != nil {
		return err
	}

	if fc.History.Capacity != 0 {
		cfg.HistoryCapacity = fc.History.Capacity
	}
	if err := setDuration(&cfg.HistoryRetention, fc.History.Retention, "history.retention"); err != nil {
		return err
	}

	if err := setDuration(&cfg.RefreshInterval, fc.Refresh.Interval, "refresh.interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.CleanupInterval, fc.Refresh.CleanupInterval, "refresh.cleanupInterval"); err != nil {
		return err
	}

	if fc.Logging.Level != "" {
		cfg.LogLevel = fc.Logging.Level
	}
	if fc.Logging.File != "" {
		cfg.LogFile = fc.Logging.File
	}

	return nil
}

// setDuration parses a duration string into dst if the string is non-empty.
func setDuration(dst *time.Duration, s, field string) error {
	if s == "" {
		return nil
	}
	d, err := ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
