package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/samijaber1/pulse-metrics/internal/api"
	"github.com/samijaber1/pulse-metrics/internal/collector"
	"github.com/samijaber1/pulse-metrics/internal/config"
	"github.com/samijaber1/pulse-metrics/internal/history"
	"github.com/samijaber1/pulse-metrics/internal/logging"
	"github.com/samijaber1/pulse-metrics/internal/metrics"
	"github.com/samijaber1/pulse-metrics/internal/scheduler"
	"github.com/samijaber1/pulse-metrics/internal/stats"
	"github.com/samijaber1/pulse-metrics/internal/trend"
)

func main() {
	var (
		configPath  = flag.String("config", "", "engine config YAML file (defaults apply when empty)")
		mode        = flag.String("mode", "registry", "collector mode (registry|synthetic)")
		fixturesDir = flag.String("fixtures", "", "directory of JSON collector fixtures (synthetic mode)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.File = cfg.LogFile
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging configuration: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting pulse-metrics engine",
		zap.String("config", *configPath),
		zap.String("mode", *mode),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)))

	collectors, err := buildCollectors(*mode, *fixturesDir, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build collectors", zap.Error(err))
	}
	if len(collectors) == 0 {
		logger.Warn("no collectors registered; stats will report unknown health")
	}

	engineMetrics := metrics.NewEngine()
	hist := history.NewStore(cfg.HistoryCapacity, cfg.HistoryRetention)
	detector := trend.NewDetector(trend.Config{
		ChangeThreshold: cfg.TrendChangeThreshold,
		AnomalySigma:    cfg.AnomalySigma,
		BaselineWindow:  cfg.BaselineWindow,
		GrowthWindow:    cfg.GrowthWindow,
	}, hist)

	collectorAgg := collector.NewAggregator(collector.AggregatorConfig{
		CollectorTimeout: cfg.CollectorTimeout,
		PassTimeout:      cfg.PassTimeout,
	}, collectors, logger, engineMetrics)

	statsAgg := stats.New(stats.FromEngineConfig(cfg), collectorAgg, hist, detector, logger, engineMetrics)

	sched := scheduler.New(statsAgg, hist, cfg.RefreshInterval, cfg.CleanupInterval, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	apiServer := api.NewServer(statsAgg, engineMetrics.Registry(), addr, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- apiServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("server error", zap.Error(err))

	case sig := <-shutdown:
		logger.Info("received signal", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Error("error shutting down server", zap.Error(err))
		}
		sched.Stop()

		logger.Info("shutdown complete")
	}
}

// buildCollectors assembles the collector set for the chosen mode.
// Registry mode scrapes the process-default prometheus registry filtered
// by the configured prefix; synthetic mode loads fixture collectors from
// JSON files.
func buildCollectors(mode, fixturesDir string, cfg config.Config, logger *zap.Logger) ([]collector.Collector, error) {
	switch mode {
	case "registry":
		c := collector.NewRegistryCollector("registry", cfg.MetricPrefix, prometheus.DefaultGatherer)
		return []collector.Collector{c}, nil

	case "synthetic":
		if fixturesDir == "" {
			return nil, nil
		}
		paths, err := filepath.Glob(filepath.Join(fixturesDir, "*.json"))
		if err != nil {
			return nil, err
		}
		var out []collector.Collector
		for _, path := range paths {
			c, err := collector.LoadFixture(path)
			if err != nil {
				return nil, fmt.Errorf("load fixture %s: %w", path, err)
			}
			logger.Info("loaded fixture collector",
				zap.String("collector", c.Name()),
				zap.String("file", path))
			out = append(out, c)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
}
