// Package scheduler runs the engine's background loops: periodic stats
// refresh (keeps the cache warm and the history fed even without readers)
// and periodic history cleanup.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/samijaber1/pulse-metrics/internal/history"
	"github.com/samijaber1/pulse-metrics/internal/stats"
)

// Scheduler manages the periodic refresh and cleanup loops
type Scheduler struct {
	aggregator *stats.Aggregator
	history    *history.Store

	refreshInterval time.Duration
	cleanupInterval time.Duration

	logger  *zap.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a scheduler
func New(aggregator *stats.Aggregator, hist *history.Store, refreshInterval, cleanupInterval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		aggregator:      aggregator,
		history:         hist,
		refreshInterval: refreshInterval,
		cleanupInterval: cleanupInterval,
		logger:          logger,
	}
}

// Start begins the background loops
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(2)
	go s.refreshLoop(ctx)
	go s.cleanupLoop(ctx)

	s.logger.Info("scheduler started",
		zap.Duration("refreshInterval", s.refreshInterval),
		zap.Duration("cleanupInterval", s.cleanupInterval))
	return nil
}

// Stop stops the loops and waits for them to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// refreshLoop periodically recomputes the stats
func (s *Scheduler) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	// Initial calculation so the cache is populated before the first
	// reader arrives.
	s.aggregator.Calculate(ctx)

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.aggregator.Invalidate()
			s.aggregator.Calculate(ctx)
		}
	}
}

// cleanupLoop periodically evicts out-of-retention history
func (s *Scheduler) cleanupLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.history.Cleanup()
			s.logger.Debug("history cleanup completed")
		}
	}
}
