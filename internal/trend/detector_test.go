package trend

import (
	"math"
	"testing"
	"time"

	"github.com/samijaber1/pulse-metrics/internal/history"
)

// The store's retention cut runs on the wall clock, so the test reference
// time has to be near real now.
var baseTime = time.Now()

// newTestDetector pins the detector clock so window math is deterministic.
func newTestDetector(cfg Config) (*Detector, *history.Store) {
	store := history.NewStore(5000, 48*time.Hour)
	d := NewDetector(cfg, store)
	d.now = func() time.Time { return baseTime }
	return d, store
}

func seedBaseline(store *history.Store, metric string, values []float64) {
	// Spread samples evenly over the last 2 hours.
	start := baseTime.Add(-2 * time.Hour)
	step := 2 * time.Hour / time.Duration(len(values)+1)
	for i, v := range values {
		store.Append(metric, v, start.Add(time.Duration(i+1)*step))
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		baseline []float64
		current  float64
		want     Direction
	}{
		{
			name:     "above threshold is increasing",
			baseline: []float64{95.0, 95.0, 95.0},
			current:  99.8, // +5.05%
			want:     DirectionIncreasing,
		},
		{
			name:     "within threshold is stable",
			baseline: []float64{95.0, 95.0, 95.0},
			current:  97.0, // +2.1%
			want:     DirectionStable,
		},
		{
			name:     "below threshold is decreasing",
			baseline: []float64{100.0, 100.0, 100.0},
			current:  90.0, // -10%
			want:     DirectionDecreasing,
		},
		{
			name:     "exactly at threshold is stable",
			baseline: []float64{100.0, 100.0},
			current:  105.0, // change == threshold, not strictly greater
			want:     DirectionStable,
		},
		{
			name:     "no history is stable",
			baseline: nil,
			current:  50.0,
			want:     DirectionStable,
		},
		{
			name:     "zero baseline is stable",
			baseline: []float64{0, 0, 0},
			current:  10.0,
			want:     DirectionStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store := newTestDetector(DefaultConfig())
			if tt.baseline != nil {
				seedBaseline(store, "m", tt.baseline)
			}

			if got := d.ClassifyTrend("m", tt.current); got != tt.want {
				t.Errorf("ClassifyTrend = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyTrend_IgnoresSamplesOutsideWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaselineWindow = time.Hour
	d, store := newTestDetector(cfg)

	// Old samples would make the baseline 50; only the recent 95s count.
	store.Append("m", 50, baseTime.Add(-3*time.Hour))
	store.Append("m", 50, baseTime.Add(-2*time.Hour))
	store.Append("m", 95, baseTime.Add(-30*time.Minute))
	store.Append("m", 95, baseTime.Add(-10*time.Minute))

	if got := d.ClassifyTrend("m", 96); got != DirectionStable {
		t.Errorf("ClassifyTrend = %v, want stable against recent baseline", got)
	}
}

func TestDetectAnomaly(t *testing.T) {
	// mean 100, population sigma 5
	spread := []float64{95, 95, 95, 95, 105, 105, 105, 105}

	tests := []struct {
		name         string
		baseline     []float64
		current      float64
		wantAnomaly  bool
		wantBaseline float64
	}{
		{
			name:         "beyond three sigma",
			baseline:     spread,
			current:      116, // |116-100| = 16 > 15
			wantAnomaly:  true,
			wantBaseline: 100,
		},
		{
			name:         "within three sigma",
			baseline:     spread,
			current:      110,
			wantAnomaly:  false,
			wantBaseline: 100,
		},
		{
			name:         "low side anomaly",
			baseline:     spread,
			current:      84,
			wantAnomaly:  true,
			wantBaseline: 100,
		},
		{
			name:         "zero variance never flags",
			baseline:     []float64{100, 100, 100, 100},
			current:      500,
			wantAnomaly:  false,
			wantBaseline: 100,
		},
		{
			name:        "single sample never flags",
			baseline:    []float64{100},
			current:     500,
			wantAnomaly: false,
		},
		{
			name:        "no history never flags",
			baseline:    nil,
			current:     500,
			wantAnomaly: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store := newTestDetector(DefaultConfig())
			if tt.baseline != nil {
				seedBaseline(store, "m", tt.baseline)
			}

			anomaly, baseline := d.DetectAnomaly("m", tt.current)
			if anomaly != tt.wantAnomaly {
				t.Errorf("DetectAnomaly anomaly = %v, want %v", anomaly, tt.wantAnomaly)
			}
			if math.Abs(baseline-tt.wantBaseline) > 1e-9 {
				t.Errorf("DetectAnomaly baseline = %v, want %v", baseline, tt.wantBaseline)
			}
		})
	}
}

func TestGrowthRate(t *testing.T) {
	d, store := newTestDetector(DefaultConfig())

	// Queue depth growing 10 per minute over the last 4 minutes; current
	// continues the line.
	for i := 0; i < 4; i++ {
		store.Append("q", float64(100+10*i), baseTime.Add(time.Duration(i-4)*time.Minute))
	}

	got := d.GrowthRate("q", 140)
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("GrowthRate = %v, want 10", got)
	}
}

func TestGrowthRate_FlatSeries(t *testing.T) {
	d, store := newTestDetector(DefaultConfig())

	for i := 0; i < 5; i++ {
		store.Append("q", 200, baseTime.Add(time.Duration(i-5)*time.Minute))
	}

	if got := d.GrowthRate("q", 200); got != 0 {
		t.Errorf("GrowthRate = %v, want 0", got)
	}
}

func TestGrowthRate_NoHistory(t *testing.T) {
	d, _ := newTestDetector(DefaultConfig())

	// Only the virtual current point exists, so no slope can be fit.
	if got := d.GrowthRate("q", 500); got != 0 {
		t.Errorf("GrowthRate with no history = %v, want 0", got)
	}
}

func TestAnalyze(t *testing.T) {
	d, store := newTestDetector(DefaultConfig())

	seedBaseline(store, MetricSuccessRate, []float64{99, 99, 99})
	seedBaseline(store, MetricP95Latency, []float64{0.2, 0.2, 0.2})
	seedBaseline(store, MetricErrorRate, []float64{1, 1, 1, 3, 3, 3}) // mean 2, sigma 1
	seedBaseline(store, MetricQueueDepth, []float64{100, 100, 100})

	analysis := d.Analyze(Current{
		SuccessRate:       90,  // -9% vs 99
		P95LatencySeconds: 0.3, // +50% vs 0.2
		ErrorRate:         9,   // |9-2| = 7 > 3
		QueueDepth:        102, // +2% vs 100
	})

	if analysis.SuccessRateTrend != DirectionDecreasing {
		t.Errorf("SuccessRateTrend = %v, want decreasing", analysis.SuccessRateTrend)
	}
	if analysis.LatencyTrend != LatencyDegrading {
		t.Errorf("LatencyTrend = %v, want degrading", analysis.LatencyTrend)
	}
	if !analysis.AnomalyDetected {
		t.Error("AnomalyDetected = false, want true")
	}
	if math.Abs(analysis.AnomalyBaseline-2) > 1e-9 {
		t.Errorf("AnomalyBaseline = %v, want 2", analysis.AnomalyBaseline)
	}
	if analysis.AnomalyCurrent != 9 {
		t.Errorf("AnomalyCurrent = %v, want 9", analysis.AnomalyCurrent)
	}
	if analysis.QueueDepthTrend != DirectionStable {
		t.Errorf("QueueDepthTrend = %v, want stable", analysis.QueueDepthTrend)
	}
}

func TestAnalyze_LatencyImproving(t *testing.T) {
	d, store := newTestDetector(DefaultConfig())

	seedBaseline(store, MetricP95Latency, []float64{0.4, 0.4, 0.4})

	analysis := d.Analyze(Current{P95LatencySeconds: 0.2})
	if analysis.LatencyTrend != LatencyImproving {
		t.Errorf("LatencyTrend = %v, want improving", analysis.LatencyTrend)
	}
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	d, _ := newTestDetector(DefaultConfig())

	analysis := d.Analyze(Current{SuccessRate: 99, P95LatencySeconds: 0.1, ErrorRate: 1, QueueDepth: 5})

	if analysis.SuccessRateTrend != DirectionStable {
		t.Errorf("SuccessRateTrend = %v, want stable", analysis.SuccessRateTrend)
	}
	if analysis.LatencyTrend != LatencyStable {
		t.Errorf("LatencyTrend = %v, want stable", analysis.LatencyTrend)
	}
	if analysis.AnomalyDetected {
		t.Error("AnomalyDetected = true, want false with no history")
	}
	if analysis.QueueGrowthRate != 0 {
		t.Errorf("QueueGrowthRate = %v, want 0", analysis.QueueGrowthRate)
	}
}
