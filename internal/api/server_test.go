package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samijaber1/pulse-metrics/internal/collector"
	"github.com/samijaber1/pulse-metrics/internal/history"
	"github.com/samijaber1/pulse-metrics/internal/metrics"
	"github.com/samijaber1/pulse-metrics/internal/stats"
	"github.com/samijaber1/pulse-metrics/internal/trend"
)

func newTestServer() (*Server, *stats.Aggregator) {
	hist := history.NewStore(100, 24*time.Hour)
	detector := trend.NewDetector(trend.DefaultConfig(), hist)
	collAgg := collector.NewAggregator(collector.DefaultAggregatorConfig(), []collector.Collector{
		collector.NewStaticCollector("queue", map[string]float64{"queue.depth.high": 1}),
	}, nil, nil)

	engine := metrics.NewEngine()
	agg := stats.New(stats.DefaultConfig(), collAgg, hist, detector, nil, engine)

	return NewServer(agg, engine.Registry(), "127.0.0.1:0", nil), agg
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()

	rec := doRequest(s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestHealthz_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer()

	rec := doRequest(s, http.MethodPost, "/healthz")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz status = %d, want 405", rec.Code)
	}
}

func TestReadyz_BeforeFirstCalculation(t *testing.T) {
	s, _ := newTestServer()

	rec := doRequest(s, http.MethodGet, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /readyz status = %d, want 503 before first pass", rec.Code)
	}

	var resp ReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Ready {
		t.Error("Ready = true, want false")
	}
	if len(resp.Reasons) == 0 {
		t.Error("Reasons empty, want an explanation")
	}
}

func TestReadyz_AfterCalculation(t *testing.T) {
	s, agg := newTestServer()

	agg.Calculate(context.Background())

	rec := doRequest(s, http.MethodGet, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /readyz status = %d, want 200 after a pass", rec.Code)
	}

	var resp ReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Ready {
		t.Error("Ready = false, want true")
	}
	if resp.LastCalculated == "" {
		t.Error("LastCalculated empty, want a timestamp")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, agg := newTestServer()

	// A pass exercises the self-monitoring counters before scraping.
	agg.Calculate(context.Background())

	rec := doRequest(s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Error("metrics body empty, want exposition text")
	}
}
