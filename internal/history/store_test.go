package history

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestStore pins the store clock so retention math is deterministic.
func newTestStore(capacity int, retention time.Duration, now time.Time) *Store {
	s := NewStore(capacity, retention)
	s.now = func() time.Time { return now }
	return s
}

func TestAppendAndQuery(t *testing.T) {
	s := newTestStore(10, 24*time.Hour, baseTime)

	for i := 0; i < 5; i++ {
		s.Append("success_rate", float64(90+i), baseTime.Add(time.Duration(i)*time.Minute))
	}

	got := s.Query("success_rate", baseTime, baseTime.Add(10*time.Minute))
	if len(got) != 5 {
		t.Fatalf("Query returned %d samples, want 5", len(got))
	}
	for i, sample := range got {
		if sample.Value != float64(90+i) {
			t.Errorf("sample[%d].Value = %v, want %v", i, sample.Value, float64(90+i))
		}
		if i > 0 && got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("samples out of order at index %d", i)
		}
	}
}

func TestQueryRange(t *testing.T) {
	s := newTestStore(10, 24*time.Hour, baseTime)

	for i := 0; i < 10; i++ {
		s.Append("depth", float64(i), baseTime.Add(time.Duration(i)*time.Minute))
	}

	// Inclusive on both ends.
	got := s.Query("depth", baseTime.Add(2*time.Minute), baseTime.Add(5*time.Minute))
	if len(got) != 4 {
		t.Fatalf("Query returned %d samples, want 4", len(got))
	}
	if got[0].Value != 2 || got[3].Value != 5 {
		t.Errorf("Query range = [%v, %v], want [2, 5]", got[0].Value, got[3].Value)
	}
}

func TestQueryUnknownMetric(t *testing.T) {
	s := newTestStore(10, 24*time.Hour, baseTime)

	if got := s.Query("missing", baseTime.Add(-time.Hour), baseTime); got != nil {
		t.Errorf("Query on unknown metric = %v, want nil", got)
	}
}

func TestRingEvictsOldestWhenFull(t *testing.T) {
	s := newTestStore(3, 24*time.Hour, baseTime)

	for i := 0; i < 5; i++ {
		s.Append("m", float64(i), baseTime.Add(time.Duration(i)*time.Second))
	}

	if n := s.Len("m"); n != 3 {
		t.Fatalf("Len = %d, want 3", n)
	}

	got := s.Query("m", baseTime.Add(-time.Hour), baseTime.Add(time.Hour))
	if len(got) != 3 {
		t.Fatalf("Query returned %d samples, want 3", len(got))
	}
	// Oldest two were overwritten.
	for i, want := range []float64{2, 3, 4} {
		if got[i].Value != want {
			t.Errorf("sample[%d].Value = %v, want %v", i, got[i].Value, want)
		}
	}
}

func TestQueryExcludesOutOfRetention(t *testing.T) {
	now := baseTime
	s := newTestStore(100, time.Hour, now)

	s.Append("m", 1, now.Add(-2*time.Hour)) // past retention
	s.Append("m", 2, now.Add(-30*time.Minute))

	got := s.Query("m", now.Add(-3*time.Hour), now)
	if len(got) != 1 {
		t.Fatalf("Query returned %d samples, want 1", len(got))
	}
	if got[0].Value != 2 {
		t.Errorf("sample value = %v, want 2", got[0].Value)
	}
}

func TestCleanup(t *testing.T) {
	now := baseTime
	s := newTestStore(100, time.Hour, now)

	s.Append("old", 1, now.Add(-2*time.Hour))
	s.Append("mixed", 1, now.Add(-2*time.Hour))
	s.Append("mixed", 2, now.Add(-10*time.Minute))
	s.Append("fresh", 3, now.Add(-5*time.Minute))

	s.Cleanup()

	if got := s.Metrics(); len(got) != 2 {
		t.Fatalf("Metrics after cleanup = %v, want [fresh mixed]", got)
	}
	if n := s.Len("old"); n != 0 {
		t.Errorf("Len(old) = %d, want 0", n)
	}
	if n := s.Len("mixed"); n != 1 {
		t.Errorf("Len(mixed) = %d, want 1", n)
	}
	if n := s.Len("fresh"); n != 1 {
		t.Errorf("Len(fresh) = %d, want 1", n)
	}

	// Idempotent.
	s.Cleanup()
	if n := s.Len("mixed"); n != 1 {
		t.Errorf("Len(mixed) after second cleanup = %d, want 1", n)
	}
}

func TestMetricsSorted(t *testing.T) {
	s := newTestStore(10, 24*time.Hour, baseTime)

	s.Append("zeta", 1, baseTime)
	s.Append("alpha", 1, baseTime)
	s.Append("mid", 1, baseTime)

	got := s.Metrics()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Metrics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Metrics[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConcurrentAppendAndQuery(t *testing.T) {
	s := NewStore(1000, 24*time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			metric := fmt.Sprintf("metric.%d", g%4)
			for i := 0; i < 200; i++ {
				s.Append(metric, float64(i), time.Now())
				if i%10 == 0 {
					s.Query(metric, time.Now().Add(-time.Hour), time.Now())
				}
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 4; g++ {
		metric := fmt.Sprintf("metric.%d", g)
		if n := s.Len(metric); n != 400 {
			t.Errorf("Len(%s) = %d, want 400", metric, n)
		}
	}
}
