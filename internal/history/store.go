// Package history keeps a bounded in-memory window of metric samples for
// trend detection. Nothing here is persisted: the store is a fixed-size
// ring per metric with an age-based retention cut on top.
package history

import (
	"sort"
	"sync"
	"time"
)

// Sample is one recorded (timestamp, value) point
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// ring is a fixed-capacity circular buffer of samples. The arena is
// allocated once; next advances modulo capacity and overwrites the oldest
// slot when full.
type ring struct {
	samples []Sample
	next    int
	count   int
}

func newRing(capacity int) *ring {
	return &ring{samples: make([]Sample, capacity)}
}

func (r *ring) append(s Sample) {
	r.samples[r.next] = s
	r.next = (r.next + 1) % len(r.samples)
	if r.count < len(r.samples) {
		r.count++
	}
}

// oldest returns the index of the oldest live slot.
func (r *ring) oldest() int {
	return (r.next - r.count + len(r.samples)) % len(r.samples)
}

// dropOlderThan logically evicts samples before the cutoff.
func (r *ring) dropOlderThan(cutoff time.Time) {
	for r.count > 0 {
		if !r.samples[r.oldest()].Timestamp.Before(cutoff) {
			return
		}
		r.count--
	}
}

// Store is a thread-safe, bounded time-series store keyed by metric name.
// Both a per-metric capacity and a maximum sample age are enforced;
// whichever bound is reached first wins.
type Store struct {
	mu        sync.RWMutex
	capacity  int
	retention time.Duration
	series    map[string]*ring

	now func() time.Time
}

// NewStore creates a store holding at most capacity samples per metric,
// none older than retention.
func NewStore(capacity int, retention time.Duration) *Store {
	return &Store{
		capacity:  capacity,
		retention: retention,
		series:    make(map[string]*ring),
		now:       time.Now,
	}
}

// Append records a sample for the metric, evicting the oldest entry if the
// metric's ring is full. O(1) amortized.
func (s *Store) Append(metric string, value float64, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.series[metric]
	if !ok {
		r = newRing(s.capacity)
		s.series[metric] = r
	}
	r.append(Sample{Timestamp: ts, Value: value})
}

// Query returns the samples for metric in [start, end], ascending by
// timestamp. Samples older than the retention window are excluded even if
// still present in the ring.
func (s *Store) Query(metric string, start, end time.Time) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.series[metric]
	if !ok || r.count == 0 {
		return nil
	}

	retentionCutoff := s.now().Add(-s.retention)

	out := make([]Sample, 0, r.count)
	for i := 0; i < r.count; i++ {
		sample := r.samples[(r.oldest()+i)%len(r.samples)]
		if sample.Timestamp.Before(retentionCutoff) {
			continue
		}
		if sample.Timestamp.Before(start) || sample.Timestamp.After(end) {
			continue
		}
		out = append(out, sample)
	}

	// Appends normally arrive in time order, but out-of-order timestamps
	// from a caller-supplied clock must not break range-query ordering.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out
}

// Len returns the number of live samples recorded for metric.
func (s *Store) Len(metric string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.series[metric]
	if !ok {
		return 0
	}
	return r.count
}

// Metrics returns the names of all metrics with at least one live sample.
func (s *Store) Metrics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.series))
	for name, r := range s.series {
		if r.count > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Cleanup evicts samples older than the retention window and removes
// metrics left empty. Idempotent; safe to run concurrently with readers.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	for name, r := range s.series {
		r.dropOlderThan(cutoff)
		if r.count == 0 {
			delete(s.series, name)
		}
	}
}
