package stats

import (
	"sync"
	"time"
)

// resultCache is the single-slot cache for the last computed stats. The
// lock is held only for the pointer swap, never for the duration of a
// computation; concurrent misses may each recompute and the last writer
// wins.
type resultCache struct {
	mu       sync.RWMutex
	stats    *PublishingStats
	storedAt time.Time
	ttl      time.Duration
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{ttl: ttl}
}

// get returns the cached stats if present and younger than the TTL.
// A nil or malformed cached value is treated as a miss.
func (c *resultCache) get(now time.Time) (*PublishingStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stats == nil || c.stats.Timestamp.IsZero() {
		return nil, false
	}
	if now.Sub(c.storedAt) > c.ttl {
		return nil, false
	}
	return c.stats, true
}

// peek returns the cached stats regardless of freshness.
func (c *resultCache) peek() (*PublishingStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stats == nil {
		return nil, false
	}
	return c.stats, true
}

// set overwrites the slot. The cache never partially updates: the previous
// result stays visible until the swap.
func (c *resultCache) set(stats *PublishingStats, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = stats
	c.storedAt = now
}

// invalidate forces the next get to miss.
func (c *resultCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = nil
	c.storedAt = time.Time{}
}
