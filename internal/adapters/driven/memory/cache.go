// Package memory provides an in-process freshness cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FreshnessCache = (*Cache)(nil)

type entry struct {
	value     []byte
	createdAt time.Time
}

// Cache implements FreshnessCache with a map. Entries are never evicted;
// Set overwrites them.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time

	hits, misses, sets int64
}

// NewCache creates an empty cache using the wall clock.
func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

// NewCacheWithClock creates an empty cache reading time from now.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{entries: make(map[string]entry), now: now}
}

func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.createdAt) >= ttl {
		c.misses++
		return nil, false, nil
	}
	c.hits++
	return e.value, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: append([]byte(nil), value...), createdAt: c.now()}
	c.sets++
	return nil
}

func (c *Cache) Stats(ctx context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := domain.CacheStats{
		Backend: "memory",
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
	}
	stats.ComputeHitRate()
	return stats, nil
}
