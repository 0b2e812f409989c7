package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FreshnessCache = (*Cache)(nil)

const (
	fieldValue     = "value"
	fieldCreatedAt = "created_at"
	statHits       = "hits"
	statMisses     = "misses"
	statSets       = "sets"
)

// Cache implements FreshnessCache with one hash per entry. Keys carry no
// Redis expiry; the reader's TTL decides freshness, so several instances
// share entries and counters.
type Cache struct {
	client   *redis.Client
	prefix   string
	statsKey string
	now      func() time.Time
}

// NewCache creates a Redis-backed freshness cache under namespace.
func NewCache(client *redis.Client, namespace string) *Cache {
	return &Cache{
		client:   client,
		prefix:   namespace + ":cache:entry:",
		statsKey: namespace + ":cache:stats",
		now:      time.Now,
	}
}

func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	vals, err := c.client.HMGet(ctx, c.prefix+key, fieldValue, fieldCreatedAt).Result()
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	value, okValue := vals[0].(string)
	created, okCreated := vals[1].(string)
	if okValue && okCreated {
		nanos, err := strconv.ParseInt(created, 10, 64)
		if err == nil && c.now().Sub(time.Unix(0, nanos)) < ttl {
			c.client.HIncrBy(ctx, c.statsKey, statHits, 1)
			return []byte(value), true, nil
		}
	}

	c.client.HIncrBy(ctx, c.statsKey, statMisses, 1)
	return nil, false, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, c.prefix+key,
		fieldValue, value,
		fieldCreatedAt, strconv.FormatInt(c.now().UnixNano(), 10),
	)
	pipe.HIncrBy(ctx, c.statsKey, statSets, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats := domain.CacheStats{Backend: "redis"}

	counters, err := c.client.HGetAll(ctx, c.statsKey).Result()
	if err != nil {
		return stats, fmt.Errorf("cache stats: %w", err)
	}
	stats.Hits, _ = strconv.ParseInt(counters[statHits], 10, 64)
	stats.Misses, _ = strconv.ParseInt(counters[statMisses], 10, 64)
	stats.Sets, _ = strconv.ParseInt(counters[statSets], 10, 64)

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stats.Entries++
	}
	if err := iter.Err(); err != nil {
		return stats, fmt.Errorf("cache stats: %w", err)
	}

	stats.ComputeHitRate()
	return stats, nil
}
