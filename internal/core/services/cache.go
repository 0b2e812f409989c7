package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
)

// Observer receives query-path events. The metrics package implements it.
type Observer interface {
	CacheLookup(op string, hit bool)
	SnapshotsSkipped(n int)
}

type noopObserver struct{}

func (noopObserver) CacheLookup(string, bool) {}
func (noopObserver) SnapshotsSkipped(int)     {}

// ResultCacheConfig holds dependencies for a ResultCache
type ResultCacheConfig struct {
	Backend  driven.FreshnessCache
	Observer Observer
	Logger   *slog.Logger
}

// ResultCache wraps a FreshnessCache with a per-key critical section so that
// concurrent callers asking for the same key compute the value once.
type ResultCache struct {
	backend  driven.FreshnessCache
	observer Observer
	logger   *slog.Logger
	locks    *keyedMutex
}

// NewResultCache creates a ResultCache. Backend is required.
func NewResultCache(cfg ResultCacheConfig) *ResultCache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &ResultCache{
		backend:  cfg.Backend,
		observer: observer,
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

// Stats returns backend statistics with the hit rate filled in.
func (c *ResultCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats, err := c.backend.Stats(ctx)
	if err != nil {
		return domain.CacheStats{}, err
	}
	stats.ComputeHitRate()
	return stats, nil
}

// cached is what ReadThrough stores: the value together with the
// diagnostics collected while computing it.
type cached[T any] struct {
	Value   T                   `json:"value"`
	Skipped []domain.Diagnostic `json:"skipped,omitempty"`
}

// ReadThrough returns the cached value for key when it is younger than ttl,
// otherwise computes, stores and returns it. Lookup and recompute for a key
// run under that key's lock. Errors are never cached. Cache backend failures
// are logged and the value is computed as if the entry were missing.
func ReadThrough[T any](
	ctx context.Context,
	c *ResultCache,
	op, key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, []domain.Diagnostic, error),
) (T, []domain.Diagnostic, error) {
	unlock := c.locks.Lock(key)
	defer unlock()

	raw, hit, err := c.backend.Get(ctx, key, ttl)
	if err != nil {
		c.logger.Warn("cache lookup failed", "key", key, "error", err)
		hit = false
	}
	if hit {
		var entry cached[T]
		err := json.Unmarshal(raw, &entry)
		if err == nil {
			c.observer.CacheLookup(op, true)
			return entry.Value, entry.Skipped, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
	}
	c.observer.CacheLookup(op, false)

	value, skipped, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, skipped, err
	}

	data, err := json.Marshal(cached[T]{Value: value, Skipped: skipped})
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return value, skipped, nil
	}
	if err := c.backend.Set(ctx, key, data); err != nil {
		c.logger.Warn("cache store failed", "key", key, "error", err)
	}
	return value, skipped, nil
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
