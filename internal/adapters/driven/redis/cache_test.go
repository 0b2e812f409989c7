package redis

import (
	"context"
	"testing"
	"time"
)

func newTestCache(t *testing.T) (*Cache, *time.Time) {
	client, _ := setupTestRedis(t)
	cache := NewCache(client, testNamespace)
	now := time.Date(2025, 10, 10, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestCache_SetThenGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "latest:all:50", []byte(`{"total":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, hit, err := cache.Get(ctx, "latest:all:50", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit || string(value) != `{"total":1}` {
		t.Errorf("expected hit, got hit=%v value=%s", hit, value)
	}
}

func TestCache_ReaderTTL(t *testing.T) {
	cache, now := newTestCache(t)
	ctx := context.Background()
	_ = cache.Set(ctx, "k", []byte("v"))

	*now = now.Add(90 * time.Second)

	if _, hit, _ := cache.Get(ctx, "k", time.Minute); hit {
		t.Error("expected miss for short ttl")
	}
	if _, hit, _ := cache.Get(ctx, "k", 15*time.Minute); !hit {
		t.Error("expected the untouched entry to hit for a longer ttl")
	}

	_ = cache.Set(ctx, "k", []byte("v2"))
	value, hit, _ := cache.Get(ctx, "k", time.Minute)
	if !hit || string(value) != "v2" {
		t.Errorf("expected refreshed entry, got hit=%v value=%s", hit, value)
	}
}

func TestCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	if _, hit, err := cache.Get(context.Background(), "absent", time.Hour); hit || err != nil {
		t.Errorf("expected clean miss, got hit=%v err=%v", hit, err)
	}
}

func TestCache_Stats(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, "a", []byte("1"))
	_ = cache.Set(ctx, "b", []byte("2"))
	_ = cache.Set(ctx, "b", []byte("3"))
	_, _, _ = cache.Get(ctx, "a", time.Minute)
	_, _, _ = cache.Get(ctx, "a", time.Minute)
	_, _, _ = cache.Get(ctx, "c", time.Minute)

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Backend != "redis" {
		t.Errorf("expected redis backend, got %s", stats.Backend)
	}
	if stats.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.Entries)
	}
	if stats.Hits != 2 || stats.Misses != 1 || stats.Sets != 3 {
		t.Errorf("unexpected counters %+v", stats)
	}
}

func TestCache_SharedAcrossInstances(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	writer := NewCache(client, testNamespace)
	reader := NewCache(client, testNamespace)

	_ = writer.Set(ctx, "topics:10:daily", []byte("x"))
	if _, hit, _ := reader.Get(ctx, "topics:10:daily", time.Minute); !hit {
		t.Error("expected entry written by one instance to be visible to another")
	}
}
