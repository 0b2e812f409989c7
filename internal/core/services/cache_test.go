package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trendcore/internal/adapters/driven/memory"
	"github.com/custodia-labs/trendcore/internal/core/domain"
)

type recordingObserver struct {
	mu      sync.Mutex
	hits    map[string]int
	misses  map[string]int
	skipped int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{hits: map[string]int{}, misses: map[string]int{}}
}

func (o *recordingObserver) CacheLookup(op string, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits[op]++
	} else {
		o.misses[op]++
	}
}

func (o *recordingObserver) SnapshotsSkipped(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped += n
}

type payload struct {
	N int `json:"n"`
}

func TestReadThrough_HitAfterMiss(t *testing.T) {
	obs := newRecordingObserver()
	c := NewResultCache(ResultCacheConfig{Backend: memory.NewCache(), Observer: obs})
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) (payload, []domain.Diagnostic, error) {
		calls++
		return payload{N: calls}, []domain.Diagnostic{{Reason: "r"}}, nil
	}

	v, skipped, err := ReadThrough(ctx, c, "op", "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v.N)
	assert.Len(t, skipped, 1)

	v, skipped, err = ReadThrough(ctx, c, "op", "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v.N, "second read should be served from cache")
	assert.Len(t, skipped, 1)
	assert.Equal(t, 1, calls)

	assert.Equal(t, 1, obs.hits["op"])
	assert.Equal(t, 1, obs.misses["op"])
}

func TestReadThrough_TTLIsReadTime(t *testing.T) {
	now := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	backend := memory.NewCacheWithClock(func() time.Time { return now })
	c := NewResultCache(ResultCacheConfig{Backend: backend})
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) (payload, []domain.Diagnostic, error) {
		calls++
		return payload{N: calls}, nil, nil
	}

	_, _, err := ReadThrough(ctx, c, "op", "k", time.Minute, compute)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)

	// A tolerant reader still hits the unrefreshed entry
	v, _, err := ReadThrough(ctx, c, "op", "k", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v.N)

	// A strict reader misses and recomputes
	v, _, err = ReadThrough(ctx, c, "op", "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v.N)
}

func TestReadThrough_ErrorsAreNotCached(t *testing.T) {
	c := NewResultCache(ResultCacheConfig{Backend: memory.NewCache()})
	ctx := context.Background()
	boom := errors.New("boom")

	_, _, err := ReadThrough(ctx, c, "op", "k", time.Minute, func(ctx context.Context) (payload, []domain.Diagnostic, error) {
		return payload{}, nil, boom
	})
	assert.ErrorIs(t, err, boom)

	v, _, err := ReadThrough(ctx, c, "op", "k", time.Minute, func(ctx context.Context) (payload, []domain.Diagnostic, error) {
		return payload{N: 7}, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v.N)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string, time.Duration) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (failingCache) Set(context.Context, string, []byte) error {
	return errors.New("backend down")
}

func (failingCache) Stats(context.Context) (domain.CacheStats, error) {
	return domain.CacheStats{}, errors.New("backend down")
}

func TestReadThrough_BackendFailureFallsThrough(t *testing.T) {
	c := NewResultCache(ResultCacheConfig{Backend: failingCache{}})

	v, _, err := ReadThrough(context.Background(), c, "op", "k", time.Minute,
		func(ctx context.Context) (payload, []domain.Diagnostic, error) {
			return payload{N: 3}, nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, v.N)
}

func TestReadThrough_SingleComputePerKey(t *testing.T) {
	c := NewResultCache(ResultCacheConfig{Backend: memory.NewCache()})
	ctx := context.Background()

	var calls int32
	compute := func(ctx context.Context) (payload, []domain.Diagnostic, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return payload{N: 1}, nil, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = ReadThrough(ctx, c, "op", "same", time.Minute, compute)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, c.locks.locks, "idle keys should be released")
}

func TestResultCache_Stats(t *testing.T) {
	c := NewResultCache(ResultCacheConfig{Backend: memory.NewCache()})
	ctx := context.Background()
	compute := func(ctx context.Context) (payload, []domain.Diagnostic, error) {
		return payload{}, nil, nil
	}

	_, _, _ = ReadThrough(ctx, c, "op", "k", time.Minute, compute)
	_, _, _ = ReadThrough(ctx, c, "op", "k", time.Minute, compute)
	_, _, _ = ReadThrough(ctx, c, "op", "k", time.Minute, compute)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)
}
