package domain

import (
	"sync"
	"testing"
	"time"
)

func TestNewRuntimeConfig(t *testing.T) {
	cfg := NewRuntimeConfig("file", "memory")

	if cfg.SnapshotBackend != "file" {
		t.Errorf("expected snapshot backend file, got %s", cfg.SnapshotBackend)
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("expected cache backend memory, got %s", cfg.CacheBackend)
	}
	if cfg.KeywordsConfigured() {
		t.Error("expected no keyword groups initially")
	}
}

func TestRuntimeConfigIngest(t *testing.T) {
	cfg := NewRuntimeConfig("postgres", "redis")
	at := time.Date(2025, 10, 10, 9, 0, 0, 0, time.UTC)

	cfg.RecordIngest(at, 3)

	gotAt, gotCount := cfg.LastIngest()
	if !gotAt.Equal(at) {
		t.Errorf("expected %v, got %v", at, gotAt)
	}
	if gotCount != 3 {
		t.Errorf("expected 3 imported, got %d", gotCount)
	}
}

func TestRuntimeConfigConcurrentAccess(t *testing.T) {
	cfg := NewRuntimeConfig("file", "memory")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			cfg.SetWordGroups(n)
		}(i)
		go func() {
			defer wg.Done()
			_ = cfg.KeywordsConfigured()
		}()
	}
	wg.Wait()

	cfg.SetWordGroups(2)
	if !cfg.KeywordsConfigured() {
		t.Error("expected keywords configured")
	}
}
