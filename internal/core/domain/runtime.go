package domain

import (
	"sync"
	"time"
)

// RuntimeConfig tracks which backends are active and what the worker has done.
// Backends are fixed at startup; ingestion state is updated by the worker.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	SnapshotBackend string // "file", "postgres" or "s3"
	CacheBackend    string // "memory" or "redis"

	// Dynamic
	wordGroups     int
	lastIngestAt   time.Time
	lastIngestDone int
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(snapshotBackend, cacheBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		SnapshotBackend: snapshotBackend,
		CacheBackend:    cacheBackend,
	}
}

// WordGroups returns the number of configured keyword groups
func (c *RuntimeConfig) WordGroups() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wordGroups
}

// SetWordGroups records the number of configured keyword groups
func (c *RuntimeConfig) SetWordGroups(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wordGroups = n
}

// RecordIngest records a finished ingestion run
func (c *RuntimeConfig) RecordIngest(at time.Time, imported int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastIngestAt = at
	c.lastIngestDone = imported
}

// LastIngest returns when the last ingestion finished and how many snapshots it imported
func (c *RuntimeConfig) LastIngest() (time.Time, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastIngestAt, c.lastIngestDone
}

// KeywordsConfigured reports whether trending topics can be computed
func (c *RuntimeConfig) KeywordsConfigured() bool {
	return c.WordGroups() > 0
}
