package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// FreshnessCache stores serialized query results. Freshness is decided by the
// reader: Get hits only when the entry is younger than ttl. Stale entries are
// kept until the next Set for the same key overwrites them.
type FreshnessCache interface {
	Get(ctx context.Context, key string, ttl time.Duration) (value []byte, hit bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Stats(ctx context.Context) (domain.CacheStats, error)
}
