package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// SnapshotStore reads archived snapshots. Every backend (date folders on disk,
// PostgreSQL, object storage) satisfies the same contract.
type SnapshotStore interface {
	// ListSnapshots returns the parsed snapshots of a day in name order,
	// which is capture order. Unreadable snapshots are left out and
	// reported as diagnostics. A day with no snapshots returns ErrNoData.
	ListSnapshots(ctx context.Context, day time.Time) ([]*domain.Snapshot, []domain.Diagnostic, error)

	// AvailableDates returns the days holding at least one snapshot, oldest first.
	AvailableDates(ctx context.Context) ([]time.Time, error)

	// Stats describes the store contents.
	Stats(ctx context.Context) (*domain.StoreStats, error)
}

// SnapshotWriter persists snapshots. Implemented by stores that accept ingestion.
type SnapshotWriter interface {
	// SaveSnapshot stores a snapshot under its day and name.
	SaveSnapshot(ctx context.Context, day time.Time, s *domain.Snapshot) error

	// HasSnapshot reports whether a snapshot with this name is stored for the day.
	HasSnapshot(ctx context.Context, day time.Time, name string) (bool, error)
}
