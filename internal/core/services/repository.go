package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/corpus"
	"github.com/custodia-labs/trendcore/internal/dates"
)

// Default corpus freshness windows
const (
	DefaultCorpusTodayTTL   = 15 * time.Minute
	DefaultCorpusHistoryTTL = time.Hour
)

// RepositoryConfig holds dependencies for a SnapshotRepository
type RepositoryConfig struct {
	Store driven.SnapshotStore
	Cache *ResultCache

	// TodayTTL applies to the corpus of the current day, HistoryTTL to earlier days
	TodayTTL   time.Duration
	HistoryTTL time.Duration

	Location *time.Location
	Now      func() time.Time
	Observer Observer
	Logger   *slog.Logger
}

// SnapshotRepository is the single read path over a snapshot store:
// snapshots of a day, the latest snapshot of a day and the merged corpus of
// a day. Merging always goes through the corpus package regardless of
// backend.
type SnapshotRepository struct {
	store      driven.SnapshotStore
	cache      *ResultCache
	todayTTL   time.Duration
	historyTTL time.Duration
	loc        *time.Location
	now        func() time.Time
	observer   Observer
	logger     *slog.Logger
}

// NewSnapshotRepository creates a SnapshotRepository
func NewSnapshotRepository(cfg RepositoryConfig) *SnapshotRepository {
	r := &SnapshotRepository{
		store:      cfg.Store,
		cache:      cfg.Cache,
		todayTTL:   cfg.TodayTTL,
		historyTTL: cfg.HistoryTTL,
		loc:        cfg.Location,
		now:        cfg.Now,
		observer:   cfg.Observer,
		logger:     cfg.Logger,
	}
	if r.todayTTL <= 0 {
		r.todayTTL = DefaultCorpusTodayTTL
	}
	if r.historyTTL <= 0 {
		r.historyTTL = DefaultCorpusHistoryTTL
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.observer == nil {
		r.observer = noopObserver{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Today returns the current day in the repository's location.
func (r *SnapshotRepository) Today() time.Time {
	return dates.Day(r.now().In(r.loc))
}

// Now returns the repository clock reading in its location.
func (r *SnapshotRepository) Now() time.Time {
	return r.now().In(r.loc)
}

// Store returns the underlying snapshot store.
func (r *SnapshotRepository) Store() driven.SnapshotStore {
	return r.store
}

// ListSnapshots returns the snapshots of day in capture order, logging any
// snapshot the store had to skip.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, day time.Time) ([]*domain.Snapshot, []domain.Diagnostic, error) {
	snaps, skipped, err := r.store.ListSnapshots(ctx, day)
	r.reportSkipped(day, skipped)
	if err != nil {
		return nil, skipped, err
	}
	return snaps, skipped, nil
}

// LatestSnapshot returns the last snapshot captured on day.
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context, day time.Time) (*domain.Snapshot, []domain.Diagnostic, error) {
	snaps, skipped, err := r.ListSnapshots(ctx, day)
	if err != nil {
		return nil, skipped, err
	}
	if len(snaps) == 0 {
		return nil, skipped, noSnapshots(day)
	}
	return snaps[len(snaps)-1], skipped, nil
}

// Corpus returns the merged corpus of day restricted to platforms.
// Results are cached; today's corpus goes stale sooner than history.
func (r *SnapshotRepository) Corpus(ctx context.Context, day time.Time, platforms []string) (*domain.DailyCorpus, []domain.Diagnostic, error) {
	day = dates.Day(day.In(r.loc))
	key := domain.CacheKey("corpus", dates.FormatISO(day), domain.PlatformKey(platforms))

	ttl := r.historyTTL
	if day.Equal(r.Today()) {
		ttl = r.todayTTL
	}

	compute := func(ctx context.Context) (*domain.DailyCorpus, []domain.Diagnostic, error) {
		snaps, skipped, err := r.ListSnapshots(ctx, day)
		if err != nil {
			return nil, skipped, err
		}
		c, err := corpus.Aggregate(day, snaps, domain.NewSourceFilter(platforms))
		return c, skipped, err
	}

	if r.cache == nil {
		return compute(ctx)
	}
	return ReadThrough(ctx, r.cache, "corpus", key, ttl, compute)
}

// AvailableRange returns the oldest and newest day holding snapshots.
// ok is false when the store is empty.
func (r *SnapshotRepository) AvailableRange(ctx context.Context) (oldest, latest time.Time, ok bool, err error) {
	days, err := r.store.AvailableDates(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if len(days) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	return days[0], days[len(days)-1], true, nil
}

func (r *SnapshotRepository) reportSkipped(day time.Time, skipped []domain.Diagnostic) {
	if len(skipped) == 0 {
		return
	}
	r.observer.SnapshotsSkipped(len(skipped))
	for _, d := range skipped {
		r.logger.Warn("skipped snapshot",
			"day", dates.FormatISO(day),
			"source", d.Source,
			"reason", d.Reason,
		)
	}
}

func noSnapshots(day time.Time) error {
	return domain.NewQueryError(domain.ErrNoData,
		fmt.Sprintf("no snapshots for %s", dates.FormatISO(day)),
		"make sure the crawler ran on that day or pick another date")
}
