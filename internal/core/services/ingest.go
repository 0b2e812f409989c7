package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
	"github.com/custodia-labs/trendcore/internal/dates"
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// IngestObserver receives the outcome of each finished ingestion run
type IngestObserver interface {
	RecordIngest(at time.Time, imported, skipped, failed int)
}

// IngestServiceConfig holds dependencies for the ingest service
type IngestServiceConfig struct {
	// Source is usually the date-folder store the crawler writes to
	Source driven.SnapshotStore
	Target driven.SnapshotWriter
	// Runtime, when set, records each finished run
	Runtime  *domain.RuntimeConfig
	Observer IngestObserver
	Now      func() time.Time
	Logger   *slog.Logger
}

// ingestService implements the IngestService interface
type ingestService struct {
	source   driven.SnapshotStore
	target   driven.SnapshotWriter
	runtime  *domain.RuntimeConfig
	observer IngestObserver
	now      func() time.Time
	logger   *slog.Logger
}

// NewIngestService creates a new IngestService
func NewIngestService(cfg IngestServiceConfig) driving.IngestService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ingestService{
		source:   cfg.Source,
		target:   cfg.Target,
		runtime:  cfg.Runtime,
		observer: cfg.Observer,
		now:      now,
		logger:   logger,
	}
}

// IngestDay copies the snapshots of day that the target does not hold yet.
// A day without snapshots is not an error.
func (s *ingestService) IngestDay(ctx context.Context, day time.Time) (*driving.IngestReport, error) {
	report := &driving.IngestReport{}
	if err := s.ingestDay(ctx, day, report); err != nil {
		return report, err
	}
	s.record(report)
	return report, nil
}

// IngestAll copies every day the source holds.
func (s *ingestService) IngestAll(ctx context.Context) (*driving.IngestReport, error) {
	days, err := s.source.AvailableDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source days: %w", err)
	}

	report := &driving.IngestReport{}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.ingestDay(ctx, day, report); err != nil {
			return report, err
		}
	}
	s.record(report)
	return report, nil
}

func (s *ingestService) ingestDay(ctx context.Context, day time.Time, report *driving.IngestReport) error {
	snaps, skipped, err := s.source.ListSnapshots(ctx, day)
	report.Failed += len(skipped)
	for _, d := range skipped {
		s.logger.Warn("snapshot not ingested", "day", dates.FormatISO(day), "source", d.Source, "reason", d.Reason)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			return nil
		}
		return fmt.Errorf("list snapshots for %s: %w", dates.FormatISO(day), err)
	}
	report.Days++

	for _, snap := range snaps {
		exists, err := s.target.HasSnapshot(ctx, day, snap.Name)
		if err != nil {
			return fmt.Errorf("check snapshot %s: %w", snap.Name, err)
		}
		if exists {
			report.Skipped++
			continue
		}

		if err := s.target.SaveSnapshot(ctx, day, snap); err != nil {
			report.Failed++
			s.logger.Error("failed to save snapshot",
				"day", dates.FormatISO(day),
				"snapshot", snap.Name,
				"error", err,
			)
			continue
		}
		report.Imported++
	}

	s.logger.Debug("ingested day", "day", dates.FormatISO(day), "snapshots", len(snaps))
	return nil
}

func (s *ingestService) record(report *driving.IngestReport) {
	at := s.now()
	if s.runtime != nil {
		s.runtime.RecordIngest(at, report.Imported)
	}
	if s.observer != nil {
		s.observer.RecordIngest(at, report.Imported, report.Skipped, report.Failed)
	}
	s.logger.Info("ingestion finished",
		"days", report.Days,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
}
