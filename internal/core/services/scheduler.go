package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
)

// DefaultIngestSchedule runs ingestion twice an hour.
const DefaultIngestSchedule = "@every 30m"

const schedulerLockName = "ingest"

// Scheduler runs snapshot ingestion on a cron schedule. After each run it
// checks today's latest snapshot for new titles and logs the counts.
//
// For multi-instance deployments, configure a DistributedLock so only one
// instance ingests per tick.
type Scheduler struct {
	ingest driving.IngestService
	news   driving.NewsService
	lock   driven.DistributedLock
	logger *slog.Logger

	schedule     string
	lockTTL      time.Duration
	lockRequired bool

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Ingest driving.IngestService
	// News is optional; when set each run ends with new-title detection
	News         driving.NewsService
	Lock         driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Logger       *slog.Logger
	Schedule     string        // cron spec (default: @every 30m)
	LockTTL      time.Duration // TTL for the distributed lock (default: 10m)
	LockRequired bool          // If true, skip the run when the lock backend fails
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultIngestSchedule
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 10 * time.Minute
	}

	return &Scheduler{
		ingest:       cfg.Ingest,
		news:         cfg.News,
		lock:         cfg.Lock,
		logger:       logger,
		schedule:     schedule,
		lockTTL:      lockTTL,
		lockRequired: cfg.LockRequired || cfg.Lock != nil,
	}
}

// Start registers the cron entry and starts the cron runner.
// Runs use ctx; cancelling it aborts an in-flight run but does not stop the cron.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid ingest schedule %q: %w", s.schedule, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info("scheduler starting", "schedule", s.schedule)
	return nil
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.cron = nil
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the cron runner is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce performs one scheduled run. It reports whether ingestion ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, schedulerLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire ingest lock", "error", err)
			if s.lockRequired {
				return false
			}
		} else if !acquired {
			s.logger.Debug("ingest lock held by another instance, skipping run")
			return false
		} else {
			defer func() {
				if err := s.lock.Release(ctx, schedulerLockName); err != nil {
					s.logger.Warn("failed to release ingest lock", "error", err)
				}
			}()
		}
	}

	start := time.Now()
	report, err := s.ingest.IngestAll(ctx)
	if err != nil {
		s.logger.Error("scheduled ingestion failed", "error", err)
		return true
	}
	s.logger.Info("scheduled ingestion completed",
		"duration", time.Since(start),
		"imported", report.Imported,
		"skipped", report.Skipped,
	)

	if s.news != nil {
		fresh, _, err := s.news.NewTitles(ctx, driving.NewTitlesRequest{})
		if err != nil {
			s.logger.Warn("new-title detection failed", "error", err)
			return true
		}
		s.logger.Info("new titles detected",
			"date", fresh.Date,
			"snapshot", fresh.Snapshot,
			"platforms", len(fresh.Platforms),
			"titles", fresh.Total,
		)
	}
	return true
}
