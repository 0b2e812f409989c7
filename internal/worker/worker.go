package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/core/services"
	"github.com/custodia-labs/trendcore/internal/runtime"
)

// DefaultReloadInterval is how often the word-group file is re-read.
const DefaultReloadInterval = time.Minute

// Worker runs background jobs: scheduled ingestion and periodic reloads of
// the word-group file.
type Worker struct {
	scheduler *services.Scheduler
	runtime   *runtime.Services
	lock      driven.DistributedLock
	logger    *slog.Logger

	// Configuration
	reloadInterval time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	// Scheduler runs ingestion on its cron schedule (optional)
	Scheduler *services.Scheduler
	// Runtime holds the keyword matcher to refresh (optional)
	Runtime *runtime.Services
	// Lock is checked by Health (optional)
	Lock           driven.DistributedLock
	Logger         *slog.Logger
	ReloadInterval time.Duration
}

// NewWorker creates a new background worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reloadInterval := cfg.ReloadInterval
	if reloadInterval <= 0 {
		reloadInterval = DefaultReloadInterval
	}

	return &Worker{
		scheduler:      cfg.Scheduler,
		runtime:        cfg.Runtime,
		lock:           cfg.Lock,
		logger:         logger,
		reloadInterval: reloadInterval,
	}
}

// Start begins the worker loops.
// They run until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting", "reload_interval", w.reloadInterval)

	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	go func() {
		defer close(w.doneCh)
		w.reloadLoop(ctx)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// reloadLoop re-reads the word-group file on every tick.
func (w *Worker) reloadLoop(ctx context.Context) {
	if w.runtime == nil {
		select {
		case <-ctx.Done():
		case <-w.stopCh:
		}
		return
	}

	ticker := time.NewTicker(w.reloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.reload()
		}
	}
}

func (w *Worker) reload() {
	before := w.runtime.Config().WordGroups()
	if err := w.runtime.Reload(); err != nil {
		w.logger.Warn("word group reload failed, keeping previous groups", "error", err)
		return
	}
	if after := w.runtime.Config().WordGroups(); after != before {
		w.logger.Info("word groups reloaded", "groups", after)
	}
}

// Health reports the state of the worker.
type Health struct {
	Running    bool   `json:"running"`
	Scheduled  bool   `json:"scheduled"`
	LockHealth bool   `json:"lock_health"`
	Error      string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running:    running,
		Scheduled:  w.scheduler != nil && w.scheduler.Running(),
		LockHealth: true,
	}

	if w.lock != nil {
		if err := w.lock.Ping(ctx); err != nil {
			health.LockHealth = false
			health.Error = err.Error()
		}
	}

	return health
}
