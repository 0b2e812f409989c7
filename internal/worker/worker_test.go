package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
	"github.com/custodia-labs/trendcore/internal/core/services"
	"github.com/custodia-labs/trendcore/internal/runtime"
)

// countingIngest implements driving.IngestService for testing
type countingIngest struct {
	runs atomic.Int32
}

func (c *countingIngest) IngestDay(ctx context.Context, day time.Time) (*driving.IngestReport, error) {
	return &driving.IngestReport{}, nil
}

func (c *countingIngest) IngestAll(ctx context.Context) (*driving.IngestReport, error) {
	c.runs.Add(1)
	return &driving.IngestReport{}, nil
}

func newRuntime(t *testing.T, content string) (*runtime.Services, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frequency_words.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write word groups: %v", err)
	}
	rt := runtime.NewServices(domain.NewRuntimeConfig("file", "memory"))
	if err := rt.LoadWordGroups(path); err != nil {
		t.Fatalf("load word groups: %v", err)
	}
	return rt, path
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{})

	if w.reloadInterval != DefaultReloadInterval {
		t.Errorf("expected default reload interval, got %v", w.reloadInterval)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_StartStop(t *testing.T) {
	ingest := &countingIngest{}
	scheduler := services.NewScheduler(services.SchedulerConfig{
		Ingest:   ingest,
		Schedule: "@every 1h",
	})

	w := NewWorker(WorkerConfig{Scheduler: scheduler})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	health := w.Health(ctx)
	if !health.Running {
		t.Error("expected worker to be running")
	}
	if !health.Scheduled {
		t.Error("expected scheduler to be running")
	}

	// Start again should be no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()

	health = w.Health(ctx)
	if health.Running || health.Scheduled {
		t.Errorf("expected worker and scheduler to be stopped, got %+v", health)
	}

	// Stop again should be no-op
	w.Stop()
}

func TestWorker_Health_LockError(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.PingFn = func() error {
		return errors.New("connection failed")
	}

	w := NewWorker(WorkerConfig{Lock: lock})

	health := w.Health(context.Background())
	if health.LockHealth {
		t.Error("expected lock to be unhealthy")
	}
	if health.Error != "connection failed" {
		t.Errorf("expected error message, got %q", health.Error)
	}
}

func TestWorker_Health_NoLock(t *testing.T) {
	w := NewWorker(WorkerConfig{})

	health := w.Health(context.Background())
	if health.Running {
		t.Error("expected not running")
	}
	if !health.LockHealth {
		t.Error("expected healthy without a lock")
	}
}

func TestWorker_ReloadsWordGroups(t *testing.T) {
	rt, path := newRuntime(t, "AI\n")
	if got := rt.Config().WordGroups(); got != 1 {
		t.Fatalf("expected 1 group, got %d", got)
	}

	w := NewWorker(WorkerConfig{Runtime: rt, ReloadInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("AI\n\n芯片\n\n华为\n"), 0o644); err != nil {
		t.Fatalf("rewrite word groups: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for rt.Config().WordGroups() != 3 {
		select {
		case <-deadline:
			t.Fatalf("word groups not reloaded, have %d", rt.Config().WordGroups())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestWorker_ReloadFailureKeepsGroups(t *testing.T) {
	rt, path := newRuntime(t, "AI\n\n芯片\n")
	w := NewWorker(WorkerConfig{Runtime: rt})

	// A directory in place of the file cannot be read
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	w.reload()

	if got := rt.Config().WordGroups(); got != 2 {
		t.Errorf("expected previous 2 groups to be kept, got %d", got)
	}
}

func TestWorker_ContextCancellation(t *testing.T) {
	rt, _ := newRuntime(t, "AI\n")
	w := NewWorker(WorkerConfig{Runtime: rt, ReloadInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("worker did not stop after context cancellation")
		w.Stop()
	}
}
