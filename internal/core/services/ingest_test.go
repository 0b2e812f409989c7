package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven/mocks"
)

// failingWriter rejects snapshots whose name is listed in reject.
type failingWriter struct {
	*mocks.MockSnapshotStore
	reject map[string]bool
}

func (w *failingWriter) SaveSnapshot(ctx context.Context, d time.Time, s *domain.Snapshot) error {
	if w.reject[s.Name] {
		return errors.New("write refused")
	}
	return w.MockSnapshotStore.SaveSnapshot(ctx, d, s)
}

type ingestRecorder struct {
	runs     int
	imported int
}

func (r *ingestRecorder) RecordIngest(_ time.Time, imported, _, _ int) {
	r.runs++
	r.imported += imported
}

func TestIngestService_IngestAll(t *testing.T) {
	source := mocks.NewMockSnapshotStore()
	seedArchive(source)
	target := mocks.NewMockSnapshotStore()
	rt := domain.NewRuntimeConfig("postgres", "redis")
	recorder := &ingestRecorder{}

	svc := NewIngestService(IngestServiceConfig{
		Source:   source,
		Target:   target,
		Runtime:  rt,
		Observer: recorder,
		Now:      func() time.Time { return testNow },
	})

	report, err := svc.IngestAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Days)
	assert.Equal(t, 3, report.Imported)
	assert.Zero(t, report.Skipped)

	at, imported := rt.LastIngest()
	assert.Equal(t, testNow, at)
	assert.Equal(t, 3, imported)

	// Second run finds everything already present
	report, err = svc.IngestAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Imported)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 2, recorder.runs)
	assert.Equal(t, 3, recorder.imported)
}

func TestIngestService_IngestDay(t *testing.T) {
	source := mocks.NewMockSnapshotStore()
	seedArchive(source)
	source.AddDiagnostic(day(2025, 10, 10), domain.Diagnostic{Source: "broken.txt", Reason: domain.ReasonUnreadable})
	target := &failingWriter{
		MockSnapshotStore: mocks.NewMockSnapshotStore(),
		reject:            map[string]bool{"10时00分.txt": true},
	}

	svc := NewIngestService(IngestServiceConfig{Source: source, Target: target})

	report, err := svc.IngestDay(context.Background(), day(2025, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Days)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Failed, "one unreadable, one refused")

	has, err := target.HasSnapshot(context.Background(), day(2025, 10, 10), "09时00分.txt")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestIngestService_IngestDayWithoutData(t *testing.T) {
	svc := NewIngestService(IngestServiceConfig{
		Source: mocks.NewMockSnapshotStore(),
		Target: mocks.NewMockSnapshotStore(),
	})

	report, err := svc.IngestDay(context.Background(), day(2025, 1, 1))
	require.NoError(t, err)
	assert.Zero(t, report.Days)
	assert.Zero(t, report.Imported)
}

func TestIngestService_SourceError(t *testing.T) {
	source := mocks.NewMockSnapshotStore()
	seedArchive(source)
	source.ListErr = errors.New("io failure")

	svc := NewIngestService(IngestServiceConfig{Source: source, Target: mocks.NewMockSnapshotStore()})

	_, err := svc.IngestAll(context.Background())
	assert.ErrorContains(t, err, "io failure")
}
