package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
)

var (
	_ driven.SnapshotStore  = (*MockSnapshotStore)(nil)
	_ driven.SnapshotWriter = (*MockSnapshotStore)(nil)
)

// MockSnapshotStore keeps snapshots in memory, keyed by day.
type MockSnapshotStore struct {
	mu          sync.RWMutex
	days        map[string][]*domain.Snapshot
	dates       map[string]time.Time
	diagnostics map[string][]domain.Diagnostic

	// ListCalls counts ListSnapshots invocations
	ListCalls int
	// ListErr, when set, is returned by ListSnapshots
	ListErr error
}

// NewMockSnapshotStore creates a new MockSnapshotStore
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{
		days:        make(map[string][]*domain.Snapshot),
		dates:       make(map[string]time.Time),
		diagnostics: make(map[string][]domain.Diagnostic),
	}
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// Add stores a snapshot for a day, keeping the day sorted by name.
func (m *MockSnapshotStore) Add(day time.Time, s *domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := dayKey(day)
	m.dates[k] = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	m.days[k] = append(m.days[k], s)
	sort.SliceStable(m.days[k], func(i, j int) bool {
		return m.days[k][i].Name < m.days[k][j].Name
	})
}

// AddDiagnostic records a skipped snapshot for a day.
func (m *MockSnapshotStore) AddDiagnostic(day time.Time, d domain.Diagnostic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diagnostics[dayKey(day)] = append(m.diagnostics[dayKey(day)], d)
}

func (m *MockSnapshotStore) ListSnapshots(ctx context.Context, day time.Time) ([]*domain.Snapshot, []domain.Diagnostic, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.ListErr != nil {
		return nil, nil, m.ListErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	k := dayKey(day)
	snaps := m.days[k]
	if len(snaps) == 0 {
		return nil, m.diagnostics[k], domain.NewQueryError(domain.ErrNoData,
			fmt.Sprintf("no snapshots for %s", k), "")
	}
	return append([]*domain.Snapshot(nil), snaps...), m.diagnostics[k], nil
}

func (m *MockSnapshotStore) AvailableDates(ctx context.Context) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []time.Time
	for k, snaps := range m.days {
		if len(snaps) == 0 {
			continue
		}
		out = append(out, m.dates[k])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (m *MockSnapshotStore) Stats(ctx context.Context) (*domain.StoreStats, error) {
	dates, _ := m.AvailableDates(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.StoreStats{Backend: "mock", Days: len(dates)}
	for _, snaps := range m.days {
		stats.Snapshots += len(snaps)
	}
	if len(dates) > 0 {
		stats.Oldest = dayKey(dates[0])
		stats.Latest = dayKey(dates[len(dates)-1])
	}
	return stats, nil
}

func (m *MockSnapshotStore) SaveSnapshot(ctx context.Context, day time.Time, s *domain.Snapshot) error {
	m.Add(day, s)
	return nil
}

func (m *MockSnapshotStore) HasSnapshot(ctx context.Context, day time.Time, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.days[dayKey(day)] {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}
