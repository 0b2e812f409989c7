package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/trendcore/internal/adapters/driven/memory"
	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
	"github.com/custodia-labs/trendcore/internal/keywords"
	"github.com/custodia-labs/trendcore/internal/runtime"
	"github.com/custodia-labs/trendcore/internal/snapshot"
)

// Friday 2025-10-10, mid-afternoon
var testNow = time.Date(2025, 10, 10, 15, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addSnapshot(store *mocks.MockSnapshotStore, d time.Time, name string, at time.Time, content string) {
	store.Add(d, snapshot.ParseString(content).Snapshot(name, at))
}

// seedArchive stores two snapshots for 2025-10-10 and one for 2025-10-09.
func seedArchive(store *mocks.MockSnapshotStore) {
	today := day(2025, 10, 10)
	addSnapshot(store, today, "09时00分.txt", today.Add(9*time.Hour),
		"zhihu | 知乎\n1. AI突破 [URL:u1]\n\nweibo | 微博\n1. 芯片AI突破\n2. 天气\n")
	addSnapshot(store, today, "10时00分.txt", today.Add(10*time.Hour),
		"zhihu | 知乎\n2. AI突破 [URL:u1]\n3. 新话题\n")

	yesterday := day(2025, 10, 9)
	addSnapshot(store, yesterday, "20时00分.txt", yesterday.Add(20*time.Hour),
		"zhihu | 知乎\n1. 旧闻 AI\n4. 其他\n")
}

type newsFixture struct {
	store   *mocks.MockSnapshotStore
	cache   *memory.Cache
	runtime *runtime.Services
	repo    *SnapshotRepository
	svc     driving.NewsService
}

func newNewsFixture(t *testing.T) *newsFixture {
	t.Helper()

	store := mocks.NewMockSnapshotStore()
	seedArchive(store)

	backend := memory.NewCacheWithClock(func() time.Time { return testNow })
	cache := NewResultCache(ResultCacheConfig{Backend: backend})
	rt := runtime.NewServices(domain.NewRuntimeConfig("file", "memory"))

	groups, err := keywords.ParseWordGroups(strings.NewReader("AI+,突破|芯片!\n话题\n"))
	if err != nil {
		t.Fatalf("parse word groups: %v", err)
	}
	rt.SetWordGroups(groups)

	repo := NewSnapshotRepository(RepositoryConfig{
		Store:    store,
		Cache:    cache,
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})

	svc := NewNewsService(NewsServiceConfig{
		Repository: repo,
		Cache:      cache,
		Runtime:    rt,
		Platforms: []domain.Platform{
			{ID: "zhihu", Name: "知乎"},
			{ID: "weibo", Name: "微博"},
			{ID: "baidu", Name: "百度"},
		},
		Version: "test",
	})

	return &newsFixture{store: store, cache: backend, runtime: rt, repo: repo, svc: svc}
}

// MockIngestService is a testify mock of driving.IngestService
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) IngestDay(ctx context.Context, d time.Time) (*driving.IngestReport, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driving.IngestReport), args.Error(1)
}

func (m *MockIngestService) IngestAll(ctx context.Context) (*driving.IngestReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driving.IngestReport), args.Error(1)
}

// MockNewsService is a testify mock of driving.NewsService. Only NewTitles
// is expected by the scheduler; the rest fail the test when called.
type MockNewsService struct {
	mock.Mock
}

func (m *MockNewsService) LatestNews(ctx context.Context, req driving.LatestNewsRequest) (*domain.LatestNewsResult, []domain.Diagnostic, error) {
	args := m.Called(ctx, req)
	return nil, nil, args.Error(2)
}

func (m *MockNewsService) NewsByDate(ctx context.Context, req driving.NewsByDateRequest) (*domain.NewsByDateResult, []domain.Diagnostic, error) {
	args := m.Called(ctx, req)
	return nil, nil, args.Error(2)
}

func (m *MockNewsService) Search(ctx context.Context, req driving.SearchRequest) (*domain.SearchResult, []domain.Diagnostic, error) {
	args := m.Called(ctx, req)
	return nil, nil, args.Error(2)
}

func (m *MockNewsService) TrendingTopics(ctx context.Context, req driving.TrendingTopicsRequest) (*domain.TrendingTopicsResult, []domain.Diagnostic, error) {
	args := m.Called(ctx, req)
	return nil, nil, args.Error(2)
}

func (m *MockNewsService) NewTitles(ctx context.Context, req driving.NewTitlesRequest) (*domain.NewTitlesResult, []domain.Diagnostic, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.NewTitlesResult), nil, args.Error(2)
}

func (m *MockNewsService) ResolveDate(ctx context.Context, req driving.ResolveDateRequest) (*domain.ResolvedDate, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

func (m *MockNewsService) Status(ctx context.Context) (*domain.SystemStatus, error) {
	args := m.Called(ctx)
	return nil, args.Error(1)
}
