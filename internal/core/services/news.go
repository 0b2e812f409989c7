package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
	"github.com/custodia-labs/trendcore/internal/corpus"
	"github.com/custodia-labs/trendcore/internal/dates"
	"github.com/custodia-labs/trendcore/internal/runtime"
)

// Ensure newsService implements NewsService
var _ driving.NewsService = (*newsService)(nil)

// MaxSearchDays bounds the number of days a single search may scan.
const MaxSearchDays = dates.DefaultMaxAgeDays + 1

// QueryTTLs sets how long each query result stays fresh.
type QueryTTLs struct {
	Latest time.Duration `yaml:"latest"`
	ByDate time.Duration `yaml:"by_date"`
	Topics time.Duration `yaml:"topics"`
}

// DefaultQueryTTLs returns the standard freshness windows.
func DefaultQueryTTLs() QueryTTLs {
	return QueryTTLs{
		Latest: 15 * time.Minute,
		ByDate: 30 * time.Minute,
		Topics: 30 * time.Minute,
	}
}

// NewsServiceConfig holds dependencies for the news service
type NewsServiceConfig struct {
	Repository *SnapshotRepository
	Cache      *ResultCache
	Runtime    *runtime.Services
	Platforms  []domain.Platform
	TTLs       QueryTTLs
	Version    string
	Logger     *slog.Logger
}

// newsService implements the NewsService interface
type newsService struct {
	repo      *SnapshotRepository
	cache     *ResultCache
	runtime   *runtime.Services
	platforms []domain.Platform
	ttls      QueryTTLs
	version   string
	logger    *slog.Logger
}

// NewNewsService creates a new NewsService. Zero TTLs fall back to the defaults.
func NewNewsService(cfg NewsServiceConfig) driving.NewsService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttls := cfg.TTLs
	def := DefaultQueryTTLs()
	if ttls.Latest <= 0 {
		ttls.Latest = def.Latest
	}
	if ttls.ByDate <= 0 {
		ttls.ByDate = def.ByDate
	}
	if ttls.Topics <= 0 {
		ttls.Topics = def.Topics
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &newsService{
		repo:      cfg.Repository,
		cache:     cfg.Cache,
		runtime:   cfg.Runtime,
		platforms: cfg.Platforms,
		ttls:      ttls,
		version:   version,
		logger:    logger,
	}
}

// LatestNews lists today's titles by first rank, stamped with the latest capture time.
func (s *newsService) LatestNews(ctx context.Context, req driving.LatestNewsRequest) (*domain.LatestNewsResult, []domain.Diagnostic, error) {
	platforms, err := validatePlatforms(req.Platforms, s.platforms)
	if err != nil {
		return nil, nil, err
	}
	limit, err := validateLimit(req.Limit, DefaultLimit, MaxLimit)
	if err != nil {
		return nil, nil, err
	}

	today := s.repo.Today()
	key := domain.CacheKey("latest", dates.FormatISO(today), domain.PlatformKey(platforms),
		strconv.Itoa(limit), strconv.FormatBool(req.IncludeURL))

	return ReadThrough(ctx, s.cache, "latest", key, s.ttls.Latest,
		func(ctx context.Context) (*domain.LatestNewsResult, []domain.Diagnostic, error) {
			c, skipped, err := s.repo.Corpus(ctx, today, platforms)
			if err != nil {
				return nil, skipped, err
			}

			captured := c.LatestCapture()
			items := corpusItems(c, req.IncludeURL, func(item *domain.NewsItem, _ *domain.TitleAggregate) {
				item.Timestamp = captured
			})
			items = sortAndLimit(items, limit)
			return &domain.LatestNewsResult{News: items, Total: len(items)}, skipped, nil
		})
}

// NewsByDate lists the titles of a resolved day with rank statistics.
func (s *newsService) NewsByDate(ctx context.Context, req driving.NewsByDateRequest) (*domain.NewsByDateResult, []domain.Diagnostic, error) {
	platforms, err := validatePlatforms(req.Platforms, s.platforms)
	if err != nil {
		return nil, nil, err
	}
	limit, err := validateLimit(req.Limit, DefaultLimit, MaxLimit)
	if err != nil {
		return nil, nil, err
	}
	day, err := s.resolvePastDay(req.DateQuery)
	if err != nil {
		return nil, nil, err
	}

	date := dates.FormatISO(day)
	key := domain.CacheKey("by_date", date, domain.PlatformKey(platforms),
		strconv.Itoa(limit), strconv.FormatBool(req.IncludeURL))

	return ReadThrough(ctx, s.cache, "by_date", key, s.ttls.ByDate,
		func(ctx context.Context) (*domain.NewsByDateResult, []domain.Diagnostic, error) {
			c, skipped, err := s.repo.Corpus(ctx, day, platforms)
			if err != nil {
				return nil, skipped, err
			}

			items := corpusItems(c, req.IncludeURL, func(item *domain.NewsItem, agg *domain.TitleAggregate) {
				item.AvgRank = round2(agg.AverageRank())
				item.Count = len(agg.Ranks)
				item.Date = date
			})
			items = sortAndLimit(items, limit)
			return &domain.NewsByDateResult{Date: date, News: items, Total: len(items)}, skipped, nil
		})
}

// Search finds titles containing keyword, ignoring case, over each day of
// the range. Days without snapshots are counted as searched and skipped.
func (s *newsService) Search(ctx context.Context, req driving.SearchRequest) (*domain.SearchResult, []domain.Diagnostic, error) {
	keyword, err := validateKeyword(req.Keyword)
	if err != nil {
		return nil, nil, err
	}
	platforms, err := validatePlatforms(req.Platforms, s.platforms)
	if err != nil {
		return nil, nil, err
	}
	limit, err := validateLimit(req.Limit, MaxLimit, MaxLimit)
	if err != nil {
		return nil, nil, err
	}
	start, end, err := validateDateRange(req.DateRange, s.repo.Now(), func() string {
		return s.availableRange(ctx)
	})
	if err != nil {
		return nil, nil, err
	}
	if dates.DaysBetween(start, end)+1 > MaxSearchDays {
		return nil, nil, invalidParam(
			fmt.Sprintf("date range cannot span more than %d days", MaxSearchDays),
			"narrow the date range")
	}

	needle := strings.ToLower(keyword)
	result := &domain.SearchResult{
		Keyword:   keyword,
		DateRange: domain.DateRange{Start: dates.FormatISO(start), End: dates.FormatISO(end)},
		Statistics: domain.SearchStatistics{
			PlatformDistribution: make(map[string]int),
		},
	}

	var skipped []domain.Diagnostic
	rankSum, rankCount := 0, 0

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		result.Statistics.DaysSearched++

		c, daySkipped, err := s.repo.Corpus(ctx, day, platforms)
		skipped = append(skipped, daySkipped...)
		if err != nil {
			if errors.Is(err, domain.ErrNoData) {
				continue
			}
			return nil, skipped, err
		}
		result.Statistics.DaysWithData++

		date := dates.FormatISO(day)
		for _, id := range c.Titles.IDs() {
			tm, _ := c.Titles.Get(id)
			for _, agg := range tm.All() {
				if !strings.Contains(strings.ToLower(agg.Title), needle) {
					continue
				}
				item := domain.NewsItem{
					Title:        agg.Title,
					Platform:     id,
					PlatformName: c.SourceName(id),
					Rank:         agg.FirstRank(),
					AvgRank:      round2(agg.AverageRank()),
					Count:        len(agg.Ranks),
					Date:         date,
				}
				if req.IncludeURL {
					item.URL = agg.URL
					item.MobileURL = agg.MobileURL
				}
				result.Results = append(result.Results, item)
				result.Statistics.PlatformDistribution[id]++
				for _, r := range agg.Ranks {
					rankSum += r
					rankCount++
				}
			}
		}
	}

	if len(result.Results) == 0 {
		return nil, skipped, domain.NewQueryError(domain.ErrNoData,
			fmt.Sprintf("no news found containing %q", keyword),
			"try another keyword or widen the date range")
	}

	if rankCount > 0 {
		result.Statistics.AvgRank = round2(float64(rankSum) / float64(rankCount))
	}
	result.TotalFound = len(result.Results)
	if len(result.Results) > limit {
		result.Results = result.Results[:limit]
	}
	return result, skipped, nil
}

// TrendingTopics counts configured keywords over today's titles.
func (s *newsService) TrendingTopics(ctx context.Context, req driving.TrendingTopicsRequest) (*domain.TrendingTopicsResult, []domain.Diagnostic, error) {
	topN, err := validateTopN(req.TopN)
	if err != nil {
		return nil, nil, err
	}
	mode, err := validateMode(req.Mode)
	if err != nil {
		return nil, nil, err
	}
	if !s.runtime.Config().KeywordsConfigured() {
		return nil, nil, domain.NewQueryError(domain.ErrNoData,
			"no keyword groups are configured",
			"add word groups to the frequency words file and reload")
	}

	today := s.repo.Today()
	date := dates.FormatISO(today)
	matcher := s.runtime.Matcher().Snapshot()
	key := domain.CacheKey("topics", date, string(mode), strconv.Itoa(topN), matcher.Fingerprint())

	return ReadThrough(ctx, s.cache, "topics", key, s.ttls.Topics,
		func(ctx context.Context) (*domain.TrendingTopicsResult, []domain.Diagnostic, error) {
			titles, skipped, err := s.topicTitles(ctx, today, mode)
			if err != nil {
				return nil, skipped, err
			}
			topics := matcher.Count(titles, topN)
			return &domain.TrendingTopicsResult{
				Mode:   mode,
				Date:   date,
				Topics: topics,
				Total:  len(topics),
			}, skipped, nil
		})
}

// topicTitles selects what the matcher counts over for a mode.
func (s *newsService) topicTitles(ctx context.Context, day time.Time, mode domain.TopicMode) (*domain.SourceMap, []domain.Diagnostic, error) {
	switch mode {
	case domain.TopicModeDaily:
		c, skipped, err := s.repo.Corpus(ctx, day, nil)
		if err != nil {
			return nil, skipped, err
		}
		return c.Titles, skipped, nil

	case domain.TopicModeIncremental:
		snaps, skipped, err := s.repo.ListSnapshots(ctx, day)
		if err != nil {
			return nil, skipped, err
		}
		fresh, _ := corpus.DetectNewInDay(day, snaps, nil)
		return fresh, skipped, nil

	default:
		latest, skipped, err := s.repo.LatestSnapshot(ctx, day)
		if err != nil {
			return nil, skipped, err
		}
		return latest.Titles, skipped, nil
	}
}

// NewTitles reports titles that first appeared in the latest snapshot of a day.
func (s *newsService) NewTitles(ctx context.Context, req driving.NewTitlesRequest) (*domain.NewTitlesResult, []domain.Diagnostic, error) {
	platforms, err := validatePlatforms(req.Platforms, s.platforms)
	if err != nil {
		return nil, nil, err
	}
	day, err := s.resolvePastDay(req.DateQuery)
	if err != nil {
		return nil, nil, err
	}

	snaps, skipped, err := s.repo.ListSnapshots(ctx, day)
	if err != nil {
		return nil, skipped, err
	}

	fresh, latest := corpus.DetectNewInDay(day, snaps, domain.NewSourceFilter(platforms))
	merged := corpus.Merge(day, snaps, nil)

	result := &domain.NewTitlesResult{
		Date:      dates.FormatISO(day),
		Platforms: make([]domain.PlatformTitles, 0, fresh.Len()),
	}
	if latest != nil {
		result.Snapshot = latest.Name
	}
	for _, id := range fresh.IDs() {
		tm, _ := fresh.Get(id)
		result.Platforms = append(result.Platforms, domain.PlatformTitles{
			Platform:     id,
			PlatformName: merged.SourceName(id),
			Titles:       tm.SortedByRank(),
		})
		result.Total += tm.Len()
	}

	s.logger.Debug("detected new titles", "date", result.Date, "snapshot", result.Snapshot, "count", result.Total)
	return result, skipped, nil
}

// ResolveDate resolves a date expression against the current day.
func (s *newsService) ResolveDate(ctx context.Context, req driving.ResolveDateRequest) (*domain.ResolvedDate, error) {
	day, err := dates.Resolve(req.Expression, s.repo.Now())
	if err != nil {
		return nil, err
	}
	return &domain.ResolvedDate{
		Expression: req.Expression,
		Date:       dates.FormatISO(day),
		Weekday:    day.Weekday().String(),
	}, nil
}

// Status reports store contents, cache usage and ingestion state.
func (s *newsService) Status(ctx context.Context) (*domain.SystemStatus, error) {
	storeStats, err := s.repo.Store().Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}
	cacheStats, err := s.cache.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}

	cfg := s.runtime.Config()
	status := &domain.SystemStatus{
		Version:         s.version,
		SnapshotBackend: cfg.SnapshotBackend,
		Store:           *storeStats,
		Cache:           cacheStats,
		WordGroups:      cfg.WordGroups(),
		Platforms:       s.platforms,
	}
	if at, _ := cfg.LastIngest(); !at.IsZero() {
		status.LastIngest = &at
	}
	return status, nil
}

// resolvePastDay resolves a date expression, defaulting to today, and
// rejects days in the future or beyond the look-back limit.
func (s *newsService) resolvePastDay(query string) (time.Time, error) {
	if strings.TrimSpace(query) == "" {
		query = DefaultDateQuery
	}
	now := s.repo.Now()
	day, err := dates.Resolve(query, now)
	if err != nil {
		return time.Time{}, err
	}
	if err := dates.CheckNotFuture(day, now); err != nil {
		return time.Time{}, err
	}
	if err := dates.CheckNotTooOld(day, now, dates.DefaultMaxAgeDays); err != nil {
		return time.Time{}, err
	}
	return day, nil
}

func (s *newsService) availableRange(ctx context.Context) string {
	oldest, latest, ok, err := s.repo.AvailableRange(ctx)
	switch {
	case err != nil:
		return "unknown"
	case !ok:
		return "none"
	default:
		return dates.FormatISO(oldest) + " to " + dates.FormatISO(latest)
	}
}

// corpusItems flattens a corpus into news items; decorate adds per-query fields.
func corpusItems(c *domain.DailyCorpus, includeURL bool, decorate func(*domain.NewsItem, *domain.TitleAggregate)) []domain.NewsItem {
	items := make([]domain.NewsItem, 0, c.Titles.TitleCount())
	for _, id := range c.Titles.IDs() {
		tm, _ := c.Titles.Get(id)
		name := c.SourceName(id)
		for _, agg := range tm.All() {
			item := domain.NewsItem{
				Title:        agg.Title,
				Platform:     id,
				PlatformName: name,
				Rank:         agg.FirstRank(),
			}
			if includeURL {
				item.URL = agg.URL
				item.MobileURL = agg.MobileURL
			}
			decorate(&item, agg)
			items = append(items, item)
		}
	}
	return items
}

func sortAndLimit(items []domain.NewsItem, limit int) []domain.NewsItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Rank < items[j].Rank
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
