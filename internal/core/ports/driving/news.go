package driving

import (
	"context"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// LatestNewsRequest holds get_latest_news arguments.
type LatestNewsRequest struct {
	Platforms  []string `json:"platforms,omitempty"`
	Limit      int      `json:"limit,omitempty" example:"50"`
	IncludeURL bool     `json:"include_url,omitempty"`
}

// NewsByDateRequest holds get_news_by_date arguments.
type NewsByDateRequest struct {
	DateQuery  string   `json:"date_query,omitempty" example:"昨天"`
	Platforms  []string `json:"platforms,omitempty"`
	Limit      int      `json:"limit,omitempty" example:"50"`
	IncludeURL bool     `json:"include_url,omitempty"`
}

// SearchRequest holds search_news arguments.
type SearchRequest struct {
	Keyword    string            `json:"keyword" example:"AI"`
	DateRange  *domain.DateRange `json:"date_range,omitempty"`
	Platforms  []string          `json:"platforms,omitempty"`
	Limit      int               `json:"limit,omitempty" example:"50"`
	IncludeURL bool              `json:"include_url,omitempty"`
}

// TrendingTopicsRequest holds get_trending_topics arguments.
type TrendingTopicsRequest struct {
	TopN int              `json:"top_n,omitempty" example:"10"`
	Mode domain.TopicMode `json:"mode,omitempty" example:"current"`
}

// NewTitlesRequest holds get_new_titles arguments.
type NewTitlesRequest struct {
	DateQuery string   `json:"date_query,omitempty" example:"今天"`
	Platforms []string `json:"platforms,omitempty"`
}

// ResolveDateRequest holds resolve_date arguments.
type ResolveDateRequest struct {
	Expression string `json:"expression" example:"上周一"`
}

// NewsService answers archive queries. Results come with the diagnostics of
// any snapshots that had to be skipped while reading.
type NewsService interface {
	LatestNews(ctx context.Context, req LatestNewsRequest) (*domain.LatestNewsResult, []domain.Diagnostic, error)
	NewsByDate(ctx context.Context, req NewsByDateRequest) (*domain.NewsByDateResult, []domain.Diagnostic, error)
	Search(ctx context.Context, req SearchRequest) (*domain.SearchResult, []domain.Diagnostic, error)
	TrendingTopics(ctx context.Context, req TrendingTopicsRequest) (*domain.TrendingTopicsResult, []domain.Diagnostic, error)
	NewTitles(ctx context.Context, req NewTitlesRequest) (*domain.NewTitlesResult, []domain.Diagnostic, error)
	ResolveDate(ctx context.Context, req ResolveDateRequest) (*domain.ResolvedDate, error)
	Status(ctx context.Context) (*domain.SystemStatus, error)
}
