package domain

import (
	"sort"
	"strings"
	"time"
)

// Platform is a configured headline source.
type Platform struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// WordGroup is one line of the keyword configuration.
// Required words carry a "+" suffix, filter words a "!" suffix.
type WordGroup struct {
	Required []string `json:"required"`
	Normal   []string `json:"normal"`
	Filter   []string `json:"filter"`
}

// Words returns required followed by normal words.
func (g WordGroup) Words() []string {
	out := make([]string, 0, len(g.Required)+len(g.Normal))
	out = append(out, g.Required...)
	return append(out, g.Normal...)
}

// KeywordFrequency is one row of a trending-topics result.
type KeywordFrequency struct {
	Keyword       string `json:"keyword"`
	Frequency     int    `json:"frequency"`
	MatchedTitles int    `json:"matched_titles"`
}

// TopicMode selects which titles the keyword matcher counts over.
type TopicMode string

const (
	// TopicModeDaily counts over every snapshot of the day
	TopicModeDaily TopicMode = "daily"
	// TopicModeCurrent counts over the most recent snapshot only
	TopicModeCurrent TopicMode = "current"
	// TopicModeIncremental counts over titles that first appeared in the most recent snapshot
	TopicModeIncremental TopicMode = "incremental"
)

// ValidTopicModes lists accepted modes.
var ValidTopicModes = []TopicMode{TopicModeDaily, TopicModeCurrent, TopicModeIncremental}

// IsValid checks the mode against the whitelist.
func (m TopicMode) IsValid() bool {
	for _, v := range ValidTopicModes {
		if m == v {
			return true
		}
	}
	return false
}

// CacheKey builds a deterministic key from an operation name and its parameters.
func CacheKey(op string, parts ...string) string {
	if len(parts) == 0 {
		return op
	}
	return op + ":" + strings.Join(parts, ":")
}

// PlatformKey renders a source filter for use in a cache key.
// Order does not matter; an empty filter renders as "all".
func PlatformKey(platforms []string) string {
	if len(platforms) == 0 {
		return "all"
	}
	sorted := append([]string(nil), platforms...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// CacheStats reports freshness cache usage.
type CacheStats struct {
	Backend string  `json:"backend"`
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	HitRate float64 `json:"hit_rate"`
}

// ComputeHitRate fills HitRate from Hits and Misses.
func (s *CacheStats) ComputeHitRate() {
	total := s.Hits + s.Misses
	if total == 0 {
		s.HitRate = 0
		return
	}
	s.HitRate = float64(s.Hits) / float64(total)
}

// StoreStats describes what a snapshot store holds.
type StoreStats struct {
	Backend   string `json:"backend"`
	Oldest    string `json:"oldest,omitempty"`
	Latest    string `json:"latest,omitempty"`
	Days      int    `json:"days"`
	Snapshots int    `json:"snapshots"`
	SizeBytes int64  `json:"size_bytes"`
}

// NewsItem is one title as returned by the news queries.
type NewsItem struct {
	Title        string    `json:"title"`
	Platform     string    `json:"platform"`
	PlatformName string    `json:"platform_name"`
	Rank         int       `json:"rank"`
	AvgRank      float64   `json:"avg_rank,omitempty"`
	Count        int       `json:"count,omitempty"`
	Date         string    `json:"date,omitempty"`
	URL          string    `json:"url,omitempty"`
	MobileURL    string    `json:"mobile_url,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitempty"`
}

// LatestNewsResult answers get_latest_news.
type LatestNewsResult struct {
	News  []NewsItem `json:"news"`
	Total int        `json:"total"`
}

// NewsByDateResult answers get_news_by_date.
type NewsByDateResult struct {
	Date  string     `json:"date"`
	News  []NewsItem `json:"news"`
	Total int        `json:"total"`
}

// DateRange is an inclusive range of YYYY-MM-DD days.
type DateRange struct {
	Start string `json:"start" example:"2025-10-01"`
	End   string `json:"end" example:"2025-10-10"`
}

// SearchStatistics summarises a keyword search.
type SearchStatistics struct {
	PlatformDistribution map[string]int `json:"platform_distribution"`
	AvgRank              float64        `json:"avg_rank"`
	DaysSearched         int            `json:"days_searched"`
	DaysWithData         int            `json:"days_with_data"`
}

// SearchResult answers search_news.
type SearchResult struct {
	Keyword    string           `json:"keyword"`
	DateRange  DateRange        `json:"date_range"`
	Results    []NewsItem       `json:"results"`
	TotalFound int              `json:"total_found"`
	Statistics SearchStatistics `json:"statistics"`
}

// TrendingTopicsResult answers get_trending_topics.
type TrendingTopicsResult struct {
	Mode   TopicMode          `json:"mode"`
	Date   string             `json:"date"`
	Topics []KeywordFrequency `json:"topics"`
	Total  int                `json:"total"`
}

// PlatformTitles groups titles under one source.
type PlatformTitles struct {
	Platform     string            `json:"platform"`
	PlatformName string            `json:"platform_name"`
	Titles       []*TitleAggregate `json:"titles"`
}

// NewTitlesResult answers get_new_titles.
type NewTitlesResult struct {
	Date      string           `json:"date"`
	Snapshot  string           `json:"snapshot,omitempty"`
	Platforms []PlatformTitles `json:"platforms"`
	Total     int              `json:"total"`
}

// SystemStatus answers get_system_status.
type SystemStatus struct {
	Version         string     `json:"version"`
	SnapshotBackend string     `json:"snapshot_backend"`
	Store           StoreStats `json:"store"`
	Cache           CacheStats `json:"cache"`
	WordGroups      int        `json:"word_groups"`
	Platforms       []Platform `json:"platforms"`
	LastIngest      *time.Time `json:"last_ingest,omitempty"`
}

// ResolvedDate answers resolve_date.
type ResolvedDate struct {
	Expression string `json:"expression"`
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
}

// Envelope is the uniform response wrapper returned by every tool.
type Envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorBody   `json:"error,omitempty"`
	Skipped []Diagnostic `json:"skipped,omitempty"`
}

// NewEnvelope wraps a result or an error.
func NewEnvelope(data any, err error) *Envelope {
	if err != nil {
		return &Envelope{Success: false, Error: NewErrorBody(err)}
	}
	return &Envelope{Success: true, Data: data}
}
