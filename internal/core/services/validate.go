package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/dates"
)

// Argument limits
const (
	DefaultLimit     = 50
	MaxLimit         = 1000
	DefaultTopN      = 10
	MaxTopN          = 100
	MaxKeywordLength = 100
	DefaultDateQuery = "今天"
)

func invalidParam(message, suggestion string) error {
	return domain.NewQueryError(domain.ErrInvalidParameter, message, suggestion)
}

// validatePlatforms checks requested platforms against the configured list.
// An empty request selects every configured platform. With no configured
// platforms every ID is accepted.
func validatePlatforms(requested []string, configured []domain.Platform) ([]string, error) {
	if len(configured) == 0 {
		return requested, nil
	}

	known := make(map[string]struct{}, len(configured))
	ids := make([]string, 0, len(configured))
	for _, p := range configured {
		known[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}

	if len(requested) == 0 {
		return ids, nil
	}

	var unknown []string
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, invalidParam(
			fmt.Sprintf("unsupported platforms: %s", strings.Join(unknown, ", ")),
			fmt.Sprintf("configured platforms: %s", strings.Join(ids, ", ")))
	}
	return requested, nil
}

// validateLimit applies the default to zero and rejects values outside 1..max.
func validateLimit(limit, def, maxLimit int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 0 {
		return 0, invalidParam("limit must be greater than 0", "")
	}
	if limit > maxLimit {
		return 0, invalidParam(fmt.Sprintf("limit cannot exceed %d", maxLimit),
			"lower the limit or narrow the query")
	}
	return limit, nil
}

func validateTopN(topN int) (int, error) {
	if topN == 0 {
		return DefaultTopN, nil
	}
	if topN < 0 || topN > MaxTopN {
		return 0, invalidParam(fmt.Sprintf("top_n must be between 1 and %d", MaxTopN), "")
	}
	return topN, nil
}

func validateKeyword(keyword string) (string, error) {
	k := strings.TrimSpace(keyword)
	if k == "" {
		return "", invalidParam("keyword must not be empty", "pass the word to search for")
	}
	if utf8.RuneCountInString(k) > MaxKeywordLength {
		return "", invalidParam(
			fmt.Sprintf("keyword cannot be longer than %d characters", MaxKeywordLength),
			"use a shorter keyword")
	}
	return k, nil
}

func validateMode(mode domain.TopicMode) (domain.TopicMode, error) {
	if mode == "" {
		return domain.TopicModeCurrent, nil
	}
	if !mode.IsValid() {
		names := make([]string, 0, len(domain.ValidTopicModes))
		for _, m := range domain.ValidTopicModes {
			names = append(names, string(m))
		}
		return "", invalidParam(fmt.Sprintf("unsupported mode: %s", mode),
			fmt.Sprintf("supported modes: %s", strings.Join(names, ", ")))
	}
	return mode, nil
}

// validateDateRange parses an inclusive YYYY-MM-DD range. available is
// rendered into the suggestion when the range reaches into the future.
func validateDateRange(r *domain.DateRange, now time.Time, available func() string) (time.Time, time.Time, error) {
	today := dates.Day(now)
	if r == nil {
		return today, today, nil
	}
	if r.Start == "" || r.End == "" {
		return time.Time{}, time.Time{}, invalidParam("date_range needs both start and end",
			`e.g. {"start": "2025-10-01", "end": "2025-10-11"}`)
	}

	start, err := dates.ParseISO(r.Start, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, invalidParam(err.Error(), "use the YYYY-MM-DD format, e.g. 2025-10-11")
	}
	end, err := dates.ParseISO(r.End, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, invalidParam(err.Error(), "use the YYYY-MM-DD format, e.g. 2025-10-11")
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, invalidParam("start date cannot be after end date",
			fmt.Sprintf("start: %s, end: %s", r.Start, r.End))
	}

	var future []string
	if start.After(today) {
		future = append(future, r.Start)
	}
	if end.After(today) {
		future = append(future, r.End)
	}
	if len(future) > 0 {
		return time.Time{}, time.Time{}, invalidParam(
			fmt.Sprintf("date range reaches into the future: %s", strings.Join(future, ", ")),
			fmt.Sprintf("available data: %s", available()))
	}

	return start, end, nil
}
