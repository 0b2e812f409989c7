// Package corpus merges the snapshots of one day into a DailyCorpus and
// detects titles that first appear in the latest snapshot.
package corpus

import (
	"fmt"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// Merge folds snapshots, in the given order, into a corpus for date.
// Only sources passing filter contribute titles; display names are taken
// from every snapshot and the last one wins.
func Merge(date time.Time, snapshots []*domain.Snapshot, filter domain.SourceFilter) *domain.DailyCorpus {
	c := domain.NewDailyCorpus(date)

	for _, s := range snapshots {
		for id, name := range s.Names {
			c.Names[id] = name
		}
		c.Timestamps[s.Name] = s.CapturedAt
		c.Snapshots = append(c.Snapshots, s.Name)

		for _, id := range s.Titles.IDs() {
			if !filter.Allows(id) {
				continue
			}
			titles, _ := s.Titles.Get(id)
			if titles.Len() == 0 {
				continue
			}
			dst := c.Titles.Source(id)
			for _, agg := range titles.All() {
				dst.Merge(agg)
			}
		}
	}

	return c
}

// Aggregate is Merge that fails with ErrNoData when there is nothing to merge
// or the filter leaves no titles.
func Aggregate(date time.Time, snapshots []*domain.Snapshot, filter domain.SourceFilter) (*domain.DailyCorpus, error) {
	day := date.Format("2006-01-02")
	if len(snapshots) == 0 {
		return nil, domain.NewQueryError(domain.ErrNoData,
			fmt.Sprintf("no snapshots for %s", day),
			"make sure the crawler ran on that day or pick another date")
	}

	c := Merge(date, snapshots, filter)
	if c.Titles.TitleCount() == 0 {
		return nil, domain.NewQueryError(domain.ErrNoData,
			fmt.Sprintf("no titles for %s from the requested platforms", day),
			"check the platform IDs or widen the platform filter")
	}
	return c, nil
}
