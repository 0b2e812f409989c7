package corpus

import (
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// DetectNew reports, per source, the titles of latest that never appeared in
// earlier. A day with no earlier snapshot yields an empty result so that the
// first capture is never reported as new. Each reported title carries only
// what latest recorded for it.
func DetectNew(latest *domain.Snapshot, earlier *domain.DailyCorpus, filter domain.SourceFilter) *domain.SourceMap {
	out := domain.NewSourceMap()
	if latest == nil || earlier == nil || len(earlier.Snapshots) == 0 {
		return out
	}

	for _, id := range latest.Titles.IDs() {
		if !filter.Allows(id) {
			continue
		}
		current, _ := latest.Titles.Get(id)
		seen, _ := earlier.Titles.Get(id)

		for _, agg := range current.All() {
			if seen != nil && seen.Has(agg.Title) {
				continue
			}
			out.Source(id).Merge(agg)
		}
	}

	return out
}

// DetectNewInDay splits a day's ordered snapshots into the latest one and
// the rest, then runs DetectNew. It also returns the latest snapshot.
func DetectNewInDay(date time.Time, snapshots []*domain.Snapshot, filter domain.SourceFilter) (*domain.SourceMap, *domain.Snapshot) {
	if len(snapshots) == 0 {
		return domain.NewSourceMap(), nil
	}
	last := len(snapshots) - 1
	latest := snapshots[last]
	earlier := Merge(date, snapshots[:last], nil)
	return DetectNew(latest, earlier, filter), latest
}
