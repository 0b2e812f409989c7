package driving

import (
	"context"
	"time"
)

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Days     int `json:"days"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// IngestService copies snapshots from a source store into a writable store.
type IngestService interface {
	// IngestDay imports every snapshot of one day not yet present in the target.
	IngestDay(ctx context.Context, day time.Time) (*IngestReport, error)

	// IngestAll imports every available day.
	IngestAll(ctx context.Context) (*IngestReport, error)
}
