package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/snapshot"
)

// Verify interface compliance
var (
	_ driven.SnapshotStore  = (*SnapshotStore)(nil)
	_ driven.SnapshotWriter = (*SnapshotStore)(nil)
)

// SnapshotStore implements SnapshotStore and SnapshotWriter using PostgreSQL.
type SnapshotStore struct {
	db     *DB
	loc    *time.Location
	logger *slog.Logger
}

// NewSnapshotStore creates a new SnapshotStore. Days are reported in loc.
func NewSnapshotStore(db *DB, loc *time.Location, logger *slog.Logger) *SnapshotStore {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{db: db, loc: loc, logger: logger}
}

// snapshotHead is one row of the snapshots table.
type snapshotHead struct {
	id          string
	name        string
	capturedAt  time.Time
	sourceNames []byte
	failedIDs   []string
}

// titleRow is one row of the snapshot_titles table.
type titleRow struct {
	snapshotID     string
	sourceID       string
	sourcePosition int
	position       int
	title          string
	ranks          []int64
	url            string
	mobileURL      string
}

// ListSnapshots loads every snapshot of the day ordered by name.
func (s *SnapshotStore) ListSnapshots(ctx context.Context, day time.Time) ([]*domain.Snapshot, []domain.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, captured_at, source_names, failed_ids
		FROM snapshots
		WHERE day = $1
		ORDER BY name
	`, dayParam(day))
	if err != nil {
		return nil, nil, fmt.Errorf("list snapshots: %w", err)
	}

	var (
		heads []snapshotHead
		ids   []string
	)
	for rows.Next() {
		var h snapshotHead
		if err := rows.Scan(&h.id, &h.name, &h.capturedAt, &h.sourceNames, pq.Array(&h.failedIDs)); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan snapshot: %w", err)
		}
		heads = append(heads, h)
		ids = append(ids, h.id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("list snapshots: %w", err)
	}

	if len(heads) == 0 {
		return nil, nil, domain.NewQueryError(domain.ErrNoData,
			fmt.Sprintf("no snapshots stored for %s", dayParam(day)),
			"run the ingest command or check the date")
	}

	titleRows, err := s.loadTitles(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	snaps, skipped := assembleSnapshots(heads, titleRows, s.loc)
	for _, d := range skipped {
		s.logger.Warn("skipping snapshot", "day", dayParam(day), "snapshot", d.Source, "reason", d.Reason)
	}
	return snaps, skipped, nil
}

func (s *SnapshotStore) loadTitles(ctx context.Context, ids []string) ([]titleRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, source_id, source_position, position, title, ranks, url, mobile_url
		FROM snapshot_titles
		WHERE snapshot_id = ANY($1::uuid[])
		ORDER BY snapshot_id, source_position, position
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load titles: %w", err)
	}
	defer rows.Close()

	var out []titleRow
	for rows.Next() {
		var r titleRow
		if err := rows.Scan(&r.snapshotID, &r.sourceID, &r.sourcePosition, &r.position,
			&r.title, pq.Array(&r.ranks), &r.url, &r.mobileURL); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// assembleSnapshots rebuilds snapshots from rows. Title rows must be grouped
// by snapshot and ordered by source and title position. A snapshot whose
// source names cannot be decoded is skipped whole.
func assembleSnapshots(heads []snapshotHead, rows []titleRow, loc *time.Location) ([]*domain.Snapshot, []domain.Diagnostic) {
	byID := make(map[string]*domain.Snapshot, len(heads))
	var skipped []domain.Diagnostic

	out := make([]*domain.Snapshot, 0, len(heads))
	for _, h := range heads {
		snap := domain.NewSnapshot(h.name, h.capturedAt.In(loc))
		if len(h.sourceNames) > 0 {
			if err := json.Unmarshal(h.sourceNames, &snap.Names); err != nil {
				skipped = append(skipped, domain.Diagnostic{
					Source: h.name,
					Reason: domain.ReasonUnreadable + ": " + err.Error(),
				})
				continue
			}
		}
		snap.FailedIDs = h.failedIDs
		byID[h.id] = snap
		out = append(out, snap)
	}

	for _, r := range rows {
		snap, ok := byID[r.snapshotID]
		if !ok {
			continue
		}
		ranks := make([]int, len(r.ranks))
		for i, rank := range r.ranks {
			ranks[i] = int(rank)
		}
		snap.Titles.Source(r.sourceID).Merge(&domain.TitleAggregate{
			Title:     r.title,
			Ranks:     ranks,
			URL:       r.url,
			MobileURL: r.mobileURL,
		})
	}

	return out, skipped
}

// flattenSnapshot turns a snapshot into title rows in source and title order.
func flattenSnapshot(id string, snap *domain.Snapshot) []titleRow {
	var rows []titleRow
	for sp, sourceID := range snap.Titles.IDs() {
		titles, _ := snap.Titles.Get(sourceID)
		for p, agg := range titles.All() {
			ranks := make([]int64, len(agg.Ranks))
			for i, rank := range agg.Ranks {
				ranks[i] = int64(rank)
			}
			rows = append(rows, titleRow{
				snapshotID:     id,
				sourceID:       sourceID,
				sourcePosition: sp,
				position:       p,
				title:          agg.Title,
				ranks:          ranks,
				url:            agg.URL,
				mobileURL:      agg.MobileURL,
			})
		}
	}
	return rows
}

// SaveSnapshot inserts a snapshot and its titles in one transaction.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, day time.Time, snap *domain.Snapshot) error {
	names, err := json.Marshal(snap.Names)
	if err != nil {
		return fmt.Errorf("encode source names: %w", err)
	}

	var doc bytes.Buffer
	if err := snapshot.Write(&doc, snapshot.FromSnapshot(snap)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	id := uuid.NewString()
	failed := snap.FailedIDs
	if failed == nil {
		failed = []string{}
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, day, name, captured_at, source_names, failed_ids, size_bytes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, dayParam(day), snap.Name, snap.CapturedAt, names, pq.Array(failed), doc.Len())
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", snap.Name, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshot_titles
				(snapshot_id, source_id, source_position, position, title, ranks, url, mobile_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`)
		if err != nil {
			return fmt.Errorf("prepare title insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range flattenSnapshot(id, snap) {
			if _, err := stmt.ExecContext(ctx, r.snapshotID, r.sourceID, r.sourcePosition, r.position,
				r.title, pq.Array(r.ranks), r.url, r.mobileURL); err != nil {
				return fmt.Errorf("insert title %q: %w", r.title, err)
			}
		}
		return nil
	})
}

// HasSnapshot reports whether the day already holds a snapshot with this name.
func (s *SnapshotStore) HasSnapshot(ctx context.Context, day time.Time, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM snapshots WHERE day = $1 AND name = $2)",
		dayParam(day), name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check snapshot %s: %w", name, err)
	}
	return exists, nil
}

// AvailableDates returns the stored days, oldest first.
func (s *SnapshotStore) AvailableDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT day FROM snapshots ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		out = append(out, dayFromColumn(d, s.loc))
	}
	return out, rows.Err()
}

// Stats summarises the stored archive.
func (s *SnapshotStore) Stats(ctx context.Context) (*domain.StoreStats, error) {
	var (
		oldest, latest sql.NullTime
		stats          = &domain.StoreStats{Backend: "postgres"}
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT day), MIN(day), MAX(day), COALESCE(SUM(size_bytes), 0)
		FROM snapshots
	`).Scan(&stats.Snapshots, &stats.Days, &oldest, &latest, &stats.SizeBytes)
	if err != nil {
		return nil, fmt.Errorf("snapshot stats: %w", err)
	}

	if oldest.Valid {
		stats.Oldest = dayParam(oldest.Time)
	}
	if latest.Valid {
		stats.Latest = dayParam(latest.Time)
	}
	return stats, nil
}
