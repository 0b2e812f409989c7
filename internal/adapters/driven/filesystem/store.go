// Package filesystem reads snapshots from the crawler's output tree:
// <root>/<YYYY年MM月DD日>/txt/<name>.txt
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/dates"
	"github.com/custodia-labs/trendcore/internal/snapshot"
)

// Verify interface compliance
var (
	_ driven.SnapshotStore  = (*Store)(nil)
	_ driven.SnapshotWriter = (*Store)(nil)
)

const (
	txtDir   = "txt"
	txtExt   = ".txt"
	tmpExt   = ".tmp"
	dirMode  = 0o755
	fileMode = 0o644
)

// Config holds filesystem store settings
type Config struct {
	Root     string
	Location *time.Location
	Logger   *slog.Logger
}

// Store implements SnapshotStore over date folders on disk.
type Store struct {
	root   string
	loc    *time.Location
	logger *slog.Logger
}

// NewStore creates a filesystem snapshot store.
func NewStore(cfg Config) *Store {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{root: cfg.Root, loc: cfg.Location, logger: cfg.Logger}
}

// Root returns the archive root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) dayDir(day time.Time) string {
	return filepath.Join(s.root, dates.FolderName(day), txtDir)
}

// ListSnapshots parses every .txt file of the day in file-name order.
func (s *Store) ListSnapshots(ctx context.Context, day time.Time) ([]*domain.Snapshot, []domain.Diagnostic, error) {
	folder := dates.FolderName(day)
	dir := s.dayDir(day)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, domain.NewQueryError(domain.ErrNoData,
				fmt.Sprintf("no data directory for %s", folder),
				"run the crawler first or check the date")
		}
		return nil, nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), txtExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, nil, domain.NewQueryError(domain.ErrNoData,
			fmt.Sprintf("no snapshot files for %s", folder),
			"wait for the crawler to finish")
	}

	var (
		snapshots []*domain.Snapshot
		skipped   []domain.Diagnostic
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		snap, err := s.readFile(filepath.Join(dir, name), name)
		if err != nil {
			s.logger.Warn("skipping snapshot", "day", folder, "file", name, "error", err)
			skipped = append(skipped, domain.Diagnostic{
				Source: folder + "/" + name,
				Reason: domain.ReasonUnreadable + ": " + err.Error(),
			})
			continue
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, skipped, nil
}

func (s *Store) readFile(path, name string) (*domain.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	doc, err := snapshot.Parse(f)
	if err != nil {
		return nil, err
	}
	for _, d := range doc.Diagnostics {
		s.logger.Debug("skipped snapshot line", "file", name, "line", d.Line, "reason", d.Reason)
	}
	return doc.Snapshot(name, info.ModTime().In(s.loc)), nil
}

// AvailableDates scans the root for date folders that hold a txt directory.
func (s *Store) AvailableDates(ctx context.Context) ([]time.Time, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.root, err)
	}

	var out []time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		day, err := dates.ParseFolderName(e.Name(), s.loc)
		if err != nil {
			continue
		}
		if info, err := os.Stat(filepath.Join(s.root, e.Name(), txtDir)); err != nil || !info.IsDir() {
			continue
		}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Stats reports the date range and the total size of the archive.
func (s *Store) Stats(ctx context.Context) (*domain.StoreStats, error) {
	days, err := s.AvailableDates(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.StoreStats{Backend: "file", Days: len(days)}
	if len(days) > 0 {
		stats.Oldest = dates.FormatISO(days[0])
		stats.Latest = dates.FormatISO(days[len(days)-1])
	}

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.SizeBytes += info.Size()
		if strings.HasSuffix(d.Name(), txtExt) && filepath.Base(filepath.Dir(path)) == txtDir {
			stats.Snapshots++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	return stats, nil
}

// SaveSnapshot writes a snapshot file and sets its modification time to the
// capture time so that later reads recover it. The file is written under a
// temporary name and renamed into place, so readers never see partial content.
func (s *Store) SaveSnapshot(ctx context.Context, day time.Time, snap *domain.Snapshot) error {
	dir := s.dayDir(day)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	name := snap.Name
	if !strings.HasSuffix(name, txtExt) {
		name += txtExt
	}
	path := filepath.Join(dir, name)

	f, err := os.CreateTemp(dir, "."+name+".*"+tmpExt)
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op once renamed

	if err := snapshot.Write(f, snapshot.FromSnapshot(snap)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Chmod(fileMode); err != nil {
		f.Close()
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if !snap.CapturedAt.IsZero() {
		if err := os.Chtimes(tmp, snap.CapturedAt, snap.CapturedAt); err != nil {
			return fmt.Errorf("set times on %s: %w", tmp, err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// HasSnapshot reports whether the day already has a file with this name.
func (s *Store) HasSnapshot(ctx context.Context, day time.Time, name string) (bool, error) {
	if !strings.HasSuffix(name, txtExt) {
		name += txtExt
	}
	_, err := os.Stat(filepath.Join(s.dayDir(day), name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
