package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/trendcore/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/trendcore/internal/adapters/driven/memory"
	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
	"github.com/custodia-labs/trendcore/internal/dates"
	"github.com/custodia-labs/trendcore/internal/runtime"
)

// archiveWorld holds the state of one scenario.
type archiveWorld struct {
	root    string
	repo    *SnapshotRepository
	news    driving.NewsService
	corpus  *domain.DailyCorpus
	skipped []domain.Diagnostic
	fresh   *domain.NewTitlesResult
}

func (w *archiveWorld) anEmptyArchive() error {
	root, err := os.MkdirTemp("", "trendcore-features-")
	if err != nil {
		return err
	}
	w.root = root

	now := func() time.Time { return time.Date(2025, 10, 13, 12, 0, 0, 0, time.UTC) }
	store := filesystem.NewStore(filesystem.Config{Root: root, Location: time.UTC})
	cache := NewResultCache(ResultCacheConfig{Backend: memory.NewCacheWithClock(now)})
	w.repo = NewSnapshotRepository(RepositoryConfig{
		Store:    store,
		Cache:    cache,
		Location: time.UTC,
		Now:      now,
	})
	w.news = NewNewsService(NewsServiceConfig{
		Repository: w.repo,
		Cache:      cache,
		Runtime:    runtime.NewServices(domain.NewRuntimeConfig("file", "memory")),
	})
	return nil
}

func (w *archiveWorld) dayDir(folder string) (string, error) {
	dir := filepath.Join(w.root, folder, "txt")
	return dir, os.MkdirAll(dir, 0o755)
}

func (w *archiveWorld) aSnapshotContaining(name, folder string, doc *godog.DocString) error {
	dir, err := w.dayDir(folder)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(doc.Content+"\n"), 0o644)
}

func (w *archiveWorld) anUnreadableSnapshot(name, folder string) error {
	dir, err := w.dayDir(folder)
	if err != nil {
		return err
	}
	return os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, name))
}

func (w *archiveWorld) theDayIsAggregated(folder string) error {
	d, err := dates.ParseFolderName(folder, time.UTC)
	if err != nil {
		return err
	}
	w.corpus, w.skipped, err = w.repo.Corpus(context.Background(), d, nil)
	return err
}

func (w *archiveWorld) sourceHasTitle(source, title, ranks, url string) error {
	tm, ok := w.corpus.Titles.Get(source)
	if !ok {
		return fmt.Errorf("source %q not in corpus", source)
	}
	agg, ok := tm.Get(title)
	if !ok {
		return fmt.Errorf("title %q not found under %q", title, source)
	}

	var want []int
	for _, part := range strings.Split(ranks, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		want = append(want, n)
	}
	if fmt.Sprint(agg.Ranks) != fmt.Sprint(want) {
		return fmt.Errorf("ranks of %q: want %v, got %v", title, want, agg.Ranks)
	}
	if agg.URL != url {
		return fmt.Errorf("url of %q: want %q, got %q", title, url, agg.URL)
	}
	return nil
}

func (w *archiveWorld) newTitlesAreDetected(folder string) error {
	d, err := dates.ParseFolderName(folder, time.UTC)
	if err != nil {
		return err
	}
	w.fresh, _, err = w.news.NewTitles(context.Background(), driving.NewTitlesRequest{DateQuery: dates.FormatISO(d)})
	return err
}

func (w *archiveWorld) theNewTitlesOfAre(source, list string) error {
	for _, p := range w.fresh.Platforms {
		if p.Platform != source {
			continue
		}
		var got []string
		for _, agg := range p.Titles {
			got = append(got, agg.Title)
		}
		if strings.Join(got, ",") != list {
			return fmt.Errorf("new titles of %q: want %q, got %q", source, list, strings.Join(got, ","))
		}
		if w.fresh.Total != len(got) {
			return fmt.Errorf("expected only %q to be new, total is %d", source, w.fresh.Total)
		}
		return nil
	}
	return fmt.Errorf("no new titles for %q", source)
}

func (w *archiveWorld) noNewTitlesAreReported() error {
	if w.fresh.Total != 0 {
		return fmt.Errorf("expected no new titles, got %d", w.fresh.Total)
	}
	return nil
}

func (w *archiveWorld) snapshotsAreReportedAsSkipped(n int) error {
	if len(w.skipped) != n {
		return fmt.Errorf("expected %d skipped snapshots, got %d", n, len(w.skipped))
	}
	return nil
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &archiveWorld{}

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if w.root != "" {
			_ = os.RemoveAll(w.root)
		}
		return ctx, err
	})

	sc.Step(`^an empty archive$`, w.anEmptyArchive)
	sc.Step(`^a snapshot "([^"]*)" captured on "([^"]*)" containing:$`, w.aSnapshotContaining)
	sc.Step(`^an unreadable snapshot "([^"]*)" on "([^"]*)"$`, w.anUnreadableSnapshot)
	sc.Step(`^the day "([^"]*)" is aggregated$`, w.theDayIsAggregated)
	sc.Step(`^source "([^"]*)" has title "([^"]*)" with ranks "([^"]*)" and url "([^"]*)"$`, w.sourceHasTitle)
	sc.Step(`^new titles are detected for "([^"]*)"$`, w.newTitlesAreDetected)
	sc.Step(`^the new titles of "([^"]*)" are "([^"]*)"$`, w.theNewTitlesOfAre)
	sc.Step(`^no new titles are reported$`, w.noNewTitlesAreReported)
	sc.Step(`^(\d+) snapshots? (?:is|are) reported as skipped$`, w.snapshotsAreReportedAsSkipped)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
