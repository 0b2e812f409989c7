package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/trendcore/internal/config"
	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
	"github.com/custodia-labs/trendcore/internal/dates"
)

var flagJSON bool

// cliApp builds the application quietly for one-shot commands: service
// logs go to stderr at warn level unless LOG_LEVEL asks for more.
func cliApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	logger := newLogger(level, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	// keep connection banners out of command output
	return withQuietLog(func() (*app, error) { return newApp(ctx, cfg, logger) })
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the snapshot archive",
	}
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print the result envelope as JSON")

	var (
		platforms  []string
		limit      int
		includeURL bool
	)
	addListFlags := func(c *cobra.Command) {
		c.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "restrict to platform ids (repeatable)")
		c.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results")
		c.Flags().BoolVar(&includeURL, "url", false, "include links")
	}

	latest := &cobra.Command{
		Use:   "latest",
		Short: "Show the latest snapshot of today",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, skipped, err := a.news.LatestNews(ctx, driving.LatestNewsRequest{
				Platforms: platforms, Limit: limit, IncludeURL: includeURL,
			})
			return render(out, res, skipped, err, func() error {
				return newsTable(res.News, includeURL).Render(out)
			})
		}),
	}
	addListFlags(latest)

	date := &cobra.Command{
		Use:   "date [expression]",
		Short: "Show the news of one day, e.g. 昨天, 3天前, 2025-10-10",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, skipped, err := a.news.NewsByDate(ctx, driving.NewsByDateRequest{
				DateQuery: firstArg(args), Platforms: platforms, Limit: limit, IncludeURL: includeURL,
			})
			return render(out, res, skipped, err, func() error {
				fmt.Fprintf(out, "%s: %d titles\n\n", res.Date, res.Total)
				return newsTable(res.News, includeURL).Render(out)
			})
		}),
	}
	addListFlags(date)

	var from, to string
	search := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search titles for a keyword over a date range",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			req := driving.SearchRequest{
				Keyword: args[0], Platforms: platforms, Limit: limit, IncludeURL: includeURL,
			}
			if from != "" || to != "" {
				req.DateRange = &domain.DateRange{Start: from, End: to}
			}
			res, skipped, err := a.news.Search(ctx, req)
			return render(out, res, skipped, err, func() error {
				fmt.Fprintf(out, "%q %s..%s: %d found in %d/%d days\n\n", res.Keyword,
					res.DateRange.Start, res.DateRange.End, res.TotalFound,
					res.Statistics.DaysWithData, res.Statistics.DaysSearched)
				return newsTable(res.Results, includeURL).Render(out)
			})
		}),
	}
	addListFlags(search)
	search.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	search.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")

	var (
		topN int
		mode string
	)
	topics := &cobra.Command{
		Use:   "topics",
		Short: "Count configured watch words in today's titles",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, skipped, err := a.news.TrendingTopics(ctx, driving.TrendingTopicsRequest{
				TopN: topN, Mode: domain.TopicMode(mode),
			})
			return render(out, res, skipped, err, func() error {
				tb := newTable("KEYWORD", "FREQUENCY", "TITLES")
				for _, t := range res.Topics {
					tb.Append(t.Keyword, strconv.Itoa(t.Frequency), strconv.Itoa(t.MatchedTitles))
				}
				fmt.Fprintf(out, "%s (%s)\n\n", res.Date, res.Mode)
				return tb.Render(out)
			})
		}),
	}
	topics.Flags().IntVar(&topN, "top", 0, "number of topics")
	topics.Flags().StringVar(&mode, "mode", "", "daily, current or incremental")

	newTitles := &cobra.Command{
		Use:   "new [expression]",
		Short: "Show titles first seen in the latest snapshot of a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, skipped, err := a.news.NewTitles(ctx, driving.NewTitlesRequest{
				DateQuery: firstArg(args), Platforms: platforms,
			})
			return render(out, res, skipped, err, func() error {
				tb := newTable("PLATFORM", "RANK", "TITLE")
				for _, p := range res.Platforms {
					for _, t := range p.Titles {
						tb.Append(p.PlatformName, strconv.Itoa(t.FirstRank()), t.Title)
					}
				}
				fmt.Fprintf(out, "%s %s: %d new\n\n", res.Date, res.Snapshot, res.Total)
				return tb.Render(out)
			})
		}),
	}
	newTitles.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "restrict to platform ids (repeatable)")

	resolve := &cobra.Command{
		Use:   "resolve <expression>",
		Short: "Resolve a natural-language date expression",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, err := a.news.ResolveDate(ctx, driving.ResolveDateRequest{Expression: args[0]})
			return render(out, res, nil, err, func() error {
				_, err := fmt.Fprintf(out, "%s -> %s (%s)\n", res.Expression, res.Date, res.Weekday)
				return err
			})
		}),
	}

	cmd.AddCommand(latest, date, search, topics, newTitles, resolve)
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show archive, cache and configuration status",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			st, err := a.news.Status(ctx)
			return render(out, st, nil, err, func() error {
				tb := newTable("FIELD", "VALUE")
				tb.Append("version", st.Version)
				tb.Append("snapshot backend", st.SnapshotBackend)
				tb.Append("archive", fmt.Sprintf("%s .. %s (%d days, %d snapshots)",
					st.Store.Oldest, st.Store.Latest, st.Store.Days, st.Store.Snapshots))
				tb.Append("cache", fmt.Sprintf("%s entries=%d hit_rate=%.2f", st.Cache.Backend, st.Cache.Entries, st.Cache.HitRate))
				tb.Append("word groups", strconv.Itoa(st.WordGroups))
				tb.Append("platforms", platformNames(st.Platforms))
				if st.LastIngest != nil {
					tb.Append("last ingest", st.LastIngest.Format(time.RFC3339))
				}
				return tb.Render(out)
			})
		}),
	}
	cmd.Flags().BoolVar(&flagJSON, "json", false, "print the result envelope as JSON")
	return cmd
}

func newIngestCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Copy crawler snapshots from the archive folder into the configured store",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			if a.ingest == nil {
				return fmt.Errorf("ingest needs SNAPSHOT_BACKEND=postgres or s3, have %s", a.cfg.SnapshotBackend)
			}

			var (
				report *driving.IngestReport
				err    error
			)
			if day == "" {
				report, err = a.ingest.IngestAll(ctx)
			} else {
				var d time.Time
				d, err = dates.Resolve(day, time.Now().In(a.cfg.Location))
				if err != nil {
					return err
				}
				report, err = a.ingest.IngestDay(ctx, d)
			}
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			_, err = fmt.Fprintf(out, "days=%d imported=%d skipped=%d failed=%d\n",
				report.Days, report.Imported, report.Skipped, report.Failed)
			return err
		}),
	}
	cmd.Flags().StringVar(&day, "date", "", "ingest a single day (date expression); default is every day")
	return cmd
}

func withQuietLog(fn func() (*app, error)) (*app, error) {
	prev := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prev)
	return fn()
}

type appFunc func(ctx context.Context, a *app, out io.Writer, args []string) error

func withApp(fn appFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := cliApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, cmd.OutOrStdout(), args)
	}
}

// render prints either the JSON envelope or the human form. Skipped
// snapshots are listed on stderr after a successful table.
func render(out io.Writer, data any, skipped []domain.Diagnostic, err error, human func() error) error {
	if flagJSON {
		env := domain.NewEnvelope(data, err)
		env.Skipped = skipped
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}

	if err != nil {
		body := domain.NewErrorBody(err)
		msg := fmt.Sprintf("%s: %s", body.Code, body.Message)
		if body.Suggestion != "" {
			msg += "\nhint: " + body.Suggestion
		}
		return fmt.Errorf("%s", msg)
	}

	if err := human(); err != nil {
		return err
	}
	for _, d := range skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", d.Source, d.Reason)
	}
	return nil
}

func newsTable(items []domain.NewsItem, includeURL bool) *table {
	headers := []string{"RANK", "TITLE", "PLATFORM", "DATE"}
	if includeURL {
		headers = append(headers, "URL")
	}
	tb := newTable(headers...)
	for _, n := range items {
		rank := strconv.Itoa(n.Rank)
		if n.AvgRank > 0 {
			rank = strconv.FormatFloat(n.AvgRank, 'f', 1, 64)
		}
		tb.Append(rank, n.Title, n.PlatformName, n.Date, n.URL)
	}
	return tb
}

func platformNames(ps []domain.Platform) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
