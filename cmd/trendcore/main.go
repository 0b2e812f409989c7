package main

// @title           trendcore API
// @version         1.0
// @description     Query layer over an archive of trending-news snapshots. Exposes latest, by-date, search, trending-topic and new-title tools.

// @contact.name   trendcore maintainers
// @contact.url    https://github.com/custodia-labs/trendcore/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/trendcore/internal/adapters/driving/http"
	"github.com/custodia-labs/trendcore/internal/config"
	"github.com/custodia-labs/trendcore/internal/worker"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "trendcore",
		Short:        "Trending-news archive query service",
		Long:         "trendcore answers queries over archived hot-list snapshots: latest news, news by date, keyword search, trending topics and new titles.",
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd("api", "Run the HTTP tool API", runAPI),
		newServeCmd("worker", "Run scheduled ingestion and word-group reloads", runWorker),
		newServeCmd("all", "Run the API and the worker", runAll),
		newQueryCmd(),
		newStatusCmd(),
		newIngestCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "trendcore %s\n", version)
			},
		},
	)
	return root
}

type serveFunc func(ctx context.Context, a *app) error

func newServeCmd(use, short string, run serveFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("trendcore %s starting in %s mode", version, use)

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return run(ctx, a)
		},
	}
}

// bootstrap loads configuration, installs the default logger and builds
// the application graph.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	return newApp(ctx, cfg, logger)
}

func runAPI(ctx context.Context, a *app) error {
	server := http.NewServer(http.Config{
		Host:           a.cfg.Host,
		Port:           a.cfg.Port,
		Version:        version,
		AllowedOrigins: a.cfg.AllowedOrigins,
		Metrics:        a.metrics.Handler(),
		Observer:       a.metrics,
		Logger:         a.logger,
	}, a.news, a.auth, a.checks)

	log.Printf("API server starting on %s", server.Addr())
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Println("API server stopped")
	return nil
}

func runWorker(ctx context.Context, a *app) error {
	w := worker.NewWorker(worker.WorkerConfig{
		Scheduler:      a.scheduler,
		Runtime:        a.runtime,
		Lock:           a.lock,
		Logger:         a.logger,
		ReloadInterval: a.cfg.ReloadInterval,
	})

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	log.Println("Worker started")
	if a.scheduler != nil {
		log.Printf("  - ingest: %s", a.cfg.IngestSchedule)
	}
	log.Printf("  - word group reload: every %s", a.cfg.ReloadInterval)

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
	return nil
}

func runAll(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- runWorker(ctx, a) }()

	apiErr := runAPI(ctx, a)
	cancel()
	workerErr := <-errCh
	if apiErr != nil {
		return apiErr
	}
	return workerErr
}
