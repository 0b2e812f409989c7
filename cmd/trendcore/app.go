package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/trendcore/internal/adapters/driven/auth"
	"github.com/custodia-labs/trendcore/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/trendcore/internal/adapters/driven/memory"
	"github.com/custodia-labs/trendcore/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/trendcore/internal/adapters/driven/redis"
	s3adapter "github.com/custodia-labs/trendcore/internal/adapters/driven/s3"
	"github.com/custodia-labs/trendcore/internal/adapters/driving/http"
	"github.com/custodia-labs/trendcore/internal/config"
	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
	"github.com/custodia-labs/trendcore/internal/core/services"
	"github.com/custodia-labs/trendcore/internal/metrics"
	"github.com/custodia-labs/trendcore/internal/runtime"
)

// namespace prefixes redis keys and postgres advisory lock ids
const namespace = "trendcore"

// app is the wired application graph shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	runtime *runtime.Services
	metrics *metrics.Metrics

	store  driven.SnapshotStore
	writer driven.SnapshotWriter // nil for the file backend
	source driven.SnapshotStore  // crawler output folder, ingest source
	lock   driven.DistributedLock
	checks map[string]http.Pinger

	news      driving.NewsService
	auth      driving.AuthService
	ingest    driving.IngestService // nil without a writer
	scheduler *services.Scheduler   // nil when disabled or without a writer

	closers []func()
}

// pingFunc adapts a function to http.Pinger
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewMetrics(),
		checks:  make(map[string]http.Pinger),
	}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	// ===== Runtime =====
	a.runtime = runtime.NewServices(domain.NewRuntimeConfig(cfg.SnapshotBackend, cfg.CacheBackend))
	if err := a.runtime.LoadWordGroups(cfg.File.WordGroups); err != nil {
		return nil, err
	}
	log.Printf("Word groups: %d loaded from %s", a.runtime.Config().WordGroups(), cfg.File.WordGroups)

	// ===== Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.checks["redis"] = pingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		log.Println("Redis connected")
	}

	// ===== Snapshot store =====
	a.source = filesystem.NewStore(filesystem.Config{Root: cfg.ArchiveRoot, Location: cfg.Location, Logger: logger})

	var db *postgres.DB
	switch cfg.SnapshotBackend {
	case config.BackendPostgres:
		var err error
		db, err = postgres.Connect(ctx, postgres.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := db.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		store := postgres.NewSnapshotStore(db, cfg.Location, logger)
		a.store, a.writer = store, store
		a.checks["postgres"] = db
		log.Println("Using PostgreSQL snapshot store")

	case config.BackendS3:
		s3cfg := s3adapter.Config{
			Bucket:       cfg.S3.Bucket,
			Prefix:       cfg.S3.Prefix,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
			Location:     cfg.Location,
			Logger:       logger,
		}
		client, err := s3adapter.NewClient(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		store := s3adapter.NewStore(client, s3cfg)
		a.store, a.writer = store, store
		log.Printf("Using S3 snapshot store (bucket=%s)", cfg.S3.Bucket)

	default:
		a.store = a.source
		log.Printf("Using file snapshot store (root=%s)", cfg.ArchiveRoot)
	}

	// ===== Freshness cache =====
	var backend driven.FreshnessCache
	if cfg.CacheBackend == config.BackendRedis {
		backend = redisadapter.NewCache(redisClient, namespace)
		log.Println("Using Redis cache")
	} else {
		backend = memory.NewCache()
		log.Println("Using in-memory cache")
	}

	// ===== Distributed lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	switch {
	case redisClient != nil:
		a.lock = redisadapter.NewLock(redisClient, namespace)
	case db != nil:
		a.lock = postgres.NewAdvisoryLock(db, namespace)
	}

	// ===== Services =====
	ttls := cfg.File.Cache
	resultCache := services.NewResultCache(services.ResultCacheConfig{
		Backend:  backend,
		Observer: a.metrics,
		Logger:   logger,
	})
	repo := services.NewSnapshotRepository(services.RepositoryConfig{
		Store:      a.store,
		Cache:      resultCache,
		TodayTTL:   ttls.CorpusToday,
		HistoryTTL: ttls.CorpusHistory,
		Location:   cfg.Location,
		Observer:   a.metrics,
		Logger:     logger,
	})
	a.news = services.NewNewsService(services.NewsServiceConfig{
		Repository: repo,
		Cache:      resultCache,
		Runtime:    a.runtime,
		Platforms:  cfg.File.Platforms,
		TTLs: services.QueryTTLs{
			Latest: ttls.Latest,
			ByDate: ttls.ByDate,
			Topics: ttls.Topics,
		},
		Version: version,
		Logger:  logger,
	})

	authService, err := services.NewAuthService(auth.NewAdapter(cfg.JWTSecret), cfg.OperatorKey)
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	a.auth = authService
	log.Printf("Authentication enabled=%t", authService.Enabled())

	if a.writer != nil {
		a.ingest = services.NewIngestService(services.IngestServiceConfig{
			Source:   a.source,
			Target:   a.writer,
			Runtime:  a.runtime.Config(),
			Observer: a.metrics,
			Logger:   logger,
		})

		if cfg.SchedulerEnabled {
			a.scheduler = services.NewScheduler(services.SchedulerConfig{
				Ingest:       a.ingest,
				News:         a.news,
				Lock:         a.lock,
				Logger:       logger,
				Schedule:     cfg.IngestSchedule,
				LockRequired: cfg.SchedulerLockRequired,
			})
			log.Printf("Scheduler enabled (schedule=%s, lock_required=%t)", cfg.IngestSchedule, cfg.SchedulerLockRequired)
		} else {
			log.Println("Scheduler disabled via SCHEDULER_ENABLED=false")
		}
	}

	ok = true
	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
