// Package config loads trendcore settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // archive dates use a named zone

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// Configuration validation errors.
var (
	ErrInvalidSnapshotBackend = errors.New("SNAPSHOT_BACKEND must be one of: file, postgres, s3")
	ErrInvalidCacheBackend    = errors.New("CACHE_BACKEND must be one of: memory, redis")
	ErrMissingDatabaseURL     = errors.New("DATABASE_URL is required for the postgres backend")
	ErrMissingBucket          = errors.New("S3_BUCKET is required for the s3 backend")
	ErrMissingRedisURL        = errors.New("REDIS_URL is required for the redis cache")
	ErrInvalidLogLevel        = errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	ErrInvalidLogFormat       = errors.New("LOG_FORMAT must be one of: text, json")
	ErrDuplicatePlatform      = errors.New("platform ids must be unique")
)

// Backend names
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// Config is the complete process configuration.
type Config struct {
	// Server
	Host           string
	Port           int
	AllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Archive
	ArchiveRoot     string
	Location        *time.Location
	ConfigFile      string
	SnapshotBackend string
	CacheBackend    string

	// Postgres
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Redis
	RedisURL string

	// S3
	S3 S3Config

	// Auth; an empty OperatorKey disables authentication
	OperatorKey string
	JWTSecret   string

	// Worker
	SchedulerEnabled      bool
	SchedulerLockRequired bool
	IngestSchedule        string
	ReloadInterval        time.Duration

	// File holds settings read from ConfigFile
	File File
}

// S3Config locates the snapshot bucket
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// File is the YAML configuration file.
type File struct {
	Platforms  []domain.Platform `yaml:"platforms"`
	WordGroups string            `yaml:"word_groups"`
	Cache      CacheTTLs         `yaml:"cache"`
}

// CacheTTLs overrides the freshness windows. Zero keeps the default.
type CacheTTLs struct {
	Latest        time.Duration `yaml:"latest"`
	ByDate        time.Duration `yaml:"by_date"`
	Topics        time.Duration `yaml:"topics"`
	CorpusToday   time.Duration `yaml:"corpus_today"`
	CorpusHistory time.Duration `yaml:"corpus_history"`
}

// Defaults
const (
	DefaultConfigFile     = "config/config.yaml"
	DefaultWordGroupsFile = "config/frequency_words.txt"
	DefaultArchiveRoot    = "output"
	DefaultTimezone       = "Asia/Shanghai"
	DefaultIngestSchedule = "@every 30m"
)

// Load reads .env (when present), the environment and the YAML file named
// by CONFIG_FILE. A missing YAML file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tz := getEnv("TZ_NAME", DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	cfg := &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnvInt("PORT", 8080),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		ArchiveRoot:     getEnv("ARCHIVE_ROOT", DefaultArchiveRoot),
		Location:        loc,
		ConfigFile:      getEnv("CONFIG_FILE", DefaultConfigFile),
		SnapshotBackend: strings.ToLower(getEnv("SNAPSHOT_BACKEND", BackendFile)),
		CacheBackend:    strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_SEC", 60)) * time.Second,

		RedisURL: getEnv("REDIS_URL", ""),

		S3: S3Config{
			Bucket:       getEnv("S3_BUCKET", ""),
			Prefix:       getEnv("S3_PREFIX", ""),
			Region:       getEnv("S3_REGION", ""),
			Endpoint:     getEnv("S3_ENDPOINT", ""),
			UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
		},

		OperatorKey: getEnv("OPERATOR_KEY", ""),
		JWTSecret:   getEnv("JWT_SECRET", "development-secret-change-in-production"),

		SchedulerEnabled:      getEnvBool("SCHEDULER_ENABLED", true),
		SchedulerLockRequired: getEnvBool("SCHEDULER_LOCK_REQUIRED", true),
		IngestSchedule:        getEnv("INGEST_SCHEDULE", DefaultIngestSchedule),
		ReloadInterval:        getEnvDuration("WORD_GROUPS_RELOAD_INTERVAL", time.Minute),
	}

	file, err := LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path := getEnv("WORD_GROUPS_FILE", ""); path != "" {
		file.WordGroups = path
	}
	if file.WordGroups == "" {
		file.WordGroups = DefaultWordGroupsFile
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses a YAML configuration file. A missing file yields an
// empty File.
func LoadFile(path string) (File, error) {
	var file File
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return file, nil
		}
		return file, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

// Validate checks backend selections and their required settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.SnapshotBackend {
	case BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, ErrMissingDatabaseURL)
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			errs = append(errs, ErrMissingBucket)
		}
	default:
		errs = append(errs, ErrInvalidSnapshotBackend)
	}

	switch c.CacheBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, ErrMissingRedisURL)
		}
	default:
		errs = append(errs, ErrInvalidCacheBackend)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ErrInvalidLogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, ErrInvalidLogFormat)
	}

	seen := make(map[string]bool, len(c.File.Platforms))
	for _, p := range c.File.Platforms {
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicatePlatform, p.ID))
		}
		seen[p.ID] = true
	}

	return errors.Join(errs...)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
