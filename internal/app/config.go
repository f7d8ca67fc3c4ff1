// Package app wires configuration, stores and collaborators for the binaries.
package app

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/catalog"
	"grocery-price-lab/internal/ingestion"
	"grocery-price-lab/internal/logging"
)

// Environment keys read as flag defaults.
const (
	EnvPostgresDSN    = "POSTGRES_DSN"
	EnvClickhouseDSN  = "CLICKHOUSE_DSN"
	EnvRedisURL       = "REDIS_URL"
	EnvCatalogBaseURL = "CATALOG_BASE_URL"
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvIngestInterval = "INGEST_INTERVAL"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFile        = "LOG_FILE"
)

// Config holds the settings shared by all binaries.
type Config struct {
	PostgresDSN    string
	ClickhouseDSN  string // optional price archive
	RedisURL       string // optional cross-process ingestion lock
	CatalogBaseURL string
	HTTPAddr       string
	IngestInterval time.Duration
	Concurrency    int
	LogLevel       string
	LogFile        string
	UseMemory      bool
}

// LoadEnv reads .env from the working directory if present.
// Variables already set in the environment win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// RegisterFlags binds the config to flags, using environment variables as defaults.
func (c *Config) RegisterFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.PostgresDSN, "postgres-dsn", os.Getenv(EnvPostgresDSN), "PostgreSQL connection string")
	flags.StringVar(&c.ClickhouseDSN, "clickhouse-dsn", os.Getenv(EnvClickhouseDSN), "ClickHouse connection string for the price archive (optional)")
	flags.StringVar(&c.RedisURL, "redis-url", os.Getenv(EnvRedisURL), "Redis URL for the ingestion lock (optional)")
	flags.StringVar(&c.CatalogBaseURL, "catalog-url", envOr(EnvCatalogBaseURL, catalog.DefaultBaseURL), "Catalog API base URL")
	flags.StringVar(&c.HTTPAddr, "http-addr", envOr(EnvHTTPAddr, ":8080"), "HTTP listen address")
	flags.DurationVar(&c.IngestInterval, "ingest-interval", envDuration(EnvIngestInterval, ingestion.DefaultInterval), "Ingestion cycle interval")
	flags.IntVar(&c.Concurrency, "concurrency", catalog.DefaultConcurrency, "Concurrent catalog department requests")
	flags.StringVar(&c.LogLevel, "log-level", envOr(EnvLogLevel, "info"), "Log level (debug, info, warn, error)")
	flags.StringVar(&c.LogFile, "log-file", os.Getenv(EnvLogFile), "Rotated log file (optional)")
	flags.BoolVar(&c.UseMemory, "use-memory", false, "Use in-memory storage and the demo catalog instead of PostgreSQL")
}

// Validate checks that the settings needed by the chosen mode are present.
func (c *Config) Validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return errors.New("--postgres-dsn is required (or use --use-memory)")
	}
	if c.IngestInterval <= 0 {
		return fmt.Errorf("--ingest-interval must be positive, got %s", c.IngestInterval)
	}
	return nil
}

// Logger builds the process logger from the log settings.
func (c *Config) Logger() (*logrus.Logger, error) {
	return logging.New(logging.Options{Level: c.LogLevel, File: c.LogFile})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Plain numbers are seconds.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
