package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/catalog"
	"grocery-price-lab/internal/catalog/stub"
	"grocery-price-lab/internal/deals"
	"grocery-price-lab/internal/ingestion"
	"grocery-price-lab/internal/lock"
	"grocery-price-lab/internal/storage"
	chstore "grocery-price-lab/internal/storage/clickhouse"
	"grocery-price-lab/internal/storage/memory"
	"grocery-price-lab/internal/storage/migrations"
	pgstore "grocery-price-lab/internal/storage/postgres"
	"grocery-price-lab/internal/timeline"
)

// LockKey is the Redis key that serializes ingestion across processes.
const LockKey = "grocery-price-lab:ingestion"

// Stores holds the storage implementations selected by Config.
type Stores struct {
	Products storage.ProductStore
	Prices   storage.PriceStore
	Writer   storage.FactWriter
	Runs     storage.RunStore
	Archive  storage.PriceArchive // nil when no archive is configured

	closers []func()
}

// NewMemoryStores creates in-memory stores, including an in-memory archive.
func NewMemoryStores() *Stores {
	s := memory.NewStore()
	return &Stores{
		Products: memory.NewProductStore(s),
		Prices:   memory.NewPriceStore(s),
		Writer:   s,
		Runs:     memory.NewRunStore(),
		Archive:  memory.NewPriceArchive(),
	}
}

// OpenStores connects to PostgreSQL (and ClickHouse when configured) and applies
// migrations. With UseMemory it returns NewMemoryStores.
func OpenStores(ctx context.Context, cfg Config, logger logrus.FieldLogger) (*Stores, error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		return NewMemoryStores(), nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	logger.WithField("applied", applied).Info("postgres ready")

	s := &Stores{
		Products: pgstore.NewProductStore(pool),
		Prices:   pgstore.NewPriceStore(pool),
		Writer:   pgstore.NewFactWriter(pool),
		Runs:     pgstore.NewRunStore(pool),
		closers:  []func(){pool.Close},
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.Archive = chstore.NewPriceArchiveStore(conn)
		s.closers = append(s.closers, func() { _ = conn.Close() })
		logger.Info("clickhouse price archive ready")
	}

	return s, nil
}

// Close releases every connection in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// NewSource builds the catalog source: the demo catalog in memory mode, the HTTP API otherwise.
func NewSource(cfg Config, logger logrus.FieldLogger, now func() time.Time) *catalog.Source {
	var client catalog.Client
	if cfg.UseMemory {
		client = stub.NewDemoClient(now())
	} else {
		client = catalog.NewHTTPClient(cfg.CatalogBaseURL)
	}
	return catalog.NewSource(client, catalog.SourceOptions{
		Concurrency: cfg.Concurrency,
		Logger:      logger,
		Now:         now,
	})
}

// NewLocker returns a Redis lock when RedisURL is set, else an in-process lock.
// The returned func releases the Redis connection.
func NewLocker(ctx context.Context, cfg Config) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return lock.NewLocal(), func() {}, nil
	}
	rdb, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedis(rdb, LockKey, 0), func() { _ = rdb.Close() }, nil
}

// Engines bundles the engines built over one set of stores.
type Engines struct {
	Ingestion *ingestion.Engine
	Timeline  *timeline.Engine
	Deals     *deals.Engine
}

// NewEngines builds every engine over s.
func NewEngines(s *Stores, logger logrus.FieldLogger, now func() time.Time) Engines {
	return Engines{
		Ingestion: ingestion.NewEngine(ingestion.EngineOptions{
			Products: s.Products,
			Prices:   s.Prices,
			Writer:   s.Writer,
			Logger:   logger,
		}),
		Timeline: timeline.NewEngine(timeline.Options{Prices: s.Prices, Logger: logger, Now: now}),
		Deals:    deals.NewEngine(deals.Options{Products: s.Products, Prices: s.Prices, Logger: logger, Now: now}),
	}
}

// NewRunner builds the scheduled ingestion runner over s.
func NewRunner(cfg Config, s *Stores, e Engines, locker lock.Locker, logger logrus.FieldLogger, now func() time.Time) *ingestion.Runner {
	return ingestion.NewRunner(ingestion.RunnerOptions{
		Engine:   e.Ingestion,
		Source:   NewSource(cfg, logger, now),
		Locker:   locker,
		Archive:  s.Archive,
		Runs:     s.Runs,
		Interval: cfg.IngestInterval,
		Logger:   logger,
		Now:      now,
	})
}
