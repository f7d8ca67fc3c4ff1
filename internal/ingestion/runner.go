package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/catalog"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/lock"
	"grocery-price-lab/internal/logging"
	"grocery-price-lab/internal/observability"
	"grocery-price-lab/internal/storage"
)

// DefaultInterval is the ingestion cadence.
const DefaultInterval = 24 * time.Hour

// Source provides one catalog snapshot per cycle.
type Source interface {
	Fetch(ctx context.Context) (catalog.Batch, error)
}

// Runner drives scheduled ingestion cycles: lock, fetch, ingest, archive, record.
type Runner struct {
	engine   *Engine
	source   Source
	locker   lock.Locker
	archive  storage.PriceArchive // optional
	runs     storage.RunStore     // optional
	interval time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Engine   *Engine
	Source   Source
	Locker   lock.Locker          // Default: lock.NewLocal()
	Archive  storage.PriceArchive // Optional analytics sink
	Runs     storage.RunStore     // Optional run history
	Interval time.Duration        // Default: DefaultInterval
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	locker := opts.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		engine:   opts.Engine,
		source:   opts.Source,
		locker:   locker,
		archive:  opts.Archive,
		runs:     opts.Runs,
		interval: interval,
		logger:   logging.OrDiscard(opts.Logger).WithField("component", "ingestion_runner"),
		now:      now,
	}
}

// RunOnce executes a single ingestion cycle.
// A cycle that cannot obtain the lock is skipped and reported with RunStatusSkipped.
// A rejected batch is recorded as RunStatusFailed and its error returned; it is
// retried only by the next scheduled cycle.
func (r *Runner) RunOnce(ctx context.Context) (*domain.IngestionRun, error) {
	run := &domain.IngestionRun{
		RunID:     uuid.NewString(),
		StartedAt: r.now().UTC(),
	}
	log := r.logger.WithField("run_id", run.RunID)

	lease, err := r.locker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			log.Info("ingestion already running, skip")
			run.Status = domain.RunStatusSkipped
			run.CompletedAt = r.now().UTC()
			observability.RecordIngestionRun(run.Status, 0, observability.IngestionCounts{})
			return run, nil
		}
		return nil, fmt.Errorf("acquire ingestion lock: %w", err)
	}
	defer func() {
		// Release with a fresh context so a cancelled cycle still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			log.WithError(err).Warn("release ingestion lock failed")
		}
	}()

	batch, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	run.RecordsFetched = len(batch.Records)
	run.RecordsRejected = batch.Rejected

	res, ingestErr := r.engine.IngestRun(ctx, run.RunID, batch.Records)
	run.CompletedAt = r.now().UTC()
	run.ProductsInserted = res.ProductsInserted
	run.PricesInserted = res.PricesInserted
	run.ProductDuplicates = res.ProductDuplicates
	run.PriceDuplicates = res.PriceDuplicates
	if ingestErr != nil {
		run.Status = domain.RunStatusFailed
		run.ErrorText = ingestErr.Error()
	} else {
		run.Status = domain.RunStatusSuccess
		r.mirror(ctx, log, res.inserted)
	}

	observability.RecordIngestionRun(run.Status, run.CompletedAt.Sub(run.StartedAt), observability.IngestionCounts{
		ProductsInserted:  run.ProductsInserted,
		PricesInserted:    run.PricesInserted,
		ProductDuplicates: run.ProductDuplicates,
		PriceDuplicates:   run.PriceDuplicates,
		RecordsRejected:   run.RecordsRejected,
	})

	if r.runs != nil {
		if err := r.runs.Insert(ctx, run); err != nil {
			log.WithError(err).Warn("record ingestion run failed")
		}
	}

	return run, ingestErr
}

// mirror copies committed prices to the archive. Failures are logged only.
func (r *Runner) mirror(ctx context.Context, log logrus.FieldLogger, prices []*domain.PriceRecord) {
	if r.archive == nil || len(prices) == 0 {
		return
	}
	if err := r.archive.InsertBulk(ctx, prices); err != nil {
		observability.RecordArchiveFailure()
		log.WithError(err).WithField("prices", len(prices)).Warn("archive prices failed")
	}
}

// Run executes a cycle immediately and then on every interval tick.
// It blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.WithField("interval", r.interval.String()).Info("ingestion runner started")

	r.cycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("ingestion runner stopping")
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	run, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.WithError(err).Error("ingestion cycle failed")
		return
	}
	r.logger.WithFields(logrus.Fields{
		"run_id":            run.RunID,
		"status":            run.Status,
		"products_inserted": run.ProductsInserted,
		"prices_inserted":   run.PricesInserted,
	}).Info("ingestion cycle finished")
}
