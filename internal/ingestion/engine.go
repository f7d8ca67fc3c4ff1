package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/catalog"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/logging"
	"grocery-price-lab/internal/storage"
)

// Result summarizes one ingestion batch.
type Result struct {
	RunID             string `json:"run_id"`
	ProductsSeen      int    `json:"products_seen"`
	PricesSeen        int    `json:"prices_seen"`
	ProductsInserted  int    `json:"products_inserted"`
	PricesInserted    int    `json:"prices_inserted"`
	ProductDuplicates int    `json:"product_duplicates"`
	PriceDuplicates   int    `json:"price_duplicates"`

	inserted []*domain.PriceRecord // committed prices with surrogate ids
}

// Engine deduplicates catalog records against the fact store and appends the
// new facts in one atomic batch. Stored facts are never updated or removed.
type Engine struct {
	products storage.ProductStore
	prices   storage.PriceStore
	writer   storage.FactWriter
	logger   logrus.FieldLogger
}

// EngineOptions contains configuration for creating an Engine.
type EngineOptions struct {
	Products storage.ProductStore
	Prices   storage.PriceStore
	Writer   storage.FactWriter
	Logger   logrus.FieldLogger
}

// NewEngine creates a new ingestion engine over the given stores.
func NewEngine(opts EngineOptions) *Engine {
	return &Engine{
		products: opts.Products,
		prices:   opts.Prices,
		writer:   opts.Writer,
		logger:   logging.OrDiscard(opts.Logger).WithField("component", "ingestion"),
	}
}

// Ingest runs one batch under a fresh run id.
func (e *Engine) Ingest(ctx context.Context, batch []catalog.Record) (Result, error) {
	return e.IngestRun(ctx, uuid.NewString(), batch)
}

// IngestRun deduplicates and commits one batch.
//
// A product is dropped when its id is already stored or appeared earlier in the
// batch. A price is dropped when its (product id, price, starting_at, ending_at)
// tuple is already stored or appeared earlier in the batch. Any store failure
// rejects the whole batch with *domain.IngestionError.
func (e *Engine) IngestRun(ctx context.Context, runID string, batch []catalog.Record) (Result, error) {
	res := Result{RunID: runID, ProductsSeen: len(batch)}
	log := e.logger.WithField("run_id", runID)

	var (
		newProducts  []*domain.Product
		newPrices    []*domain.PriceRecord
		seenProducts = make(map[int64]struct{}, len(batch))
		seenPrices   = make(map[domain.PriceKey]struct{})
	)

	fail := func(err error) (Result, error) {
		return Result{RunID: runID}, &domain.IngestionError{
			RunID:    runID,
			Products: len(newProducts),
			Prices:   len(newPrices),
			Err:      err,
		}
	}

	for i := range batch {
		rec := &batch[i]

		if _, dup := seenProducts[rec.ID]; dup {
			res.ProductDuplicates++
		} else {
			seenProducts[rec.ID] = struct{}{}
			exists, err := e.products.Exists(ctx, rec.ID)
			if err != nil {
				return fail(fmt.Errorf("check product %d: %w", rec.ID, err))
			}
			if exists {
				res.ProductDuplicates++
			} else {
				newProducts = append(newProducts, rec.Product())
			}
		}

		for _, pr := range rec.PriceRecords() {
			res.PricesSeen++
			key := pr.Key()
			if _, dup := seenPrices[key]; dup {
				res.PriceDuplicates++
				continue
			}
			seenPrices[key] = struct{}{}

			exists, err := e.prices.Exists(ctx, key)
			if err != nil {
				return fail(fmt.Errorf("check price of product %d: %w", pr.ProductID, err))
			}
			if exists {
				res.PriceDuplicates++
				continue
			}
			newPrices = append(newPrices, pr)
		}
	}

	if err := e.writer.InsertBatch(ctx, newProducts, newPrices); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"products": len(newProducts),
			"prices":   len(newPrices),
		}).Error("ingestion batch rejected")
		return fail(err)
	}

	res.ProductsInserted = len(newProducts)
	res.PricesInserted = len(newPrices)
	res.inserted = newPrices

	log.WithFields(logrus.Fields{
		"products_inserted":  res.ProductsInserted,
		"prices_inserted":    res.PricesInserted,
		"product_duplicates": res.ProductDuplicates,
		"price_duplicates":   res.PriceDuplicates,
	}).Info("ingestion batch committed")

	return res, nil
}
