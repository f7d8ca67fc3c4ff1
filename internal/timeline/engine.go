// Package timeline reconstructs a product's day-by-day price history from
// possibly overlapping price validity intervals.
package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/logging"
	"grocery-price-lab/internal/observability"
	"grocery-price-lab/internal/storage"
)

// Engine reconstructs price timelines. It is read-only and safe for concurrent use.
type Engine struct {
	prices storage.PriceStore
	logger logrus.FieldLogger
	now    func() time.Time
}

// Options contains configuration for creating an Engine.
type Options struct {
	Prices storage.PriceStore
	Logger logrus.FieldLogger
	Now    func() time.Time // Default: time.Now
}

// NewEngine creates a new timeline engine.
func NewEngine(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		prices: opts.Prices,
		logger: logging.OrDiscard(opts.Logger).WithField("component", "timeline"),
		now:    now,
	}
}

// Reconstruct resolves one snapshot per day in the window.
// Returns domain.ErrNotFound if the product has no price records at all.
func (e *Engine) Reconstruct(ctx context.Context, productID int64, w Window) (tl *domain.Timeline, err error) {
	started := time.Now()
	defer func() {
		observability.RecordQuery("timeline", "reconstruct", time.Since(started).Seconds(), err)
	}()

	today := truncateDay(e.now())
	start, end, err := w.resolve(today)
	if err != nil {
		return nil, err
	}

	records, err := e.prices.GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load prices of product %d: %w", productID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("product %d has no prices: %w", productID, domain.ErrNotFound)
	}

	tl = Build(productID, records, start, end, today)

	e.logger.WithFields(logrus.Fields{
		"product_id": productID,
		"records":    len(records),
		"days":       len(tl.Days),
	}).Debug("timeline reconstructed")

	return tl, nil
}

// Build resolves the snapshot of every day in [start, end) and computes the aggregates.
// Days no record covers are omitted.
func Build(productID int64, records []*domain.PriceRecord, start, end, today time.Time) *domain.Timeline {
	tl := &domain.Timeline{
		ProductID:   productID,
		PriceOnDate: make(map[string]domain.Snapshot),
	}

	emitted := make([]float64, 0)
	var current *domain.Snapshot

	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		winner := resolveDay(records, d)
		if winner == nil {
			continue
		}

		snap := domain.SnapshotOf(winner)
		key := d.Format(domain.DayLayout)
		tl.PriceOnDate[key] = snap
		tl.Days = append(tl.Days, key)
		emitted = append(emitted, snap.Price)

		if tl.LowestPrice == nil || snap.Price < *tl.LowestPrice {
			p := snap.Price
			tl.LowestPrice = &p
		}
		// Days ascend, so the last day not after today is the current one.
		if !d.After(today) {
			s := snap
			current = &s
		}
	}

	tl.AvgPrice = domain.Mean2(emitted)
	tl.CurrentPrice = current
	return tl
}

// resolveDay returns the record in force on day d, or nil if none covers it.
func resolveDay(records []*domain.PriceRecord, d time.Time) *domain.PriceRecord {
	var best *domain.PriceRecord
	for _, r := range records {
		if !r.Covers(d) {
			continue
		}
		if best == nil || preferred(r, best) {
			best = r
		}
	}
	return best
}

// preferred reports whether a beats b for the same day: the shorter validity
// interval wins; equal intervals fall back to the later LoggedOn, then the later
// StartingAt, then the higher id.
func preferred(a, b *domain.PriceRecord) bool {
	if da, db := a.Duration(), b.Duration(); da != db {
		return da < db
	}
	if !a.LoggedOn.Equal(b.LoggedOn) {
		return a.LoggedOn.After(b.LoggedOn)
	}
	if !a.StartingAt.Equal(b.StartingAt) {
		return a.StartingAt.After(b.StartingAt)
	}
	return a.ID > b.ID
}
