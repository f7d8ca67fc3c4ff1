// Package deals derives discount deals by matching active advertised prices to
// regular prices, and ranks them per department and overall.
package deals

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

// Defaults for the ranked views.
const (
	DefaultTopN      = 10
	DefaultThreshold = 50.0
)

// Engine computes deal views on demand. Nothing is cached; every call reads the store.
// It is read-only and safe for concurrent use.
type Engine struct {
	products storage.ProductStore
	prices   storage.PriceStore
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Options contains configuration for creating an Engine.
type Options struct {
	Products storage.ProductStore
	Prices   storage.PriceStore
	Logger   logrus.FieldLogger
	Now      func() time.Time // Default: time.Now
}

// NewEngine creates a new deals engine.
func NewEngine(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		products: opts.Products,
		prices:   opts.Prices,
		logger:   logging.OrDiscard(opts.Logger).WithField("component", "deals"),
		now:      now,
	}
}

// Now returns the engine clock in UTC.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// Deals returns every deal active at asOf, optionally restricted to one department,
// in (department id, product id) order.
func (e *Engine) Deals(ctx context.Context, asOf time.Time, departmentID *int64) ([]*domain.Deal, error) {
	active, err := e.prices.GetActiveAdvertised(ctx, asOf, departmentID)
	if err != nil {
		return nil, fmt.Errorf("load active advertised prices: %w", err)
	}
	if len(active) == 0 {
		return []*domain.Deal{}, nil
	}

	ids := make([]int64, 0, len(active))
	seen := make(map[int64]struct{}, len(active))
	for _, ap := range active {
		if _, ok := seen[ap.Product.ID]; ok {
			continue
		}
		seen[ap.Product.ID] = struct{}{}
		ids = append(ids, ap.Product.ID)
	}

	records, err := e.prices.GetByProductIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	history := make(map[int64][]*domain.PriceRecord, len(ids))
	for _, r := range records {
		history[r.ProductID] = append(history[r.ProductID], r)
	}

	return derive(active, history), nil
}

// ByDepartment summarizes every department that has price data, ordered by department id.
// Each summary carries the department's price statistics, the average difference over
// its percent-eligible deals (0 when there are none) and its deals by percent desc.
func (e *Engine) ByDepartment(ctx context.Context, asOf time.Time) (out []*domain.DepartmentDeals, err error) {
	defer e.observe("by_department", time.Now(), &err)

	stats, err := e.prices.DepartmentStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load department stats: %w", err)
	}
	all, err := e.Deals(ctx, asOf, nil)
	if err != nil {
		return nil, err
	}

	byDept := make(map[int64][]*domain.Deal)
	for _, d := range percentEligible(all) {
		byDept[d.DepartmentID] = append(byDept[d.DepartmentID], d)
	}

	out = make([]*domain.DepartmentDeals, 0, len(stats))
	for _, st := range stats {
		deals := byDept[st.DepartmentID]
		if deals == nil {
			deals = []*domain.Deal{}
		}
		sortByPercent(deals)
		avgAmount, avgPercent := averages(deals)

		out = append(out, &domain.DepartmentDeals{
			DepartmentID:         st.DepartmentID,
			DepartmentName:       st.DepartmentName,
			AvgPrice:             domain.Round2(st.AvgPrice),
			MinPrice:             st.MinPrice,
			MaxPrice:             st.MaxPrice,
			AvgDifferenceAmount:  avgAmount,
			AvgDifferencePercent: avgPercent,
			BestDeals:            deals,
		})
	}
	return out, nil
}

// ForDepartment returns the department's deals by difference amount desc.
// Returns domain.ErrNotFound if the department has no products.
func (e *Engine) ForDepartment(ctx context.Context, departmentID int64, asOf time.Time) (deals []*domain.Deal, err error) {
	defer e.observe("for_department", time.Now(), &err)

	n, err := e.products.CountByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("count products of department %d: %w", departmentID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("department %d: %w", departmentID, domain.ErrNotFound)
	}

	deals, err = e.Deals(ctx, asOf, &departmentID)
	if err != nil {
		return nil, err
	}
	sortByAmount(deals)
	return deals, nil
}

// Top returns the n deals with the largest difference amount. n <= 0 means DefaultTopN.
func (e *Engine) Top(ctx context.Context, asOf time.Time, n int) (deals []*domain.Deal, err error) {
	defer e.observe("top", time.Now(), &err)

	if n <= 0 {
		n = DefaultTopN
	}
	deals, err = e.Deals(ctx, asOf, nil)
	if err != nil {
		return nil, err
	}
	sortByAmount(deals)
	if len(deals) > n {
		deals = deals[:n]
	}
	return deals, nil
}

// AboveThreshold returns the percent-eligible deals whose difference percent is at
// least pct, by percent desc.
func (e *Engine) AboveThreshold(ctx context.Context, asOf time.Time, pct float64) (out []*domain.Deal, err error) {
	defer e.observe("above_threshold", time.Now(), &err)

	deals, err := e.Deals(ctx, asOf, nil)
	if err != nil {
		return nil, err
	}
	out = make([]*domain.Deal, 0)
	for _, d := range percentEligible(deals) {
		if d.DifferencePercent >= pct {
			out = append(out, d)
		}
	}
	sortByPercent(out)
	return out, nil
}

// Advertised returns the distinct products with an advertised price active at asOf,
// ordered by department id, then product id.
func (e *Engine) Advertised(ctx context.Context, asOf time.Time) (out []*domain.Product, err error) {
	defer e.observe("advertised", time.Now(), &err)

	active, err := e.prices.GetActiveAdvertised(ctx, asOf, nil)
	if err != nil {
		return nil, fmt.Errorf("load active advertised prices: %w", err)
	}
	out = make([]*domain.Product, 0, len(active))
	seen := make(map[int64]struct{}, len(active))
	for _, ap := range active {
		if _, ok := seen[ap.Product.ID]; ok {
			continue
		}
		seen[ap.Product.ID] = struct{}{}
		out = append(out, ap.Product)
	}
	return out, nil
}

func (e *Engine) observe(op string, started time.Time, err *error) {
	observability.RecordQuery("deals", op, time.Since(started).Seconds(), *err)
	if *err != nil {
		e.logger.WithError(*err).WithField("operation", op).Debug("deals query failed")
	}
}
