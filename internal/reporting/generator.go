// Package reporting renders deal snapshots as Markdown, CSV and XLSX files.
package reporting

import (
	"context"
	"fmt"
	"time"

	"grocery-price-lab/internal/deals"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/observability"
)

// DealViews is the subset of the deals engine a report is built from.
type DealViews interface {
	ByDepartment(ctx context.Context, asOf time.Time) ([]*domain.DepartmentDeals, error)
	Top(ctx context.Context, asOf time.Time, n int) ([]*domain.Deal, error)
	AboveThreshold(ctx context.Context, asOf time.Time, pct float64) ([]*domain.Deal, error)
}

// Generator produces reports from the deal views.
type Generator struct {
	deals     DealViews
	topN      int
	threshold float64
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator with the default top size and threshold.
func NewGenerator(views DealViews) *Generator {
	return &Generator{
		deals:     views,
		topN:      deals.DefaultTopN,
		threshold: deals.DefaultThreshold,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopN sets the number of deals in the top list.
func (g *Generator) WithTopN(n int) *Generator {
	if n > 0 {
		g.topN = n
	}
	return g
}

// WithThreshold sets the percent threshold.
func (g *Generator) WithThreshold(pct float64) *Generator {
	if pct > 0 {
		g.threshold = pct
	}
	return g
}

// Generate builds a report of the deals active at asOf. A zero asOf means now.
func (g *Generator) Generate(ctx context.Context, asOf time.Time) (*Report, error) {
	if asOf.IsZero() {
		asOf = g.now()
	}

	depts, err := g.deals.ByDepartment(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("department deals: %w", err)
	}
	top, err := g.deals.Top(ctx, asOf, g.topN)
	if err != nil {
		return nil, fmt.Errorf("top deals: %w", err)
	}
	above, err := g.deals.AboveThreshold(ctx, asOf, g.threshold)
	if err != nil {
		return nil, fmt.Errorf("threshold deals: %w", err)
	}

	observability.RecordReportGenerated()

	return &Report{
		GeneratedAt:    g.now(),
		AsOf:           asOf,
		TopN:           g.topN,
		Threshold:      g.threshold,
		Summary:        summarize(depts, top),
		Departments:    depts,
		Top:            top,
		AboveThreshold: above,
	}, nil
}

func summarize(depts []*domain.DepartmentDeals, top []*domain.Deal) Summary {
	s := Summary{DepartmentCount: len(depts)}
	for _, d := range depts {
		s.DealCount += len(d.BestDeals)
		// BestDeals are sorted by percent desc.
		if len(d.BestDeals) > 0 && d.BestDeals[0].DifferencePercent > s.BestPercent {
			s.BestPercent = d.BestDeals[0].DifferencePercent
		}
	}
	if len(top) > 0 {
		s.BestAmount = top[0].DifferenceAmount
	}
	return s
}
