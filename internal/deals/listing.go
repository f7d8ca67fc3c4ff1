package deals

import (
	"context"
	"time"

	"grocery-price-lab/internal/domain"
)

// Query selects a deals listing. A zero AsOf means now.
type Query struct {
	DepartmentID *int64
	AsOf         time.Time
	TopN         int     // Default: DefaultTopN
	Threshold    float64 // Default: DefaultThreshold
}

// Listing is the result of ListDeals. Without a department filter it holds the
// department summaries, the top deals and the threshold deals; with one it holds
// only that department's deals.
type Listing struct {
	AsOf        time.Time                 `json:"as_of"`
	Departments []*domain.DepartmentDeals `json:"departments,omitempty"`
	Top         []*domain.Deal            `json:"top,omitempty"`
	Threshold   []*domain.Deal            `json:"threshold,omitempty"`
	Department  []*domain.Deal            `json:"department,omitempty"`
}

// ListDeals answers a deals query.
func (e *Engine) ListDeals(ctx context.Context, q Query) (*Listing, error) {
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = e.Now()
	}
	l := &Listing{AsOf: asOf}

	if q.DepartmentID != nil {
		deals, err := e.ForDepartment(ctx, *q.DepartmentID, asOf)
		if err != nil {
			return nil, err
		}
		l.Department = deals
		return l, nil
	}

	threshold := q.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var err error
	if l.Departments, err = e.ByDepartment(ctx, asOf); err != nil {
		return nil, err
	}
	if l.Top, err = e.Top(ctx, asOf, q.TopN); err != nil {
		return nil, err
	}
	if l.Threshold, err = e.AboveThreshold(ctx, asOf, threshold); err != nil {
		return nil, err
	}
	return l, nil
}
