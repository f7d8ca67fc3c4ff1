package reporting

import (
	"time"

	"grocery-price-lab/internal/domain"
)

// Report is a snapshot of the deal views at one point in time.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	AsOf        time.Time
	TopN        int
	Threshold   float64

	Summary Summary

	// Departments ordered by id, each with its deals by percent desc.
	Departments []*domain.DepartmentDeals

	// Deals by amount desc, truncated to TopN.
	Top []*domain.Deal

	// Deals at or above Threshold percent, by percent desc.
	AboveThreshold []*domain.Deal
}

// Summary contains report-wide totals.
type Summary struct {
	DepartmentCount int
	DealCount       int // percent-eligible deals across all departments
	BestPercent     float64
	BestAmount      float64
}
