package storage

import (
	"context"

	"grocery-price-lab/internal/domain"
)

// RunStore persists the outcome of each ingestion cycle.
// It lets operators see when the catalog was last refreshed after a restart.
type RunStore interface {
	// Insert records a finished run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.IngestionRun) error

	// GetLatest returns the most recently started run.
	// Returns ErrNotFound if no run has been recorded yet.
	GetLatest(ctx context.Context) (*domain.IngestionRun, error)

	// List returns up to limit runs, most recent first.
	List(ctx context.Context, limit int) ([]*domain.IngestionRun, error)
}
