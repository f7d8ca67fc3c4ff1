package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// RunStore is a PostgreSQL implementation of storage.RunStore backed by ingestion_runs.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new PostgreSQL run store.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, started_at, completed_at, status,
	records_fetched, records_rejected, products_inserted, prices_inserted,
	product_duplicates, price_duplicates, error_text
`

// Insert records a finished run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.IngestionRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingestion_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		run.RunID, run.StartedAt, run.CompletedAt, run.Status,
		run.RecordsFetched, run.RecordsRejected, run.ProductsInserted, run.PricesInserted,
		run.ProductDuplicates, run.PriceDuplicates, run.ErrorText,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ingestion run: %w", err)
	}
	return nil
}

// GetLatest returns the most recently started run.
func (s *RunStore) GetLatest(ctx context.Context) (*domain.IngestionRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM ingestion_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT 1
	`)

	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest ingestion run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs ordered by started_at DESC. limit <= 0 returns all.
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.IngestionRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM ingestion_runs
		ORDER BY started_at DESC, run_id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingestion runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.IngestionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingestion run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingestion run rows: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*domain.IngestionRun, error) {
	var r domain.IngestionRun
	err := row.Scan(
		&r.RunID, &r.StartedAt, &r.CompletedAt, &r.Status,
		&r.RecordsFetched, &r.RecordsRejected, &r.ProductsInserted, &r.PricesInserted,
		&r.ProductDuplicates, &r.PriceDuplicates, &r.ErrorText,
	)
	if err != nil {
		return nil, err
	}
	r.StartedAt = r.StartedAt.UTC()
	r.CompletedAt = r.CompletedAt.UTC()
	return &r, nil
}
