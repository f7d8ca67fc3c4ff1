package clickhouse

import (
	"context"
	"fmt"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// PriceArchiveStore implements storage.PriceArchive using ClickHouse.
type PriceArchiveStore struct {
	conn *Conn
}

// NewPriceArchiveStore creates a new PriceArchiveStore.
func NewPriceArchiveStore(conn *Conn) *PriceArchiveStore {
	return &PriceArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceArchive = (*PriceArchiveStore)(nil)

// InsertBulk adds multiple records. Fails entire batch on duplicate price id.
// MergeTree does not enforce uniqueness, so ids are checked before the batch is sent.
func (s *PriceArchiveStore) InsertBulk(ctx context.Context, prices []*domain.PriceRecord) error {
	if len(prices) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(prices))
	for _, p := range prices {
		if p == nil || p.ID == 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[p.ID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.ID] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, p := range prices {
		exists, err := s.exists(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_archive (
			id, product_id, price, is_advertised, is_campaign,
			starting_at, ending_at, compare_unit, compare_unit_price, logged_on
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range prices {
		err = batch.Append(
			p.ID, p.ProductID, p.Price, p.IsAdvertised, p.IsCampaign,
			p.StartingAt.UTC(), p.EndingAt.UTC(), p.CompareUnit, p.CompareUnitPrice, p.LoggedOn.UTC(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByProductID retrieves archived records of a product, ordered by (starting_at, id) ASC.
func (s *PriceArchiveStore) GetByProductID(ctx context.Context, productID int64) ([]*domain.PriceRecord, error) {
	query := `
		SELECT id, product_id, price, is_advertised, is_campaign,
		       starting_at, ending_at, compare_unit, compare_unit_price, logged_on
		FROM price_archive
		WHERE product_id = ?
		ORDER BY starting_at ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query by product id: %w", err)
	}
	defer rows.Close()

	return scanPriceArchive(rows)
}

// exists checks if a record with the given id is archived.
func (s *PriceArchiveStore) exists(ctx context.Context, id int64) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM price_archive WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPriceArchive scans multiple rows.
func scanPriceArchive(rows chRows) ([]*domain.PriceRecord, error) {
	var prices []*domain.PriceRecord

	for rows.Next() {
		var p domain.PriceRecord
		err := rows.Scan(
			&p.ID, &p.ProductID, &p.Price, &p.IsAdvertised, &p.IsCampaign,
			&p.StartingAt, &p.EndingAt, &p.CompareUnit, &p.CompareUnitPrice, &p.LoggedOn,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price archive row: %w", err)
		}
		prices = append(prices, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price archive rows: %w", err)
	}

	return prices, nil
}
