package postgres

import (
	"context"
	"fmt"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// FactWriter implements storage.FactWriter using PostgreSQL.
type FactWriter struct {
	pool *Pool
}

// NewFactWriter creates a new FactWriter.
func NewFactWriter(pool *Pool) *FactWriter {
	return &FactWriter{pool: pool}
}

// Compile-time interface check.
var _ storage.FactWriter = (*FactWriter)(nil)

// InsertBatch adds products and prices in one transaction. Fails entire batch on any
// duplicate. Surrogate ids are written back into prices only after commit.
func (w *FactWriter) InsertBatch(ctx context.Context, products []*domain.Product, prices []*domain.PriceRecord) error {
	if len(products) == 0 && len(prices) == 0 {
		return nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	productQuery := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	for _, p := range products {
		if p == nil || p.ID == 0 {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, productQuery,
			p.ID, p.Name, p.Underline, p.Description, p.Info,
			p.DepartmentID, p.DepartmentName,
			p.IsSelfScaleItem, p.IsWeightItem, p.IsBatchItem, p.IsAvailableInAllStores,
			p.AgeLimit, p.TemperatureZone, p.Image, p.Updated,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}

	priceQuery := `
		INSERT INTO prices (
			product_id, price, price_over_max_quantity, max_quantity,
			is_advertised, is_campaign, starting_at, ending_at, deposit,
			compare_unit, compare_unit_price, consumption_unit, consumption_quantity, logged_on
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	ids := make([]int64, len(prices))
	for i, pr := range prices {
		if pr == nil || pr.ProductID == 0 {
			return storage.ErrInvalidInput
		}
		err := tx.QueryRow(ctx, priceQuery,
			pr.ProductID, pr.Price, pr.PriceOverMaxQuantity, pr.MaxQuantity,
			pr.IsAdvertised, pr.IsCampaign, pr.StartingAt, pr.EndingAt, pr.Deposit,
			pr.CompareUnit, pr.CompareUnitPrice, pr.ConsumptionUnit, pr.ConsumptionQuantity, pr.LoggedOn,
		).Scan(&ids[i])
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isForeignKeyError(err) {
				return fmt.Errorf("%w: price references unknown product %d", storage.ErrInvalidInput, pr.ProductID)
			}
			return fmt.Errorf("insert price for product %d: %w", pr.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	for i, pr := range prices {
		pr.ID = ids[i]
	}
	return nil
}
