package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// PriceStore implements storage.PriceStore using PostgreSQL.
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

const priceColumns = `
	id, product_id, price, price_over_max_quantity, max_quantity,
	is_advertised, is_campaign, starting_at, ending_at, deposit,
	compare_unit, compare_unit_price, consumption_unit, consumption_quantity, logged_on
`

// Exists reports whether a record with the identical uniqueness key is stored.
func (s *PriceStore) Exists(ctx context.Context, key domain.PriceKey) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM prices
			WHERE product_id = $1 AND price = $2 AND starting_at = $3 AND ending_at = $4
		)
	`, key.ProductID, key.Price, key.StartingAt, key.EndingAt).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check price exists: %w", err)
	}
	return exists, nil
}

// GetByProductID retrieves all records of a product, ordered by (starting_at, id) ASC.
func (s *PriceStore) GetByProductID(ctx context.Context, productID int64) ([]*domain.PriceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+priceColumns+`
		FROM prices
		WHERE product_id = $1
		ORDER BY starting_at ASC, id ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("get prices by product id: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// GetByProductIDs retrieves all records of the given products.
func (s *PriceStore) GetByProductIDs(ctx context.Context, productIDs []int64) ([]*domain.PriceRecord, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+priceColumns+`
		FROM prices
		WHERE product_id = ANY($1)
		ORDER BY product_id ASC, starting_at ASC, id ASC
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get prices by product ids: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// GetActiveAdvertised retrieves advertised records active at asOf, joined to their product.
func (s *PriceStore) GetActiveAdvertised(ctx context.Context, asOf time.Time, departmentID *int64) ([]*domain.AdvertisedPrice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			p.id, p.name, p.underline, p.description, p.info,
			p.department_id, p.department_name,
			p.is_self_scale_item, p.is_weight_item, p.is_batch_item, p.is_available_in_all_stores,
			p.age_limit, p.temperature_zone, p.image, p.updated,
			pr.id, pr.product_id, pr.price, pr.price_over_max_quantity, pr.max_quantity,
			pr.is_advertised, pr.is_campaign, pr.starting_at, pr.ending_at, pr.deposit,
			pr.compare_unit, pr.compare_unit_price, pr.consumption_unit, pr.consumption_quantity, pr.logged_on
		FROM prices pr
		JOIN products p ON p.id = pr.product_id
		WHERE pr.is_advertised
		  AND pr.starting_at <= $1 AND pr.ending_at >= $1
		  AND ($2::BIGINT IS NULL OR p.department_id = $2)
		ORDER BY p.department_id ASC, p.id ASC, pr.id ASC
	`, asOf, departmentID)
	if err != nil {
		return nil, fmt.Errorf("get active advertised prices: %w", err)
	}
	defer rows.Close()

	var result []*domain.AdvertisedPrice
	for rows.Next() {
		var (
			p  domain.Product
			pr domain.PriceRecord
		)
		targets := append(productScanTargets(&p), priceScanTargets(&pr)...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan advertised price row: %w", err)
		}
		p.Updated = p.Updated.UTC()
		normalizePriceTimes(&pr)
		result = append(result, &domain.AdvertisedPrice{Product: &p, Price: &pr})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate advertised price rows: %w", err)
	}

	return result, nil
}

// DepartmentStats aggregates all records per department, ordered by department id ASC.
func (s *PriceStore) DepartmentStats(ctx context.Context) ([]domain.DepartmentPriceStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			p.department_id, MIN(p.department_name),
			AVG(pr.price), MIN(pr.price), MAX(pr.price), COUNT(*)
		FROM prices pr
		JOIN products p ON p.id = pr.product_id
		GROUP BY p.department_id
		ORDER BY p.department_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get department stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.DepartmentPriceStats
	for rows.Next() {
		var d domain.DepartmentPriceStats
		if err := rows.Scan(&d.DepartmentID, &d.DepartmentName, &d.AvgPrice, &d.MinPrice, &d.MaxPrice, &d.PriceCount); err != nil {
			return nil, fmt.Errorf("scan department stats row: %w", err)
		}
		stats = append(stats, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate department stats rows: %w", err)
	}

	return stats, nil
}

func priceScanTargets(pr *domain.PriceRecord) []any {
	return []any{
		&pr.ID, &pr.ProductID, &pr.Price, &pr.PriceOverMaxQuantity, &pr.MaxQuantity,
		&pr.IsAdvertised, &pr.IsCampaign, &pr.StartingAt, &pr.EndingAt, &pr.Deposit,
		&pr.CompareUnit, &pr.CompareUnitPrice, &pr.ConsumptionUnit, &pr.ConsumptionQuantity, &pr.LoggedOn,
	}
}

func normalizePriceTimes(pr *domain.PriceRecord) {
	pr.StartingAt = pr.StartingAt.UTC()
	pr.EndingAt = pr.EndingAt.UTC()
	pr.LoggedOn = pr.LoggedOn.UTC()
}

// scanPriceRecords scans multiple rows into a slice of PriceRecord.
func scanPriceRecords(rows pgx.Rows) ([]*domain.PriceRecord, error) {
	var prices []*domain.PriceRecord

	for rows.Next() {
		var pr domain.PriceRecord
		if err := rows.Scan(priceScanTargets(&pr)...); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		normalizePriceTimes(&pr)
		prices = append(prices, &pr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return prices, nil
}
