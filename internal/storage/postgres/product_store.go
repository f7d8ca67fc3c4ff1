package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// ProductStore implements storage.ProductStore using PostgreSQL.
type ProductStore struct {
	pool *Pool
}

// NewProductStore creates a new ProductStore.
func NewProductStore(pool *Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProductStore = (*ProductStore)(nil)

const productColumns = `
	id, name, underline, description, info,
	department_id, department_name,
	is_self_scale_item, is_weight_item, is_batch_item, is_available_in_all_stores,
	age_limit, temperature_zone, image, updated
`

// Exists reports whether a product with the given id is stored.
func (s *ProductStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a product by its id. Returns ErrNotFound if not exists.
func (s *ProductStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// List retrieves products matching the filter.
func (s *ProductStore) List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.ID != nil {
		add("id = $%d", *f.ID)
	}
	if f.DepartmentID != nil {
		add("department_id = $%d", *f.DepartmentID)
	}
	if f.UpdatedOn != nil {
		add("(updated AT TIME ZONE 'UTC')::date = $%d::date", f.UpdatedOn.UTC().Format(domain.DayLayout))
	}
	if f.IsAvailableInAllStores != nil {
		add("is_available_in_all_stores = $%d", *f.IsAvailableInAllStores)
	}
	if f.IsBatchItem != nil {
		add("is_batch_item = $%d", *f.IsBatchItem)
	}
	if f.IsWeightItem != nil {
		add("is_weight_item = $%d", *f.IsWeightItem)
	}
	if f.IsSelfScaleItem != nil {
		add("is_self_scale_item = $%d", *f.IsSelfScaleItem)
	}
	if f.TemperatureZone != nil {
		add("temperature_zone = $%d", *f.TemperatureZone)
	}
	if f.AgeLimit != nil {
		add("age_limit = $%d", *f.AgeLimit)
	}

	var q strings.Builder
	q.WriteString(`SELECT ` + productColumns + ` FROM products`)
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if f.OrderByName {
		q.WriteString(" ORDER BY name ASC, id ASC")
	} else {
		q.WriteString(" ORDER BY id ASC")
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&q, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&q, " OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Departments retrieves the distinct departments, ordered by id ASC.
func (s *ProductStore) Departments(ctx context.Context) ([]domain.Department, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT department_id, MIN(department_name)
		FROM products
		GROUP BY department_id
		ORDER BY department_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var departments []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan department row: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate department rows: %w", err)
	}
	return departments, nil
}

// CountByDepartment returns the number of products in a department.
func (s *ProductStore) CountByDepartment(ctx context.Context, departmentID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE department_id = $1`, departmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products by department: %w", err)
	}
	return count, nil
}

func productScanTargets(p *domain.Product) []any {
	return []any{
		&p.ID, &p.Name, &p.Underline, &p.Description, &p.Info,
		&p.DepartmentID, &p.DepartmentName,
		&p.IsSelfScaleItem, &p.IsWeightItem, &p.IsBatchItem, &p.IsAvailableInAllStores,
		&p.AgeLimit, &p.TemperatureZone, &p.Image, &p.Updated,
	}
}

// scanProduct scans a single row into a Product.
func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(productScanTargets(&p)...); err != nil {
		return nil, err
	}
	p.Updated = p.Updated.UTC()
	return &p, nil
}

// scanProducts scans multiple rows into a slice of Product.
func scanProducts(rows pgx.Rows) ([]*domain.Product, error) {
	var products []*domain.Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}
