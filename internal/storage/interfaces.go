package storage

import (
	"context"
	"time"

	"grocery-price-lab/internal/domain"
)

// ProductStore provides access to products storage.
type ProductStore interface {
	// Exists reports whether a product with the given external id is stored.
	Exists(ctx context.Context, id int64) (bool, error)

	// GetByID retrieves a product by its external id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// List retrieves products matching the filter, ordered by id ASC
	// (or by name ASC when filter.OrderByName is set).
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)

	// Departments retrieves the distinct departments of stored products, ordered by id ASC.
	Departments(ctx context.Context) ([]domain.Department, error)

	// CountByDepartment returns the number of products in a department.
	CountByDepartment(ctx context.Context, departmentID int64) (int, error)
}

// PriceStore provides access to prices storage.
type PriceStore interface {
	// Exists reports whether a record with the identical uniqueness key is stored.
	Exists(ctx context.Context, key domain.PriceKey) (bool, error)

	// GetByProductID retrieves all records of a product, ordered by (starting_at, id) ASC.
	GetByProductID(ctx context.Context, productID int64) ([]*domain.PriceRecord, error)

	// GetByProductIDs retrieves all records of the given products, ordered by (product_id, starting_at, id) ASC.
	GetByProductIDs(ctx context.Context, productIDs []int64) ([]*domain.PriceRecord, error)

	// GetActiveAdvertised retrieves advertised records with starting_at <= asOf <= ending_at,
	// joined to their product, optionally restricted to one department.
	// Ordered by (department_id, product_id, price id) ASC.
	GetActiveAdvertised(ctx context.Context, asOf time.Time, departmentID *int64) ([]*domain.AdvertisedPrice, error)

	// DepartmentStats aggregates price/min/max over all records per department, ordered by department id ASC.
	DepartmentStats(ctx context.Context) ([]domain.DepartmentPriceStats, error)
}

// FactWriter appends products and prices in a single atomic transaction.
type FactWriter interface {
	// InsertBatch adds all products and prices atomically. Fails entire batch on any
	// duplicate or store error; nothing is persisted in that case. An empty batch is a no-op.
	// On success the surrogate ids are written back into prices.
	InsertBatch(ctx context.Context, products []*domain.Product, prices []*domain.PriceRecord) error
}

// PriceArchive is an append-only analytics copy of ingested prices.
type PriceArchive interface {
	// InsertBulk adds multiple records. Fails entire batch on duplicate price id.
	InsertBulk(ctx context.Context, prices []*domain.PriceRecord) error

	// GetByProductID retrieves archived records of a product, ordered by (starting_at, id) ASC.
	GetByProductID(ctx context.Context, productID int64) ([]*domain.PriceRecord, error)
}
