package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

func TestFactWriter_InsertBatchAndRead(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	writer := NewFactWriter(pool)
	products := NewProductStore(pool)
	prices := NewPriceStore(pool)

	// Empty batch is a no-op
	require.NoError(t, writer.InsertBatch(ctx, nil, nil))

	regular := testPrice(1, 20, "2024-01-01", "2024-12-31", false)
	promo := testPrice(1, 15, "2024-03-01", "2024-03-07", true)
	err := writer.InsertBatch(ctx, []*domain.Product{testProduct(1, 10, "milk")}, []*domain.PriceRecord{regular, promo})
	require.NoError(t, err)
	assert.NotZero(t, regular.ID)
	assert.Greater(t, promo.ID, regular.ID)

	got, err := products.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "milk", got.Name)
	assert.Equal(t, "test product", *got.Description)
	assert.Equal(t, 2, *got.TemperatureZone)
	assert.Nil(t, got.AgeLimit)

	records, err := prices.GetByProductID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, regular.ID, records[0].ID)
	assert.Equal(t, 15.0, records[1].Price)
	assert.True(t, records[1].IsAdvertised)
	assert.True(t, records[1].StartingAt.Equal(day("2024-03-01")))
	assert.Equal(t, 3, *records[1].MaxQuantity)
	assert.Nil(t, records[1].Deposit)

	exists, err := prices.Exists(ctx, promo.Key())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = products.Exists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFactWriter_DuplicateRollsBackWholeBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	writer := NewFactWriter(pool)
	products := NewProductStore(pool)
	prices := NewPriceStore(pool)

	first := testPrice(1, 20, "2024-01-01", "2024-12-31", false)
	require.NoError(t, writer.InsertBatch(ctx, []*domain.Product{testProduct(1, 10, "milk")}, []*domain.PriceRecord{first}))

	fresh := testPrice(2, 5, "2024-01-01", "2024-12-31", false)
	dup := testPrice(1, 20, "2024-01-01", "2024-12-31", false)
	err := writer.InsertBatch(ctx, []*domain.Product{testProduct(2, 10, "bread")}, []*domain.PriceRecord{fresh, dup})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Zero(t, fresh.ID, "ids must not be written back for a rolled back batch")

	exists, err := products.Exists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, exists)

	records, err := prices.GetByProductID(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFactWriter_UnknownProduct(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewFactWriter(pool).InsertBatch(context.Background(), nil,
		[]*domain.PriceRecord{testPrice(404, 1, "2024-01-01", "2024-01-02", false)})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestProductStore_ListDepartmentsCount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	writer := NewFactWriter(pool)
	products := NewProductStore(pool)

	err := writer.InsertBatch(ctx, []*domain.Product{
		testProduct(1, 10, "milk"),
		testProduct(2, 10, "butter"),
		testProduct(3, 20, "soap"),
		testProduct(4, 10, "cheese"),
	}, nil)
	require.NoError(t, err)

	_, err = products.GetByID(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	depts, err := products.Departments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, domain.Department{ID: 10, Name: "dept-10"}, depts[0])

	count, err := products.CountByDepartment(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	list, err := products.List(ctx, domain.ProductFilter{DepartmentID: ptr(int64(10)), OrderByName: true, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cheese", list[0].Name)
	assert.Equal(t, "milk", list[1].Name)

	list, err = products.List(ctx, domain.ProductFilter{IsWeightItem: ptr(true)})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, int64(4), list[1].ID)

	list, err = products.List(ctx, domain.ProductFilter{UpdatedOn: ptr(day("2024-01-01")), TemperatureZone: ptr(2)})
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestPriceStore_ActiveAdvertisedAndStats(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	writer := NewFactWriter(pool)
	prices := NewPriceStore(pool)

	err := writer.InsertBatch(ctx,
		[]*domain.Product{testProduct(1, 10, "milk"), testProduct(2, 20, "soap")},
		[]*domain.PriceRecord{
			testPrice(1, 10, "2024-01-01", "2024-12-31", false),
			testPrice(1, 8, "2024-03-01", "2024-03-07", true),
			testPrice(2, 30, "2024-01-01", "2024-12-31", false),
			testPrice(2, 20, "2024-03-05", "2024-03-05", true),
			testPrice(2, 25, "2024-04-01", "2024-04-07", true),
		})
	require.NoError(t, err)

	active, err := prices.GetActiveAdvertised(ctx, day("2024-03-05"), nil)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].Product.ID)
	assert.Equal(t, 8.0, active[0].Price.Price)
	assert.Equal(t, int64(20), active[1].Product.DepartmentID)

	active, err = prices.GetActiveAdvertised(ctx, day("2024-03-05"), ptr(int64(20)))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 20.0, active[0].Price.Price)

	stats, err := prices.DepartmentStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(10), stats[0].DepartmentID)
	assert.Equal(t, 2, stats[0].PriceCount)
	assert.InDelta(t, 9.0, stats[0].AvgPrice, 1e-9)
	assert.Equal(t, 20.0, stats[1].MinPrice)
	assert.Equal(t, 30.0, stats[1].MaxPrice)

	byIDs, err := prices.GetByProductIDs(ctx, []int64{2, 1})
	require.NoError(t, err)
	assert.Len(t, byIDs, 5)
	assert.Equal(t, int64(1), byIDs[0].ProductID)
}
