package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery-price-lab/internal/deals"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage/memory"
	"grocery-price-lab/internal/timeline"
)

var now = time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestServer(t *testing.T) (*gin.Engine, *memory.RunStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memory.NewStore()
	weight := true
	products := []*domain.Product{
		{ID: 1, Name: "Sødmælk", DepartmentID: 30, DepartmentName: "Mejeri", Updated: day("2024-01-03")},
		{ID: 2, Name: "Ost", DepartmentID: 30, DepartmentName: "Mejeri", Updated: day("2024-01-04"), IsWeightItem: weight},
		{ID: 3, Name: "Rugbrød", DepartmentID: 10, DepartmentName: "Brød", Updated: day("2024-01-03")},
	}
	prices := []*domain.PriceRecord{
		{ProductID: 1, Price: 10, StartingAt: day("2024-01-01"), EndingAt: day("2024-01-31"), LoggedOn: day("2024-01-01")},
		{ProductID: 1, Price: 7, StartingAt: day("2024-01-05"), EndingAt: day("2024-01-07"), IsAdvertised: true, LoggedOn: day("2024-01-01")},
		{ProductID: 2, Price: 40, StartingAt: day("2024-01-01"), EndingAt: day("2024-12-31"), LoggedOn: day("2024-01-01")},
		{ProductID: 3, Price: 20, StartingAt: day("2024-01-01"), EndingAt: day("2024-12-31"), LoggedOn: day("2024-01-01")},
		{ProductID: 3, Price: 8, StartingAt: day("2024-01-04"), EndingAt: day("2024-01-08"), IsAdvertised: true, LoggedOn: day("2024-01-01")},
	}
	require.NoError(t, s.InsertBatch(context.Background(), products, prices))

	productStore := memory.NewProductStore(s)
	priceStore := memory.NewPriceStore(s)
	runs := memory.NewRunStore()
	clock := func() time.Time { return now }

	srv := NewServer(Options{
		Products: productStore,
		Prices:   priceStore,
		Runs:     runs,
		Timeline: timeline.NewEngine(timeline.Options{Prices: priceStore, Now: clock}),
		Deals:    deals.NewEngine(deals.Options{Products: productStore, Prices: priceStore, Now: clock}),
	})
	return srv.Router(), runs
}

func get(t *testing.T, r http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, r, "/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestProductPrices(t *testing.T) {
	r, _ := newTestServer(t)

	var tl domain.Timeline
	code := get(t, r, "/prices/1?start=2024-01-01&end=2024-01-11", &tl)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, int64(1), tl.ProductID)
	assert.Len(t, tl.PriceOnDate, 10)
	assert.Equal(t, 7.0, tl.PriceOnDate["2024-01-05"].Price)
	assert.True(t, tl.PriceOnDate["2024-01-05"].IsAdvertised)
	assert.Equal(t, 10.0, tl.PriceOnDate["2024-01-10"].Price)
	require.NotNil(t, tl.LowestPrice)
	assert.Equal(t, 7.0, *tl.LowestPrice)
	// 7 days at 10, 3 days at 7
	assert.Equal(t, 9.1, tl.AvgPrice)
	require.NotNil(t, tl.CurrentPrice)
	assert.Equal(t, 7.0, tl.CurrentPrice.Price)
}

func TestProductPrices_Errors(t *testing.T) {
	r, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, r, "/prices/999", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/prices/abc", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/prices/1?start=2024-02-30", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/prices/1?start=2024-02-01&end=2024-01-01", nil))
}

func TestAdvertisedProducts(t *testing.T) {
	r, _ := newTestServer(t)

	var out []productWithPrices
	require.Equal(t, http.StatusOK, get(t, r, "/discount/", &out))
	require.Len(t, out, 2)
	// dept 10 first
	assert.Equal(t, int64(3), out[0].ID)
	assert.Equal(t, int64(1), out[1].ID)
	assert.Len(t, out[1].Prices, 2)

	out = nil
	require.Equal(t, http.StatusOK, get(t, r, "/discount/?as_of=2024-01-20", &out))
	assert.Empty(t, out)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/discount/?as_of=yesterday", nil))
}

func TestDepartmentDeals(t *testing.T) {
	r, _ := newTestServer(t)

	var out []domain.DepartmentDeals
	require.Equal(t, http.StatusOK, get(t, r, "/discount/departments", &out))
	require.Len(t, out, 2)

	assert.Equal(t, int64(10), out[0].DepartmentID)
	assert.Equal(t, int64(30), out[1].DepartmentID)

	mejeri := out[1]
	require.Len(t, mejeri.BestDeals, 1)
	assert.Equal(t, 3.0, mejeri.BestDeals[0].DifferenceAmount)
	assert.Equal(t, 30.0, mejeri.BestDeals[0].DifferencePercent)
	assert.Equal(t, 19.0, mejeri.AvgPrice) // (10 + 7 + 40) / 3
	assert.Equal(t, 7.0, mejeri.MinPrice)
	assert.Equal(t, 40.0, mejeri.MaxPrice)
}

func TestDepartmentDealList(t *testing.T) {
	r, _ := newTestServer(t)

	var out []domain.Deal
	require.Equal(t, http.StatusOK, get(t, r, "/discount/departments/10", &out))
	require.Len(t, out, 1)
	assert.Equal(t, 12.0, out[0].DifferenceAmount)
	assert.Equal(t, 60.0, out[0].DifferencePercent)

	assert.Equal(t, http.StatusNotFound, get(t, r, "/discount/departments/99", nil))
}

func TestTopAndThreshold(t *testing.T) {
	r, _ := newTestServer(t)

	var top []domain.Deal
	require.Equal(t, http.StatusOK, get(t, r, "/discount/top?n=1", &top))
	require.Len(t, top, 1)
	assert.Equal(t, int64(3), top[0].ProductID)

	var above []domain.Deal
	require.Equal(t, http.StatusOK, get(t, r, "/discount/threshold", &above))
	require.Len(t, above, 1)
	assert.Equal(t, int64(3), above[0].ProductID)

	above = nil
	require.Equal(t, http.StatusOK, get(t, r, "/discount/threshold?pct=25", &above))
	assert.Len(t, above, 2)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/discount/top?n=-1", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/discount/threshold?pct=lots", nil))
}

func TestDepartments(t *testing.T) {
	r, _ := newTestServer(t)

	var depts []domain.Department
	require.Equal(t, http.StatusOK, get(t, r, "/department/", &depts))
	assert.Equal(t, []domain.Department{{ID: 10, Name: "Brød"}, {ID: 30, Name: "Mejeri"}}, depts)

	var n int
	require.Equal(t, http.StatusOK, get(t, r, "/department/30/count", &n))
	assert.Equal(t, 2, n)

	var products []domain.Product
	require.Equal(t, http.StatusOK, get(t, r, "/department/30", &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Ost", products[0].Name)
	assert.Equal(t, "Sødmælk", products[1].Name)

	products = nil
	require.Equal(t, http.StatusOK, get(t, r, "/department/30?limit=1&offset=1", &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Sødmælk", products[0].Name)
}

func TestProductsByParams(t *testing.T) {
	r, _ := newTestServer(t)

	var out []productWithPrices
	require.Equal(t, http.StatusOK, get(t, r, "/product/?department=30&is_weight_item=true", &out))
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Len(t, out[0].Prices, 1)

	out = nil
	require.Equal(t, http.StatusOK, get(t, r, "/product/?updated_on=2024-01-03", &out))
	assert.Len(t, out, 2)

	out = nil
	require.Equal(t, http.StatusOK, get(t, r, "/product/?limit=1", &out))
	assert.Len(t, out, 1)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/product/?is_batch_item=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/product/?updated_on=03-01-2024", nil))
}

func TestStatus(t *testing.T) {
	r, runs := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, r, "/status", nil))

	require.NoError(t, runs.Insert(context.Background(), &domain.IngestionRun{
		RunID:          "run-1",
		StartedAt:      now,
		CompletedAt:    now.Add(time.Second),
		Status:         domain.RunStatusSuccess,
		PricesInserted: 5,
	}))

	var run domain.IngestionRun
	require.Equal(t, http.StatusOK, get(t, r, "/status", &run))
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, 5, run.PricesInserted)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	get(t, r, "/health", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "grocery_price_lab_http_requests_total")
}
