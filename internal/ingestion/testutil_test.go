package ingestion

import (
	"context"
	"errors"
	"time"

	"grocery-price-lab/internal/catalog"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage/memory"
)

var loggedOn = time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func entry(p float64, start, end string, advertised bool) catalog.PriceEntry {
	return catalog.PriceEntry{
		Price:        &p,
		IsAdvertised: advertised,
		StartingAt:   catalog.Timestamp{Time: day(start)},
		EndingAt:     catalog.Timestamp{Time: day(end)},
		CompareUnit:  "stk",
	}
}

func record(id int64, prices ...catalog.PriceEntry) catalog.Record {
	return catalog.Record{
		ID:             id,
		Name:           "product",
		DepartmentID:   10,
		DepartmentName: "Mejeri",
		LoggedOn:       loggedOn,
		Prices:         prices,
	}
}

type stores struct {
	base     *memory.Store
	products *memory.ProductStore
	prices   *memory.PriceStore
}

func newStores() stores {
	s := memory.NewStore()
	return stores{base: s, products: memory.NewProductStore(s), prices: memory.NewPriceStore(s)}
}

func (s stores) engine() *Engine {
	return NewEngine(EngineOptions{Products: s.products, Prices: s.prices, Writer: s.base})
}

var errStore = errors.New("store unavailable")

// failingWriter rejects every non-empty batch.
type failingWriter struct{}

func (failingWriter) InsertBatch(_ context.Context, products []*domain.Product, prices []*domain.PriceRecord) error {
	if len(products) == 0 && len(prices) == 0 {
		return nil
	}
	return errStore
}

// staticSource returns a fixed batch.
type staticSource struct {
	batch catalog.Batch
	err   error
}

func (s staticSource) Fetch(_ context.Context) (catalog.Batch, error) {
	return s.batch, s.err
}

// failingArchive rejects every insert.
type failingArchive struct{ calls int }

func (a *failingArchive) InsertBulk(_ context.Context, _ []*domain.PriceRecord) error {
	a.calls++
	return errStore
}

func (a *failingArchive) GetByProductID(_ context.Context, _ int64) ([]*domain.PriceRecord, error) {
	return nil, nil
}
