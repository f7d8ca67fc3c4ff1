package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage/memory"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func rec(p float64, start, end string) *domain.PriceRecord {
	return &domain.PriceRecord{
		ProductID:   1,
		Price:       p,
		StartingAt:  day(start),
		EndingAt:    day(end),
		CompareUnit: "kg",
		LoggedOn:    day("2024-01-01"),
	}
}

func setup(t *testing.T, now string, prices ...*domain.PriceRecord) *Engine {
	t.Helper()
	s := memory.NewStore()
	err := s.InsertBatch(context.Background(),
		[]*domain.Product{{ID: 1, Name: "Mælk", DepartmentID: 30, DepartmentName: "Mejeri"}},
		prices)
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	return NewEngine(Options{
		Prices: memory.NewPriceStore(s),
		Now:    func() time.Time { return day(now).Add(15 * time.Hour) },
	})
}

func TestReconstruct_ShortestIntervalWins(t *testing.T) {
	e := setup(t, "2024-02-15",
		rec(10, "2024-01-01", "2024-01-31"),
		rec(7, "2024-01-05", "2024-01-06"),
	)

	tl, err := e.Reconstruct(context.Background(), 1, Window{Start: ptr(day("2024-01-01")), End: ptr(day("2024-02-01"))})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	if got := tl.PriceOnDate["2024-01-05"].Price; got != 7 {
		t.Errorf("2024-01-05 price = %v, want 7", got)
	}
	if got := tl.PriceOnDate["2024-01-06"].Price; got != 7 {
		t.Errorf("2024-01-06 price = %v, want 7", got)
	}
	if got := tl.PriceOnDate["2024-01-10"].Price; got != 10 {
		t.Errorf("2024-01-10 price = %v, want 10", got)
	}
	if len(tl.Days) != 31 {
		t.Errorf("days = %d, want 31", len(tl.Days))
	}
	if tl.Days[0] != "2024-01-01" || tl.Days[30] != "2024-01-31" {
		t.Errorf("days range = %s..%s", tl.Days[0], tl.Days[30])
	}
}

func TestReconstruct_UncoveredDaysOmitted(t *testing.T) {
	e := setup(t, "2024-02-15",
		rec(10, "2024-01-01", "2024-01-02"),
		rec(12, "2024-01-05", "2024-01-05"),
	)

	tl, err := e.Reconstruct(context.Background(), 1, Window{Start: ptr(day("2024-01-01")), End: ptr(day("2024-01-10"))})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	want := []string{"2024-01-01", "2024-01-02", "2024-01-05"}
	if len(tl.Days) != len(want) {
		t.Fatalf("days = %v, want %v", tl.Days, want)
	}
	for i := range want {
		if tl.Days[i] != want[i] {
			t.Errorf("day[%d] = %s, want %s", i, tl.Days[i], want[i])
		}
	}
	if _, ok := tl.PriceOnDate["2024-01-03"]; ok {
		t.Error("2024-01-03 should be absent")
	}
}

func TestReconstruct_Aggregates(t *testing.T) {
	e := setup(t, "2024-01-04",
		rec(10, "2024-01-01", "2024-01-01"),
		rec(10, "2024-01-02", "2024-01-02"),
		rec(9.99, "2024-01-03", "2024-01-03"),
	)

	tl, err := e.Reconstruct(context.Background(), 1, Window{Start: ptr(day("2024-01-01"))})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	// (10 + 10 + 9.99) / 3 = 9.99666...
	if tl.AvgPrice != 10 {
		t.Errorf("AvgPrice = %v, want 10", tl.AvgPrice)
	}
	if tl.LowestPrice == nil || *tl.LowestPrice != 9.99 {
		t.Errorf("LowestPrice = %v, want 9.99", tl.LowestPrice)
	}
	// Window ends before today, so the current price is the last emitted day.
	if tl.CurrentPrice == nil || tl.CurrentPrice.Price != 9.99 {
		t.Errorf("CurrentPrice = %v, want 9.99", tl.CurrentPrice)
	}
}

func TestReconstruct_CurrentPriceIsToday(t *testing.T) {
	e := setup(t, "2024-01-05",
		rec(10, "2024-01-01", "2024-01-31"),
		rec(8, "2024-01-05", "2024-01-05"),
	)

	tl, err := e.Reconstruct(context.Background(), 1, Window{
		Start: ptr(day("2024-01-01")),
		End:   ptr(day("2024-01-10")),
	})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if tl.CurrentPrice == nil || tl.CurrentPrice.Price != 8 {
		t.Errorf("CurrentPrice = %v, want 8 (today's snapshot)", tl.CurrentPrice)
	}
}

func TestReconstruct_EmptyWindow(t *testing.T) {
	e := setup(t, "2024-02-15", rec(10, "2024-01-01", "2024-01-31"))

	tl, err := e.Reconstruct(context.Background(), 1, Window{
		Start: ptr(day("2023-06-01")),
		End:   ptr(day("2023-07-01")),
	})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if len(tl.PriceOnDate) != 0 {
		t.Errorf("expected empty map, got %d days", len(tl.PriceOnDate))
	}
	if tl.AvgPrice != 0 || tl.LowestPrice != nil || tl.CurrentPrice != nil {
		t.Errorf("aggregates = (%v, %v, %v), want (0, nil, nil)", tl.AvgPrice, tl.LowestPrice, tl.CurrentPrice)
	}
}

func TestReconstruct_DefaultWindow(t *testing.T) {
	e := setup(t, "2023-01-10", rec(5, "2022-12-01", "2023-12-31"))

	tl, err := e.Reconstruct(context.Background(), 1, Window{})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	// [2023-01-01, 2023-01-10)
	if len(tl.Days) != 9 {
		t.Errorf("days = %d, want 9", len(tl.Days))
	}
	if tl.Days[0] != "2023-01-01" {
		t.Errorf("first day = %s, want 2023-01-01", tl.Days[0])
	}
}

func TestReconstruct_NotFound(t *testing.T) {
	e := setup(t, "2024-02-15")

	_, err := e.Reconstruct(context.Background(), 1, Window{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = e.Reconstruct(context.Background(), 999, Window{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestReconstruct_StartAfterEnd(t *testing.T) {
	e := setup(t, "2024-02-15", rec(10, "2024-01-01", "2024-01-31"))

	_, err := e.Reconstruct(context.Background(), 1, Window{
		Start: ptr(day("2024-01-10")),
		End:   ptr(day("2024-01-01")),
	})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected *domain.ValidationError, got %v", err)
	}
}

func TestReconstruct_FutureStartWithoutEnd(t *testing.T) {
	e := setup(t, "2024-02-15", rec(10, "2024-01-01", "2024-03-31"))

	tl, err := e.Reconstruct(context.Background(), 1, Window{Start: ptr(day("2024-03-01"))})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if len(tl.PriceOnDate) != 0 || len(tl.Days) != 0 {
		t.Errorf("expected empty timeline, got %d days", len(tl.Days))
	}
	if tl.AvgPrice != 0 || tl.LowestPrice != nil || tl.CurrentPrice != nil {
		t.Errorf("aggregates = (%v, %v, %v), want (0, nil, nil)", tl.AvgPrice, tl.LowestPrice, tl.CurrentPrice)
	}
}

func TestPreferred_TieBreak(t *testing.T) {
	a := rec(10, "2024-01-01", "2024-01-10")
	b := rec(11, "2024-01-01", "2024-01-10")

	a.ID, b.ID = 1, 2
	if !preferred(b, a) {
		t.Error("equal records: higher id should win")
	}

	a.LoggedOn = day("2024-01-02")
	if !preferred(a, b) {
		t.Error("later LoggedOn should win over higher id")
	}

	c := rec(12, "2024-01-02", "2024-01-11")
	c.LoggedOn = a.LoggedOn
	c.ID = 0
	if !preferred(c, a) {
		t.Error("later StartingAt should win at equal duration and LoggedOn")
	}

	short := rec(20, "2024-01-03", "2024-01-04")
	if !preferred(short, a) || preferred(a, short) {
		t.Error("shorter interval should always win")
	}
}

func TestReconstruct_TieBreakDeterministic(t *testing.T) {
	older := rec(10, "2024-01-01", "2024-01-10")
	newer := rec(12, "2024-01-01", "2024-01-10")
	newer.Price = 12
	newer.LoggedOn = day("2024-01-05")
	e := setup(t, "2024-02-15", older, newer)

	for i := 0; i < 3; i++ {
		tl, err := e.Reconstruct(context.Background(), 1, Window{
			Start: ptr(day("2024-01-01")),
			End:   ptr(day("2024-01-11")),
		})
		if err != nil {
			t.Fatalf("Reconstruct failed: %v", err)
		}
		if got := tl.PriceOnDate["2024-01-03"].Price; got != 12 {
			t.Errorf("run %d: price = %v, want 12 (most recently ingested)", i, got)
		}
	}
}
