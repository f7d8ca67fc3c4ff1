package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"grocery-price-lab/internal/deals"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage/memory"
)

var (
	asOf      = time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	fixedTime = time.Date(2024, 1, 6, 13, 0, 0, 0, time.UTC)
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func setupGenerator(t *testing.T) *Generator {
	t.Helper()
	s := memory.NewStore()
	products := []*domain.Product{
		{ID: 1, Name: "Sødmælk", DepartmentID: 30, DepartmentName: "Mejeri"},
		{ID: 2, Name: "Rugbrød | groft", DepartmentID: 10, DepartmentName: "Brød"},
		{ID: 3, Name: "Smør", DepartmentID: 30, DepartmentName: "Mejeri"},
	}
	prices := []*domain.PriceRecord{
		{ProductID: 1, Price: 10, StartingAt: day("2024-01-01"), EndingAt: day("2024-12-31")},
		{ProductID: 1, Price: 8, StartingAt: day("2024-01-05"), EndingAt: day("2024-01-08"), IsAdvertised: true},
		{ProductID: 2, Price: 20, StartingAt: day("2024-01-01"), EndingAt: day("2024-12-31")},
		{ProductID: 2, Price: 8, StartingAt: day("2024-01-05"), EndingAt: day("2024-01-08"), IsAdvertised: true},
		{ProductID: 3, Price: 25, StartingAt: day("2024-01-01"), EndingAt: day("2024-12-31")},
	}
	require.NoError(t, s.InsertBatch(context.Background(), products, prices))

	engine := deals.NewEngine(deals.Options{
		Products: memory.NewProductStore(s),
		Prices:   memory.NewPriceStore(s),
	})
	return NewGenerator(engine).WithClock(func() time.Time { return fixedTime })
}

func TestGenerate(t *testing.T) {
	g := setupGenerator(t)

	r, err := g.Generate(context.Background(), asOf)
	require.NoError(t, err)

	assert.Equal(t, fixedTime, r.GeneratedAt)
	assert.Equal(t, asOf, r.AsOf)
	assert.Equal(t, deals.DefaultTopN, r.TopN)
	assert.Equal(t, deals.DefaultThreshold, r.Threshold)

	assert.Equal(t, 2, r.Summary.DepartmentCount)
	assert.Equal(t, 2, r.Summary.DealCount)
	assert.Equal(t, 60.0, r.Summary.BestPercent)
	assert.Equal(t, 12.0, r.Summary.BestAmount)

	require.Len(t, r.Departments, 2)
	assert.Equal(t, int64(10), r.Departments[0].DepartmentID)
	assert.Equal(t, int64(30), r.Departments[1].DepartmentID)

	require.Len(t, r.Top, 2)
	assert.Equal(t, int64(2), r.Top[0].ProductID)
	require.Len(t, r.AboveThreshold, 1)
	assert.Equal(t, int64(2), r.AboveThreshold[0].ProductID)
}

func TestGenerate_DefaultsToClock(t *testing.T) {
	g := setupGenerator(t).WithTopN(1).WithThreshold(10)

	r, err := g.Generate(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, fixedTime, r.AsOf)
	assert.Len(t, r.Top, 1)
	assert.Len(t, r.AboveThreshold, 2)
}

func TestRenderMarkdown(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.Generate(context.Background(), asOf)
	require.NoError(t, err)

	md := RenderMarkdown(r)

	assert.True(t, strings.HasPrefix(md, "# Deals Report\n"))
	assert.Contains(t, md, "Generated: 2024-01-06T13:00:00Z")
	assert.Contains(t, md, "| Departments | 2 |")
	assert.Contains(t, md, "## Top 10 Deals by Amount")
	assert.Contains(t, md, "## Deals at or above 50%")
	assert.Contains(t, md, `Rugbrød \| groft (2)`)
	assert.Contains(t, md, "| 20.00 | 8.00 | 12.00 | 60.00 | 2024-01-08 |")

	// Deterministic for a fixed clock.
	assert.Equal(t, md, RenderMarkdown(r))
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{GeneratedAt: fixedTime, AsOf: asOf, TopN: 10, Threshold: 50})
	assert.Contains(t, md, "No price data.")
	assert.Contains(t, md, "No deals.")
}

func TestRenderCSV(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.Generate(context.Background(), asOf)
	require.NoError(t, err)

	out, err := RenderCSV(r.Top)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, dealHeader, records[0])
	assert.Equal(t, []string{"2", "Rugbrød | groft", "10", "Brød", "20.00", "8.00", "12.00", "60.00", "2024-01-05", "2024-01-08"}, records[1])
	assert.Equal(t, "1", records[2][0])
}

func TestRenderXLSX(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.Generate(context.Background(), asOf)
	require.NoError(t, err)

	data, err := RenderXLSX(r)
	require.NoError(t, err)

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer xl.Close()

	assert.Equal(t, []string{SheetDepartments, SheetTop, SheetThreshold}, xl.GetSheetList())

	rows, err := xl.GetRows(SheetDepartments)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, departmentHeader, rows[0])
	assert.Equal(t, "10", rows[1][0])
	assert.Equal(t, "Brød", rows[1][1])

	rows, err = xl.GetRows(SheetTop)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Rugbrød | groft", rows[1][1])

	rows, err = xl.GetRows(SheetThreshold)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestWriteFiles(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.Generate(context.Background(), asOf)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteFiles(dir, r)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, name := range []string{MarkdownFile, TopCSVFile, WorkbookFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}
