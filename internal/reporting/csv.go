package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"grocery-price-lab/internal/domain"
)

var dealHeader = []string{
	"product_id",
	"product_name",
	"department_id",
	"department_name",
	"regular_price",
	"advertised_price",
	"difference_amount",
	"difference_percent",
	"starting_at",
	"ending_at",
}

// RenderCSV renders deals as CSV, one row per deal in the given order.
func RenderCSV(deals []*domain.Deal) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(dealHeader); err != nil {
		return "", err
	}
	for _, d := range deals {
		if err := w.Write(dealRecord(d)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func dealRecord(d *domain.Deal) []string {
	return []string{
		strconv.FormatInt(d.ProductID, 10),
		d.ProductName,
		strconv.FormatInt(d.DepartmentID, 10),
		d.DepartmentName,
		formatMoney(d.RegularPrice),
		formatMoney(d.AdvertisedPrice),
		formatMoney(d.DifferenceAmount),
		formatMoney(d.DifferencePercent),
		d.StartingAt.UTC().Format(domain.DayLayout),
		d.EndingAt.UTC().Format(domain.DayLayout),
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
