package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"grocery-price-lab/internal/domain"
)

// Workbook sheet names.
const (
	SheetDepartments = "Departments"
	SheetTop         = "Top"
	SheetThreshold   = "Threshold"
)

var departmentHeader = []string{
	"department_id",
	"department_name",
	"avg_price",
	"min_price",
	"max_price",
	"deals",
	"avg_difference_amount",
	"avg_difference_percent",
}

// RenderXLSX renders the report as a workbook with one sheet per view.
func RenderXLSX(r *Report) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	// Rename default sheet
	if err := xl.SetSheetName(xl.GetSheetName(0), SheetDepartments); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(xl, SheetDepartments, departmentHeader, departmentRows(r.Departments)); err != nil {
		return nil, err
	}

	for _, sheet := range []struct {
		name  string
		deals []*domain.Deal
	}{
		{SheetTop, r.Top},
		{SheetThreshold, r.AboveThreshold},
	} {
		if _, err := xl.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		if err := writeRows(xl, sheet.name, dealHeader, dealRows(sheet.deals)); err != nil {
			return nil, err
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(xl *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func departmentRows(depts []*domain.DepartmentDeals) [][]interface{} {
	rows := make([][]interface{}, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, []interface{}{
			d.DepartmentID,
			d.DepartmentName,
			d.AvgPrice,
			d.MinPrice,
			d.MaxPrice,
			len(d.BestDeals),
			d.AvgDifferenceAmount,
			d.AvgDifferencePercent,
		})
	}
	return rows
}

func dealRows(deals []*domain.Deal) [][]interface{} {
	rows := make([][]interface{}, 0, len(deals))
	for _, d := range deals {
		rows = append(rows, []interface{}{
			d.ProductID,
			d.ProductName,
			d.DepartmentID,
			d.DepartmentName,
			d.RegularPrice,
			d.AdvertisedPrice,
			d.DifferenceAmount,
			d.DifferencePercent,
			d.StartingAt.UTC().Format(domain.DayLayout),
			d.EndingAt.UTC().Format(domain.DayLayout),
		})
	}
	return rows
}
