package memory

import (
	"time"

	"grocery-price-lab/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func product(id, deptID int64, name string) *domain.Product {
	return &domain.Product{
		ID:             id,
		Name:           name,
		DepartmentID:   deptID,
		DepartmentName: "dept",
		Updated:        day("2024-01-01"),
	}
}

func price(productID int64, p float64, start, end string, advertised bool) *domain.PriceRecord {
	return &domain.PriceRecord{
		ProductID:    productID,
		Price:        p,
		IsAdvertised: advertised,
		StartingAt:   day(start),
		EndingAt:     day(end),
		CompareUnit:  "kg",
		LoggedOn:     day("2024-01-01"),
	}
}
