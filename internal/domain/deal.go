package domain

import "time"

// Deal is an active advertised price matched against a regular price.
type Deal struct {
	ProductID         int64     `json:"product_id"`
	ProductName       string    `json:"product_name"`
	DepartmentID      int64     `json:"department_id"`
	DepartmentName    string    `json:"department_name"`
	AdvertisedPrice   float64   `json:"advertised_price"`
	RegularPrice      float64   `json:"regular_price"`
	DifferenceAmount  float64   `json:"difference_amount"`
	DifferencePercent float64   `json:"difference_percent"`
	PercentEligible   bool      `json:"-"` // false when RegularPrice <= 0
	StartingAt        time.Time `json:"starting_at"`
	EndingAt          time.Time `json:"ending_at"`
}

// DepartmentDeals groups the deals of one department with its price statistics.
type DepartmentDeals struct {
	DepartmentID         int64   `json:"department_id"`
	DepartmentName       string  `json:"department_name"`
	AvgPrice             float64 `json:"avg_price"`
	MinPrice             float64 `json:"min_price"`
	MaxPrice             float64 `json:"max_price"`
	AvgDifferenceAmount  float64 `json:"avg_difference_amount"`
	AvgDifferencePercent float64 `json:"avg_difference_percent"`
	BestDeals            []*Deal `json:"best_deals"`
}
