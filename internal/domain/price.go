package domain

import "time"

// PriceRecord is an immutable price fact valid over [StartingAt, EndingAt].
// Both bounds are inclusive. Corresponds to prices table in PostgreSQL.
// Records for the same product may overlap in time.
type PriceRecord struct {
	ID                   int64     `json:"id"`                      // BIGSERIAL surrogate key
	ProductID            int64     `json:"product_id"`              // FK to products
	Price                float64   `json:"price"`                   // shelf price
	PriceOverMaxQuantity *float64  `json:"price_over_max_quantity"` // price beyond MaxQuantity (nullable)
	MaxQuantity          *int      `json:"max_quantity"`            // quantity cap for Price (nullable)
	IsAdvertised         bool      `json:"is_advertised"`           // time-boxed promotional price
	IsCampaign           bool      `json:"is_campaign"`             // part of a campaign
	StartingAt           time.Time `json:"starting_at"`             // validity start (inclusive)
	EndingAt             time.Time `json:"ending_at"`               // validity end (inclusive)
	Deposit              *float64  `json:"deposit"`                 // bottle deposit (nullable)
	CompareUnit          string    `json:"compare_unit"`            // unit label, e.g. "kg"
	CompareUnitPrice     float64   `json:"compare_unit_price"`      // price per CompareUnit
	ConsumptionUnit      *string   `json:"consumption_unit"`        // (nullable)
	ConsumptionQuantity  *int      `json:"consumption_quantity"`    // (nullable)
	LoggedOn             time.Time `json:"logged_on"`               // ingestion timestamp
}

// PriceKey is the uniqueness key of a PriceRecord.
type PriceKey struct {
	ProductID  int64
	Price      float64
	StartingAt time.Time
	EndingAt   time.Time
}

// Key returns the record's uniqueness key.
func (p *PriceRecord) Key() PriceKey {
	return PriceKey{
		ProductID:  p.ProductID,
		Price:      p.Price,
		StartingAt: p.StartingAt.UTC(),
		EndingAt:   p.EndingAt.UTC(),
	}
}

// Covers reports whether t lies within the validity interval.
func (p *PriceRecord) Covers(t time.Time) bool {
	return !t.Before(p.StartingAt) && !t.After(p.EndingAt)
}

// Duration returns the length of the validity interval.
func (p *PriceRecord) Duration() time.Duration {
	return p.EndingAt.Sub(p.StartingAt)
}

// AdvertisedPrice is an advertised PriceRecord joined to its owning product.
type AdvertisedPrice struct {
	Product *Product
	Price   *PriceRecord
}

// DepartmentPriceStats aggregates all PriceRecords of one department.
type DepartmentPriceStats struct {
	DepartmentID   int64
	DepartmentName string
	AvgPrice       float64
	MinPrice       float64
	MaxPrice       float64
	PriceCount     int
}
