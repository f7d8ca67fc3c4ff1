package domain

import "time"

// Product represents a catalog product.
// Corresponds to products table in PostgreSQL. Rows are written once, on first
// observation, and never updated afterwards.
type Product struct {
	ID                     int64     `json:"id"`                         // external identifier assigned by the catalog
	Name                   string    `json:"name"`                       // display name
	Underline              string    `json:"underline"`                  // short descriptive line
	Description            *string   `json:"description"`                // long description (nullable)
	Info                   string    `json:"info"`                       // free-form product info
	DepartmentID           int64     `json:"department_id"`              // owning department id
	DepartmentName         string    `json:"department_name"`            // owning department name
	IsSelfScaleItem        bool      `json:"is_self_scale_item"`         // weighed by the customer
	IsWeightItem           bool      `json:"is_weight_item"`             // priced by weight
	IsBatchItem            bool      `json:"is_batch_item"`              // sold in batches
	IsAvailableInAllStores bool      `json:"is_available_in_all_stores"` // carried by every store
	AgeLimit               *int      `json:"age_limit"`                  // minimum buyer age (nullable)
	TemperatureZone        *int      `json:"temperature_zone"`           // storage zone number (nullable)
	Image                  *string   `json:"image"`                      // image URL (nullable)
	Updated                time.Time `json:"updated"`                    // last-observed timestamp
}

// Department is a catalog grouping of products, denormalized onto Product.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Department returns the product's department.
func (p *Product) Department() Department {
	return Department{ID: p.DepartmentID, Name: p.DepartmentName}
}

// ProductFilter selects products by equality on optional attributes.
// Nil fields are ignored. Limit <= 0 means no limit.
type ProductFilter struct {
	ID                     *int64
	DepartmentID           *int64
	UpdatedOn              *time.Time // matches the calendar day of Updated (UTC)
	IsAvailableInAllStores *bool
	IsBatchItem            *bool
	IsWeightItem           *bool
	IsSelfScaleItem        *bool
	TemperatureZone        *int
	AgeLimit               *int
	OrderByName            bool
	Limit                  int
	Offset                 int
}
