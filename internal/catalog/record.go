// Package catalog fetches and decodes product snapshots from the grocery catalog API.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"grocery-price-lab/internal/domain"
)

// Department is a catalog department as returned by GET /departments.
type Department struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required"`
}

// Image holds the URLs of one product image.
type Image struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
}

// Record is one product observation from a catalog snapshot, with its nested prices.
type Record struct {
	ID                     int64        `json:"id" validate:"required,gt=0"`
	Name                   string       `json:"name" validate:"required"`
	Underline              string       `json:"underline"`
	Description            *string      `json:"description"`
	Info                   string       `json:"info"`
	AgeLimit               *int         `json:"age_limit" validate:"omitempty,gte=0"`
	TemperatureZone        *string      `json:"temperature_zone"`
	IsSelfScaleItem        bool         `json:"is_self_scale_item"`
	IsWeightItem           bool         `json:"is_weight_item"`
	IsBatchItem            bool         `json:"is_batch_item"`
	IsAvailableInAllStores bool         `json:"is_available_in_all_stores"`
	Images                 []Image      `json:"images"`
	Prices                 []PriceEntry `json:"prices" validate:"dive"`

	// Set by Decode.
	DepartmentID   int64     `json:"-"`
	DepartmentName string    `json:"-"`
	LoggedOn       time.Time `json:"-"`
}

// PriceEntry is one price observation nested in a Record.
type PriceEntry struct {
	Price                *float64  `json:"price" validate:"required"`
	PriceOverMaxQuantity *float64  `json:"price_over_max_quantity"`
	MaxQuantity          *int      `json:"max_quantity"`
	IsAdvertised         bool      `json:"is_advertised"`
	IsCampaign           bool      `json:"is_campaign"`
	StartingAt           Timestamp `json:"starting_at"`
	EndingAt             Timestamp `json:"ending_at"`
	Deposit              *float64  `json:"deposit"`
	CompareUnit          string    `json:"compare_unit"`
	CompareUnitPrice     float64   `json:"compare_unit_price"`
	ConsumptionUnit      *string   `json:"consumption_unit"`
	ConsumptionQuantity  *int      `json:"consumption_quantity"`
}

// Timestamp accepts the timestamp layouts seen in catalog payloads.
// Values without a zone are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses s with the accepted catalog layouts and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

var validate = validator.New()

// Decode deserializes and validates one raw product, annotating it with its
// department and the observation time. A malformed record yields *domain.ValidationError.
func Decode(raw json.RawMessage, dept Department, loggedOn time.Time) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, &domain.ValidationError{Field: "record", Reason: err.Error()}
	}

	if err := validate.Struct(&rec); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return Record{}, &domain.ValidationError{
				Field:  fe.Namespace(),
				Value:  fmt.Sprint(fe.Value()),
				Reason: "failed " + fe.Tag(),
			}
		}
		return Record{}, &domain.ValidationError{Field: "record", Reason: err.Error()}
	}

	for i, p := range rec.Prices {
		field := fmt.Sprintf("Record.Prices[%d]", i)
		switch {
		case p.StartingAt.IsZero():
			return Record{}, &domain.ValidationError{Field: field + ".StartingAt", Reason: "missing"}
		case p.EndingAt.IsZero():
			return Record{}, &domain.ValidationError{Field: field + ".EndingAt", Reason: "missing"}
		case p.EndingAt.Before(p.StartingAt.Time):
			return Record{}, &domain.ValidationError{
				Field:  field,
				Value:  p.StartingAt.Format(time.RFC3339) + ".." + p.EndingAt.Format(time.RFC3339),
				Reason: "ending_at before starting_at",
			}
		}
	}

	rec.DepartmentID = dept.ID
	rec.DepartmentName = dept.Name
	rec.LoggedOn = loggedOn.UTC()
	return rec, nil
}

// Product converts the record into a domain product.
func (r *Record) Product() *domain.Product {
	return &domain.Product{
		ID:                     r.ID,
		Name:                   r.Name,
		Underline:              r.Underline,
		Description:            r.Description,
		Info:                   r.Info,
		DepartmentID:           r.DepartmentID,
		DepartmentName:         r.DepartmentName,
		IsSelfScaleItem:        r.IsSelfScaleItem,
		IsWeightItem:           r.IsWeightItem,
		IsBatchItem:            r.IsBatchItem,
		IsAvailableInAllStores: r.IsAvailableInAllStores,
		AgeLimit:               r.AgeLimit,
		TemperatureZone:        ParseTemperatureZone(r.TemperatureZone),
		Image:                  r.ImageURL(),
		Updated:                r.LoggedOn,
	}
}

// PriceRecords converts the nested price entries into domain price records bound to the product.
func (r *Record) PriceRecords() []*domain.PriceRecord {
	prices := make([]*domain.PriceRecord, 0, len(r.Prices))
	for _, p := range r.Prices {
		prices = append(prices, &domain.PriceRecord{
			ProductID:            r.ID,
			Price:                *p.Price,
			PriceOverMaxQuantity: p.PriceOverMaxQuantity,
			MaxQuantity:          p.MaxQuantity,
			IsAdvertised:         p.IsAdvertised,
			IsCampaign:           p.IsCampaign,
			StartingAt:           p.StartingAt.Time,
			EndingAt:             p.EndingAt.Time,
			Deposit:              p.Deposit,
			CompareUnit:          p.CompareUnit,
			CompareUnitPrice:     p.CompareUnitPrice,
			ConsumptionUnit:      p.ConsumptionUnit,
			ConsumptionQuantity:  p.ConsumptionQuantity,
			LoggedOn:             r.LoggedOn,
		})
	}
	return prices
}

// ImageURL returns the first image's medium URL, falling back to small. Nil if there is none.
func (r *Record) ImageURL() *string {
	if len(r.Images) == 0 {
		return nil
	}
	img := r.Images[0]
	switch {
	case img.Medium != "":
		return &img.Medium
	case img.Small != "":
		return &img.Small
	}
	return nil
}

// ParseTemperatureZone converts a coded zone such as "TZ_3" into 3.
// Missing or unparseable codes yield nil.
func ParseTemperatureZone(code *string) *int {
	if code == nil || *code == "" {
		return nil
	}
	parts := strings.Split(*code, "_")
	if len(parts) < 2 {
		return nil
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}
	return &n
}
