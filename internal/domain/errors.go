package domain

import (
	"errors"
	"fmt"
)

// Query and ingestion errors.
var (
	// ErrNotFound is returned when a product has no price history at all,
	// or a department has no matching products.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the sentinel every *ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes malformed input: a date parameter or a catalog record.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IngestionError reports a rejected ingestion batch. Nothing of the batch was persisted.
type IngestionError struct {
	RunID    string // ingestion run identifier
	Products int    // candidate products in the rejected batch
	Prices   int    // candidate prices in the rejected batch
	Err      error  // underlying store failure
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion run %s rejected (%d products, %d prices): %v",
		e.RunID, e.Products, e.Prices, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
