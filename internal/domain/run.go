package domain

import "time"

// Ingestion run status values.
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
	RunStatusSkipped = "skipped"
)

// IngestionRun records a single execution of the ingestion cycle.
// Corresponds to ingestion_runs table in PostgreSQL.
type IngestionRun struct {
	RunID             string    `json:"run_id"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
	Status            string    `json:"status"`
	RecordsFetched    int       `json:"records_fetched"`
	RecordsRejected   int       `json:"records_rejected"`
	ProductsInserted  int       `json:"products_inserted"`
	PricesInserted    int       `json:"prices_inserted"`
	ProductDuplicates int       `json:"product_duplicates"`
	PriceDuplicates   int       `json:"price_duplicates"`
	ErrorText         string    `json:"error_text,omitempty"`
}
