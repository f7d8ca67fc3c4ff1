package memory

import (
	"context"
	"sort"
	"sync"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// PriceArchive is an in-memory implementation of storage.PriceArchive.
type PriceArchive struct {
	mu   sync.RWMutex
	data map[int64]*domain.PriceRecord // keyed by price id
}

// NewPriceArchive creates a new in-memory price archive.
func NewPriceArchive() *PriceArchive {
	return &PriceArchive{
		data: make(map[int64]*domain.PriceRecord),
	}
}

// InsertBulk adds multiple records. Fails entire batch on duplicate.
func (s *PriceArchive) InsertBulk(_ context.Context, prices []*domain.PriceRecord) error {
	if len(prices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track ids in this batch to detect intra-batch duplicates
	batchIDs := make(map[int64]struct{}, len(prices))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range prices {
		if p == nil || p.ID == 0 || p.ProductID == 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchIDs[p.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchIDs[p.ID] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range prices {
		priceCopy := *p
		s.data[p.ID] = &priceCopy
	}

	return nil
}

// GetByProductID retrieves archived records of a product, ordered by (starting_at, id) ASC.
func (s *PriceArchive) GetByProductID(_ context.Context, productID int64) ([]*domain.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceRecord
	for _, p := range s.data {
		if p.ProductID == productID {
			priceCopy := *p
			result = append(result, &priceCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartingAt.Equal(result[j].StartingAt) {
			return result[i].StartingAt.Before(result[j].StartingAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.PriceArchive = (*PriceArchive)(nil)
