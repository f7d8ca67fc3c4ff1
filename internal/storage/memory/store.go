package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// Store is an in-memory fact store holding products and prices behind one lock.
// ProductStore and PriceStore are read views over it; Store itself is the FactWriter.
type Store struct {
	mu          sync.RWMutex
	products    map[int64]*domain.Product
	prices      map[int64]*domain.PriceRecord // keyed by surrogate id
	priceKeys   map[string]int64              // uniqueness key -> surrogate id
	nextPriceID int64
}

// NewStore creates an empty in-memory fact store.
func NewStore() *Store {
	return &Store{
		products:  make(map[int64]*domain.Product),
		prices:    make(map[int64]*domain.PriceRecord),
		priceKeys: make(map[string]int64),
	}
}

// priceKey generates a unique key for a price record.
func priceKey(k domain.PriceKey) string {
	return fmt.Sprintf("%d|%s|%d|%d",
		k.ProductID,
		strconv.FormatFloat(k.Price, 'g', -1, 64),
		k.StartingAt.UnixNano(),
		k.EndingAt.UnixNano(),
	)
}

// InsertBatch adds products and prices atomically. Fails entire batch on any duplicate.
func (s *Store) InsertBatch(_ context.Context, products []*domain.Product, prices []*domain.PriceRecord) error {
	if len(products) == 0 && len(prices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: validate and check duplicates (existing + intra-batch)
	batchProducts := make(map[int64]struct{}, len(products))
	for _, p := range products {
		if p == nil || p.ID == 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := s.products[p.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchProducts[p.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchProducts[p.ID] = struct{}{}
	}

	batchKeys := make(map[string]struct{}, len(prices))
	for _, pr := range prices {
		if pr == nil || pr.ProductID == 0 {
			return storage.ErrInvalidInput
		}
		_, stored := s.products[pr.ProductID]
		_, batched := batchProducts[pr.ProductID]
		if !stored && !batched {
			// foreign key violation
			return fmt.Errorf("%w: price references unknown product %d", storage.ErrInvalidInput, pr.ProductID)
		}
		key := priceKey(pr.Key())
		if _, exists := s.priceKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range products {
		productCopy := *p
		s.products[p.ID] = &productCopy
	}
	for _, pr := range prices {
		s.nextPriceID++
		pr.ID = s.nextPriceID
		priceCopy := *pr
		s.prices[pr.ID] = &priceCopy
		s.priceKeys[priceKey(pr.Key())] = pr.ID
	}

	return nil
}

var _ storage.FactWriter = (*Store)(nil)
