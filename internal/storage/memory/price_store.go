package memory

import (
	"context"
	"sort"
	"time"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	s *Store
}

// NewPriceStore creates a price view over the given store.
func NewPriceStore(s *Store) *PriceStore {
	return &PriceStore{s: s}
}

// Exists reports whether a record with the identical uniqueness key is stored.
func (p *PriceStore) Exists(_ context.Context, key domain.PriceKey) (bool, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	_, exists := p.s.priceKeys[priceKey(key)]
	return exists, nil
}

// GetByProductID retrieves all records of a product, ordered by (starting_at, id) ASC.
func (p *PriceStore) GetByProductID(ctx context.Context, productID int64) ([]*domain.PriceRecord, error) {
	return p.GetByProductIDs(ctx, []int64{productID})
}

// GetByProductIDs retrieves all records of the given products.
func (p *PriceStore) GetByProductIDs(_ context.Context, productIDs []int64) ([]*domain.PriceRecord, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	wanted := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}

	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	var result []*domain.PriceRecord
	for _, pr := range p.s.prices {
		if _, ok := wanted[pr.ProductID]; ok {
			priceCopy := *pr
			result = append(result, &priceCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductID != result[j].ProductID {
			return result[i].ProductID < result[j].ProductID
		}
		if !result[i].StartingAt.Equal(result[j].StartingAt) {
			return result[i].StartingAt.Before(result[j].StartingAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// GetActiveAdvertised retrieves advertised records active at asOf, joined to their product.
func (p *PriceStore) GetActiveAdvertised(_ context.Context, asOf time.Time, departmentID *int64) ([]*domain.AdvertisedPrice, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	var result []*domain.AdvertisedPrice
	for _, pr := range p.s.prices {
		if !pr.IsAdvertised || !pr.Covers(asOf) {
			continue
		}
		product, ok := p.s.products[pr.ProductID]
		if !ok {
			continue
		}
		if departmentID != nil && product.DepartmentID != *departmentID {
			continue
		}
		productCopy := *product
		priceCopy := *pr
		result = append(result, &domain.AdvertisedPrice{Product: &productCopy, Price: &priceCopy})
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Product.DepartmentID != b.Product.DepartmentID {
			return a.Product.DepartmentID < b.Product.DepartmentID
		}
		if a.Product.ID != b.Product.ID {
			return a.Product.ID < b.Product.ID
		}
		return a.Price.ID < b.Price.ID
	})

	return result, nil
}

// DepartmentStats aggregates all records per department, ordered by department id ASC.
func (p *PriceStore) DepartmentStats(_ context.Context) ([]domain.DepartmentPriceStats, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	type acc struct {
		stats domain.DepartmentPriceStats
		sum   float64
	}
	byDept := make(map[int64]*acc)

	for _, pr := range p.s.prices {
		product, ok := p.s.products[pr.ProductID]
		if !ok {
			continue
		}
		a, ok := byDept[product.DepartmentID]
		if !ok {
			a = &acc{stats: domain.DepartmentPriceStats{
				DepartmentID:   product.DepartmentID,
				DepartmentName: product.DepartmentName,
				MinPrice:       pr.Price,
				MaxPrice:       pr.Price,
			}}
			byDept[product.DepartmentID] = a
		}
		a.sum += pr.Price
		a.stats.PriceCount++
		if pr.Price < a.stats.MinPrice {
			a.stats.MinPrice = pr.Price
		}
		if pr.Price > a.stats.MaxPrice {
			a.stats.MaxPrice = pr.Price
		}
	}

	result := make([]domain.DepartmentPriceStats, 0, len(byDept))
	for _, a := range byDept {
		a.stats.AvgPrice = a.sum / float64(a.stats.PriceCount)
		result = append(result, a.stats)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DepartmentID < result[j].DepartmentID })

	return result, nil
}

var _ storage.PriceStore = (*PriceStore)(nil)
