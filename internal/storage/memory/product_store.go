package memory

import (
	"context"
	"sort"

	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
)

// ProductStore is an in-memory implementation of storage.ProductStore.
type ProductStore struct {
	s *Store
}

// NewProductStore creates a product view over the given store.
func NewProductStore(s *Store) *ProductStore {
	return &ProductStore{s: s}
}

// Exists reports whether a product with the given id is stored.
func (p *ProductStore) Exists(_ context.Context, id int64) (bool, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	_, exists := p.s.products[id]
	return exists, nil
}

// GetByID retrieves a product by its id. Returns ErrNotFound if not exists.
func (p *ProductStore) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	product, exists := p.s.products[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	productCopy := *product
	return &productCopy, nil
}

// List retrieves products matching the filter.
func (p *ProductStore) List(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	var result []*domain.Product
	for _, product := range p.s.products {
		if matchesFilter(product, filter) {
			productCopy := *product
			result = append(result, &productCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if filter.OrderByName && result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Departments retrieves the distinct departments, ordered by id ASC.
func (p *ProductStore) Departments(_ context.Context) ([]domain.Department, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	seen := make(map[int64]domain.Department)
	for _, product := range p.s.products {
		if _, ok := seen[product.DepartmentID]; !ok {
			seen[product.DepartmentID] = product.Department()
		}
	}

	result := make([]domain.Department, 0, len(seen))
	for _, d := range seen {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

// CountByDepartment returns the number of products in a department.
func (p *ProductStore) CountByDepartment(_ context.Context, departmentID int64) (int, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	count := 0
	for _, product := range p.s.products {
		if product.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

func matchesFilter(p *domain.Product, f domain.ProductFilter) bool {
	if f.ID != nil && p.ID != *f.ID {
		return false
	}
	if f.DepartmentID != nil && p.DepartmentID != *f.DepartmentID {
		return false
	}
	if f.UpdatedOn != nil && p.Updated.UTC().Format(domain.DayLayout) != f.UpdatedOn.UTC().Format(domain.DayLayout) {
		return false
	}
	if f.IsAvailableInAllStores != nil && p.IsAvailableInAllStores != *f.IsAvailableInAllStores {
		return false
	}
	if f.IsBatchItem != nil && p.IsBatchItem != *f.IsBatchItem {
		return false
	}
	if f.IsWeightItem != nil && p.IsWeightItem != *f.IsWeightItem {
		return false
	}
	if f.IsSelfScaleItem != nil && p.IsSelfScaleItem != *f.IsSelfScaleItem {
		return false
	}
	if f.TemperatureZone != nil && (p.TemperatureZone == nil || *p.TemperatureZone != *f.TemperatureZone) {
		return false
	}
	if f.AgeLimit != nil && (p.AgeLimit == nil || *p.AgeLimit != *f.AgeLimit) {
		return false
	}
	return true
}

var _ storage.ProductStore = (*ProductStore)(nil)
