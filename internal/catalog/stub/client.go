// Package stub provides an in-memory catalog client for tests and offline demos.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"grocery-price-lab/internal/catalog"
)

// ErrUnavailable simulates a transport failure.
var ErrUnavailable = errors.New("catalog unavailable")

// Client implements catalog.Client with fixed in-memory data.
type Client struct {
	mu          sync.RWMutex
	departments []catalog.Department
	products    map[int64][]json.RawMessage // keyed by department id
	failing     map[int64]bool              // departments whose products request fails
	down        bool                        // departments request fails
}

// NewClient creates an empty stub catalog client.
func NewClient() *Client {
	return &Client{
		products: make(map[int64][]json.RawMessage),
		failing:  make(map[int64]bool),
	}
}

// AddDepartment registers a department with its raw products.
func (c *Client) AddDepartment(dept catalog.Department, products ...json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.departments = append(c.departments, dept)
	c.products[dept.ID] = append(c.products[dept.ID], products...)
}

// AddProduct marshals v and appends it to a registered department.
func (c *Client) AddProduct(departmentID int64, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal stub product: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[departmentID] = append(c.products[departmentID], raw)
	return nil
}

// SetDown makes the departments request fail.
func (c *Client) SetDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

// FailDepartment makes the products request of one department fail.
func (c *Client) FailDepartment(departmentID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[departmentID] = true
}

// Departments returns the registered departments.
func (c *Client) Departments(_ context.Context) ([]catalog.Department, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.down {
		return nil, ErrUnavailable
	}
	result := make([]catalog.Department, len(c.departments))
	copy(result, c.departments)
	return result, nil
}

// Products returns the raw products of a department.
func (c *Client) Products(_ context.Context, dept catalog.Department) ([]json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.failing[dept.ID] {
		return nil, ErrUnavailable
	}
	result := make([]json.RawMessage, len(c.products[dept.ID]))
	copy(result, c.products[dept.ID])
	return result, nil
}

var _ catalog.Client = (*Client)(nil)
