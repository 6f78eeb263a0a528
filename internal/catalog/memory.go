package catalog

import (
	"context"
	"sync"

	"warehouse/pkg/models"
)

type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]models.Product // by id
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[string]models.Product)}
}

func (c *MemoryCatalog) Seed(p models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *MemoryCatalog) ByCode(_ context.Context, code string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.Barcode == code || p.SKU == code {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (c *MemoryCatalog) ByID(_ context.Context, productID string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[productID]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}
