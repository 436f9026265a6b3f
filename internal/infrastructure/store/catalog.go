package store

import (
	"sort"
	"sync"

	"github.com/example/ec-shop/internal/domain/product"
)

// Catalog is the in-memory product registry. The map is guarded so
// concurrent readers see a consistent view; the products themselves are
// shared mutable state and stock mutation must be serialized by the
// caller (see checkout.Service).
type Catalog struct {
	mu       sync.RWMutex
	products map[string]*product.Product
}

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]*product.Product)}
}

func (c *Catalog) Put(p *product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *Catalog) Get(productID string) (*product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	return p, ok
}

func (c *Catalog) List() []*product.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := make([]*product.Product, 0, len(c.products))
	for _, p := range c.products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
