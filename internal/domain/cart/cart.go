package cart

import (
	"errors"
	"fmt"

	"github.com/example/ec-shop/internal/domain/product"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Line pairs a catalog product with a requested quantity. The line
// holds a reference to, not a copy of, the catalog item: stock changes
// made through the catalog are visible here without any messaging.
type Line struct {
	Product  *product.Product
	Quantity int
}

// Cart accumulates lines keyed by product ID. Availability is checked
// at add time only; stock is debited at checkout, not here.
type Cart struct {
	items map[string]Line
}

func New() *Cart {
	return &Cart{items: make(map[string]Line)}
}

// Add puts qty units of p into the cart, accumulating onto an existing
// line when present. It fails when the product cannot currently cover
// the requested quantity.
func (c *Cart) Add(p *product.Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !p.CheckAvailability(qty) {
		return fmt.Errorf("%w: available %d, requested %d", product.ErrInsufficientStock, p.Stock, qty)
	}
	if line, ok := c.items[p.ID]; ok {
		line.Quantity += qty
		c.items[p.ID] = line
		return nil
	}
	c.items[p.ID] = Line{Product: p, Quantity: qty}
	return nil
}

// Remove takes qty units of the given product out of the cart. A qty
// of zero or less, or one at or above the line's quantity, removes the
// line entirely. Unknown product IDs are a no-op.
func (c *Cart) Remove(productID string, qty int) {
	line, ok := c.items[productID]
	if !ok {
		return
	}
	if qty <= 0 || qty >= line.Quantity {
		delete(c.items, productID)
		return
	}
	line.Quantity -= qty
	c.items[productID] = line
}

// Total is the sum over all lines of unit price times quantity.
func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.items {
		total += line.Product.Price * float64(line.Quantity)
	}
	return total
}

// Snapshot returns an independent copy of the line map. The copy
// references the same products, so later cart mutations do not affect
// it but catalog-side stock changes remain visible.
func (c *Cart) Snapshot() map[string]Line {
	snapshot := make(map[string]Line, len(c.items))
	for id, line := range c.items {
		snapshot[id] = line
	}
	return snapshot
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Get returns the line for a product ID, if present.
func (c *Cart) Get(productID string) (Line, bool) {
	line, ok := c.items[productID]
	return line, ok
}

func (c *Cart) Clear() {
	c.items = make(map[string]Line)
}
