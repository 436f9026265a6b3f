package store

import (
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
)

// CatalogInterface is the product registry the shop reads and the
// catalog owner writes. Identity-keyed lookup only, no query language.
type CatalogInterface interface {
	Put(p *product.Product)
	Get(productID string) (*product.Product, bool)
	List() []*product.Product
}

// OrderStoreInterface keeps finished orders by their identity. Orders
// are never deleted; cancellation is a state, not a removal.
type OrderStoreInterface interface {
	Put(o *order.Order)
	Get(orderID string) (*order.Order, bool)
	List() []*order.Order
}
