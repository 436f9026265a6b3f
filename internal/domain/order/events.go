package order

import (
	"time"

	"github.com/example/ec-shop/internal/payment"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderPaid      = "OrderPaid"
	EventOrderShipped   = "OrderShipped"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCancelled = "OrderCancelled"
)

type EventItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderPlaced struct {
	OrderID      string         `json:"order_id"`
	Items        []EventItem    `json:"items"`
	Method       payment.Method `json:"method"`
	Installments int            `json:"installments"`
	Total        float64        `json:"total"`
	Address      string         `json:"address"`
	PlacedAt     time.Time      `json:"placed_at"`
}

type OrderPaid struct {
	OrderID string    `json:"order_id"`
	Amount  float64   `json:"amount"`
	PaidAt  time.Time `json:"paid_at"`
}

type OrderShipped struct {
	OrderID   string    `json:"order_id"`
	Address   string    `json:"address"`
	ShippedAt time.Time `json:"shipped_at"`
}

type OrderDelivered struct {
	OrderID     string    `json:"order_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// EventItems flattens the order's line snapshot for event payloads.
func (o *Order) EventItems() []EventItem {
	items := make([]EventItem, 0, len(o.Items))
	for _, line := range o.Items {
		items = append(items, EventItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
		})
	}
	return items
}
