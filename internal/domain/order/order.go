package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/payment"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {}, // terminal state
	StatusCancelled: {}, // terminal state
}

// Order records a cart-to-purchase conversion. Items is a snapshot
// taken at creation time and is never touched by later cart activity;
// the order owns it outright. State changes go through Transition only.
type Order struct {
	ID           string               `json:"id"`
	Items        map[string]cart.Line `json:"-"`
	Method       payment.Method       `json:"method"`
	Installments int                  `json:"installments"`
	Total        float64              `json:"total"`
	Charged      float64              `json:"charged"`
	Address      string               `json:"address"`
	Status       Status               `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	PaidAt       *time.Time           `json:"paid_at,omitempty"`
	ShippedAt    *time.Time           `json:"shipped_at,omitempty"`
}

// New returns a pending order owning the given line snapshot.
func New(id string, items map[string]cart.Line, method payment.Method, installments int, total float64, address string) *Order {
	return &Order{
		ID:           id,
		Items:        items,
		Method:       method,
		Installments: installments,
		Total:        total,
		Address:      address,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the order to target, failing when the move is not in
// the transition table. Entering paid stamps PaidAt and entering
// shipped stamps ShippedAt; each timestamp is set at most once. No
// other side effects: inventory and payment are orchestrated one layer
// up.
func (o *Order) Transition(target Status) error {
	if !o.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target

	now := time.Now()
	switch target {
	case StatusPaid:
		if o.PaidAt == nil {
			o.PaidAt = &now
		}
	case StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	}
	return nil
}
