package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/infrastructure/store"
	"github.com/example/ec-shop/internal/payment"
	"github.com/google/uuid"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentDeclined = errors.New("payment was not approved")
)

// Calculator is the payment collaborator. Satisfied by
// *payment.Calculator; tests substitute a declining fake.
type Calculator interface {
	Calculate(amount float64, method payment.Method, installments int) (payment.Result, error)
}

// EventPublisher announces committed lifecycle facts. Satisfied by
// kafka.Producer. A nil publisher disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

// Service orchestrates cart-to-order conversion and the later lifecycle
// operations. It owns no locking: operations touching the same products
// must be serialized by the caller (the API layer does this per
// process). Within one call the debit sequence is all-or-nothing:
// every snapshot line is re-validated against current stock before any
// line is debited.
type Service struct {
	orders    store.OrderStoreInterface
	calc      Calculator
	publisher EventPublisher
}

func NewService(orders store.OrderStoreInterface, calc Calculator, publisher EventPublisher) *Service {
	return &Service{
		orders:    orders,
		calc:      calc,
		publisher: publisher,
	}
}

// CreateOrder converts the cart into a paid order: it computes the
// total, runs the payment calculation, debits stock for every line,
// moves the order to paid, stores it and clears the cart. Any failure
// before the debit step leaves inventory, the registry and the cart
// untouched. Returns the new order's ID.
func (s *Service) CreateOrder(ctx context.Context, c *cart.Cart, method payment.Method, address string, installments int) (string, error) {
	if c.Len() == 0 {
		return "", ErrEmptyCart
	}

	total := c.Total()
	orderID := uuid.New().String()

	// The snapshot is the order's own copy of the lines; the cart is
	// free to change afterwards without affecting it.
	o := order.New(orderID, c.Snapshot(), method, installments, total, address)

	result, err := s.calc.Calculate(total, method, installments)
	if err != nil {
		return "", err
	}
	if !result.Approved {
		return "", fmt.Errorf("%w: %s", ErrPaymentDeclined, result.Reason)
	}
	o.Charged = result.FinalAmount

	// Validate every line before debiting any, so a stale cart line
	// cannot leave earlier debits dangling.
	for _, line := range o.Items {
		if !line.Product.CheckAvailability(line.Quantity) {
			return "", fmt.Errorf("%w: product %s has %d, order needs %d",
				product.ErrInsufficientStock, line.Product.ID, line.Product.Stock, line.Quantity)
		}
	}
	for _, line := range o.Items {
		if err := line.Product.Debit(line.Quantity); err != nil {
			return "", err
		}
	}

	// Always legal from pending.
	if err := o.Transition(order.StatusPaid); err != nil {
		return "", err
	}

	s.orders.Put(o)
	c.Clear()

	s.publish(ctx, orderID, order.EventOrderPlaced, order.OrderPlaced{
		OrderID:      orderID,
		Items:        o.EventItems(),
		Method:       method,
		Installments: result.Installments,
		Total:        total,
		Address:      address,
		PlacedAt:     o.CreatedAt,
	})
	s.publish(ctx, orderID, order.EventOrderPaid, order.OrderPaid{
		OrderID: orderID,
		Amount:  result.FinalAmount,
		PaidAt:  timestamp(o.PaidAt),
	})

	return orderID, nil
}

// CancelOrder restocks every line of the order's snapshot and moves the
// order to cancelled. The transition is checked up front so a
// non-cancellable order never has its stock altered.
func (s *Service) CancelOrder(ctx context.Context, orderID, reason string) error {
	o, ok := s.orders.Get(orderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	if !o.CanTransitionTo(order.StatusCancelled) {
		return fmt.Errorf("%w: cannot transition from %s to %s",
			order.ErrInvalidTransition, o.Status, order.StatusCancelled)
	}

	for _, line := range o.Items {
		line.Product.Restock(line.Quantity)
	}

	if err := o.Transition(order.StatusCancelled); err != nil {
		return err
	}

	s.publish(ctx, orderID, order.EventOrderCancelled, order.OrderCancelled{
		OrderID:     orderID,
		Reason:      reason,
		CancelledAt: time.Now(),
	})
	return nil
}

// ShipOrder moves a paid order to shipped.
func (s *Service) ShipOrder(ctx context.Context, orderID string) error {
	o, ok := s.orders.Get(orderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err := o.Transition(order.StatusShipped); err != nil {
		return err
	}
	s.publish(ctx, orderID, order.EventOrderShipped, order.OrderShipped{
		OrderID:   orderID,
		Address:   o.Address,
		ShippedAt: timestamp(o.ShippedAt),
	})
	return nil
}

// DeliverOrder moves a shipped order to delivered, a terminal state.
func (s *Service) DeliverOrder(ctx context.Context, orderID string) error {
	o, ok := s.orders.Get(orderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err := o.Transition(order.StatusDelivered); err != nil {
		return err
	}
	s.publish(ctx, orderID, order.EventOrderDelivered, order.OrderDelivered{
		OrderID:     orderID,
		DeliveredAt: time.Now(),
	})
	return nil
}

// ListOrders returns all stored orders, oldest first.
func (s *Service) ListOrders() []*order.Order {
	return s.orders.List()
}

// GetOrder looks an order up by ID.
func (s *Service) GetOrder(orderID string) (*order.Order, error) {
	o, ok := s.orders.Get(orderID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return o, nil
}

// publish sends an event if a publisher is wired. Publishing is a
// notification side channel; failures are logged and never fail the
// business operation that already committed.
func (s *Service) publish(ctx context.Context, key, eventType string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, eventType, event); err != nil {
		log.Printf("[Checkout] Failed to publish event for order %s: %v", key, err)
	}
}

func timestamp(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
