package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/infrastructure/store"
	"github.com/example/ec-shop/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishCall struct {
	Key       string
	EventType string
	Event     any
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, key, eventType string, event any) error {
	f.calls = append(f.calls, publishCall{Key: key, EventType: eventType, Event: event})
	return f.err
}

func (f *fakePublisher) eventTypes() []string {
	types := make([]string, len(f.calls))
	for i, c := range f.calls {
		types[i] = c.EventType
	}
	return types
}

type decliningCalculator struct{}

func (decliningCalculator) Calculate(amount float64, method payment.Method, installments int) (payment.Result, error) {
	return payment.Result{Approved: false, Reason: "issuer refused the charge"}, nil
}

func newTestService() (*Service, *store.OrderStore, *fakePublisher) {
	orders := store.NewOrderStore()
	publisher := &fakePublisher{}
	svc := NewService(orders, payment.NewCalculator(), publisher)
	return svc, orders, publisher
}

func newTestProduct(t *testing.T, id string, price float64, stock int) *product.Product {
	t.Helper()
	p, err := product.New(id, "Product "+id, "", price, stock, "test")
	require.NoError(t, err)
	return p
}

func cartWith(t *testing.T, p *product.Product, qty int) *cart.Cart {
	t.Helper()
	c := cart.New()
	require.NoError(t, c.Add(p, qty))
	return c
}

// ============================================
// CreateOrder Tests
// ============================================

func TestCreateOrder_PixScenario(t *testing.T) {
	svc, orders, publisher := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 3)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodPix, "Rua A, 123", 1)

	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	o, ok := orders.Get(orderID)
	require.True(t, ok)
	assert.Equal(t, order.StatusPaid, o.Status)
	assert.InDelta(t, 300.00, o.Total, 1e-9)
	assert.InDelta(t, 270.00, o.Charged, 1e-9) // 10% PIX discount
	assert.NotNil(t, o.PaidAt)
	assert.Equal(t, "Rua A, 123", o.Address)

	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, 0, c.Len(), "cart must be cleared after checkout")

	require.Equal(t, []string{order.EventOrderPlaced, order.EventOrderPaid}, publisher.eventTypes())
	paid, ok := publisher.calls[1].Event.(order.OrderPaid)
	require.True(t, ok)
	assert.InDelta(t, 270.00, paid.Amount, 1e-9)
}

func TestCreateOrder_InstallmentsScenario(t *testing.T) {
	svc, orders, _ := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 1000.00, 5)
	c := cartWith(t, p, 1)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCardInstallments, "Rua A, 123", 6)

	require.NoError(t, err)
	o, _ := orders.Get(orderID)
	assert.InDelta(t, 1250.00, o.Charged, 1e-9)
	assert.Equal(t, 6, o.Installments)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	svc, orders, publisher := newTestService()
	ctx := context.Background()

	orderID, err := svc.CreateOrder(ctx, cart.New(), payment.MethodCard, "Rua A, 123", 1)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orderID)
	assert.Empty(t, orders.List(), "registry must stay unchanged")
	assert.Empty(t, publisher.calls)
}

func TestCreateOrder_InvalidInstallments(t *testing.T) {
	svc, orders, _ := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 2)

	for _, n := range []int{1, 13} {
		_, err := svc.CreateOrder(ctx, c, payment.MethodCardInstallments, "Rua A, 123", n)
		assert.ErrorIsf(t, err, payment.ErrInvalidInstallments, "installments=%d", n)
	}

	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 1, c.Len(), "failed creation must not clear the cart")
	assert.Empty(t, orders.List())
}

func TestCreateOrder_PaymentDeclined(t *testing.T) {
	orders := store.NewOrderStore()
	publisher := &fakePublisher{}
	svc := NewService(orders, decliningCalculator{}, publisher)
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 2)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)

	require.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Contains(t, err.Error(), "issuer refused")
	assert.Empty(t, orderID)
	assert.Equal(t, 10, p.Stock, "declined payment must not debit stock")
	assert.Equal(t, 1, c.Len())
	assert.Empty(t, orders.List())
	assert.Empty(t, publisher.calls)
}

func TestCreateOrder_StaleLine_AllOrNothing(t *testing.T) {
	svc, orders, _ := newTestService()
	ctx := context.Background()

	p1 := newTestProduct(t, "prod-1", 100.00, 10)
	p2 := newTestProduct(t, "prod-2", 50.00, 5)
	c := cart.New()
	require.NoError(t, c.Add(p1, 3))
	require.NoError(t, c.Add(p2, 5))

	// Stock drops between cart-add and checkout.
	require.NoError(t, p2.Debit(2))

	_, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)

	require.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Equal(t, 10, p1.Stock, "no line may be debited when any line cannot be covered")
	assert.Equal(t, 3, p2.Stock)
	assert.Empty(t, orders.List())
	assert.Equal(t, 2, c.Len())
}

func TestCreateOrder_SnapshotIsolatedFromCart(t *testing.T) {
	svc, orders, _ := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 20)
	c := cartWith(t, p, 3)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)
	require.NoError(t, err)

	// Reuse the cart after checkout; the stored order must not notice.
	require.NoError(t, c.Add(p, 9))

	o, _ := orders.Get(orderID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items["prod-1"].Quantity)
}

func TestCreateOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	orders := store.NewOrderStore()
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(orders, payment.NewCalculator(), publisher)
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 1)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)

	require.NoError(t, err)
	_, ok := orders.Get(orderID)
	assert.True(t, ok)
}

func TestCreateOrder_NilPublisher(t *testing.T) {
	svc := NewService(store.NewOrderStore(), payment.NewCalculator(), nil)
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 1)

	_, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)

	require.NoError(t, err)
}

// ============================================
// CancelOrder Tests
// ============================================

func TestCancelOrder_RestoresStockExactly(t *testing.T) {
	svc, orders, publisher := newTestService()
	ctx := context.Background()

	p1 := newTestProduct(t, "prod-1", 100.00, 10)
	p2 := newTestProduct(t, "prod-2", 50.00, 8)
	c := cart.New()
	require.NoError(t, c.Add(p1, 3))
	require.NoError(t, c.Add(p2, 2))

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)
	require.NoError(t, err)
	require.Equal(t, 7, p1.Stock)
	require.Equal(t, 6, p2.Stock)

	err = svc.CancelOrder(ctx, orderID, "customer request")

	require.NoError(t, err)
	assert.Equal(t, 10, p1.Stock, "restock must undo the debit exactly")
	assert.Equal(t, 8, p2.Stock)

	o, _ := orders.Get(orderID)
	assert.Equal(t, order.StatusCancelled, o.Status)

	types := publisher.eventTypes()
	require.NotEmpty(t, types)
	assert.Equal(t, order.EventOrderCancelled, types[len(types)-1])
	cancelled, ok := publisher.calls[len(publisher.calls)-1].Event.(order.OrderCancelled)
	require.True(t, ok)
	assert.Equal(t, "customer request", cancelled.Reason)
}

func TestCancelOrder_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.CancelOrder(context.Background(), "no-such-order", "")

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOrder_DeliveredOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 3)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)
	require.NoError(t, err)
	require.NoError(t, svc.ShipOrder(ctx, orderID))
	require.NoError(t, svc.DeliverOrder(ctx, orderID))

	err = svc.CancelOrder(ctx, orderID, "too late")

	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, 7, p.Stock, "rejected cancellation must not alter stock")
}

func TestCancelOrder_CancelledOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 3)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)
	require.NoError(t, err)
	require.NoError(t, svc.CancelOrder(ctx, orderID, ""))

	err = svc.CancelOrder(ctx, orderID, "")

	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, 10, p.Stock, "a second cancellation must not restock again")
}

// ============================================
// Ship / Deliver Tests
// ============================================

func TestShipAndDeliver_Flow(t *testing.T) {
	svc, orders, publisher := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 1)

	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)
	require.NoError(t, err)

	require.NoError(t, svc.ShipOrder(ctx, orderID))
	o, _ := orders.Get(orderID)
	assert.Equal(t, order.StatusShipped, o.Status)
	assert.NotNil(t, o.ShippedAt)

	require.NoError(t, svc.DeliverOrder(ctx, orderID))
	assert.Equal(t, order.StatusDelivered, o.Status)

	assert.Equal(t, []string{
		order.EventOrderPlaced,
		order.EventOrderPaid,
		order.EventOrderShipped,
		order.EventOrderDelivered,
	}, publisher.eventTypes())
}

func TestDeliverOrder_Pending_NotPossible(t *testing.T) {
	svc, orders, _ := newTestService()
	ctx := context.Background()

	// Force a pending order into the registry; CreateOrder always
	// leaves orders paid, so build one directly.
	o := order.New("order-1", map[string]cart.Line{}, payment.MethodCard, 1, 0, "Rua A, 123")
	orders.Put(o)

	err := svc.DeliverOrder(ctx, "order-1")

	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestShipOrder_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.ShipOrder(context.Background(), "no-such-order")

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ============================================
// GetOrder Tests
// ============================================

func TestGetOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := newTestProduct(t, "prod-1", 100.00, 10)
	c := cartWith(t, p, 1)
	orderID, err := svc.CreateOrder(ctx, c, payment.MethodCard, "Rua A, 123", 1)
	require.NoError(t, err)

	o, err := svc.GetOrder(orderID)
	require.NoError(t, err)
	assert.Equal(t, orderID, o.ID)

	_, err = svc.GetOrder("no-such-order")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
