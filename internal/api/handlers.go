package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/example/ec-shop/internal/checkout"
	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/infrastructure/store"
	"github.com/example/ec-shop/internal/payment"
	"github.com/google/uuid"
)

// Handlers adapts HTTP requests onto the catalog and checkout service.
// The domain itself carries no locking, so every operation that can
// touch product stock runs under one mutex here; the deployment
// serializes, the core does not.
type Handlers struct {
	catalog  store.CatalogInterface
	checkout *checkout.Service

	mu sync.Mutex // serializes stock-touching operations

	cartsMu sync.RWMutex
	carts   map[string]*cart.Cart
}

func NewHandlers(catalog store.CatalogInterface, checkoutSvc *checkout.Service) *Handlers {
	return &Handlers{
		catalog:  catalog,
		checkout: checkoutSvc,
		carts:    make(map[string]*cart.Cart),
	}
}

// Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Stock       int     `json:"stock"`
		Category    string  `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	p, err := product.New(req.ID, req.Name, req.Description, req.Price, req.Stock, req.Category)
	if err != nil {
		respondError(w, err)
		return
	}
	h.catalog.Put(p)

	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	p, ok := h.catalog.Get(id)
	if !ok {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Cart Handlers

func (h *Handlers) CreateCart(w http.ResponseWriter, r *http.Request) {
	cartID := uuid.New().String()

	h.cartsMu.Lock()
	h.carts[cartID] = cart.New()
	h.cartsMu.Unlock()

	respondJSON(w, http.StatusCreated, map[string]string{"cart_id": cartID})
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(extractPathParam(r.URL.Path, "/carts/"))
	if !ok {
		http.Error(w, "Cart not found", http.StatusNotFound)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	type lineResponse struct {
		ProductID string  `json:"product_id"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity"`
	}
	lines := make([]lineResponse, 0)
	for id, line := range c.Snapshot() {
		lines = append(lines, lineResponse{
			ProductID: id,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"items": lines,
		"total": c.Total(),
	})
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	cartID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/carts/"), "/items")
	c, ok := h.cart(cartID)
	if !ok {
		http.Error(w, "Cart not found", http.StatusNotFound)
		return
	}

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, ok := h.catalog.Get(req.ProductID)
	if !ok {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	h.mu.Lock()
	err := c.Add(p, req.Quantity)
	h.mu.Unlock()
	if err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	rest := extractPathParam(r.URL.Path, "/carts/")
	cartID, productID, ok := strings.Cut(rest, "/items/")
	if !ok {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	c, found := h.cart(cartID)
	if !found {
		http.Error(w, "Cart not found", http.StatusNotFound)
		return
	}

	// quantity=0 (or absent) removes the whole line
	qty := 0
	if q := r.URL.Query().Get("quantity"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, "Invalid quantity", http.StatusBadRequest)
			return
		}
		qty = parsed
	}

	h.mu.Lock()
	c.Remove(productID, qty)
	h.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CartID       string `json:"cart_id"`
		Method       string `json:"method"`
		Address      string `json:"address"`
		Installments int    `json:"installments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}

	c, ok := h.cart(req.CartID)
	if !ok {
		http.Error(w, "Cart not found", http.StatusNotFound)
		return
	}

	h.mu.Lock()
	orderID, err := h.checkout.CreateOrder(r.Context(), c, payment.Method(req.Method), req.Address, req.Installments)
	h.mu.Unlock()
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"order_id": orderID})
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.checkout.ListOrders()
	responses := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, newOrderResponse(o))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")
	o, err := h.checkout.GetOrder(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	h.mu.Lock()
	err := h.checkout.CancelOrder(r.Context(), id, req.Reason)
	h.mu.Unlock()
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Order cancelled"})
}

func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/ship")
	if err := h.checkout.ShipOrder(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order shipped"})
}

func (h *Handlers) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/deliver")
	if err := h.checkout.DeliverOrder(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order delivered"})
}

// Helpers

type orderResponse struct {
	*order.Order
	Items []order.EventItem `json:"items"`
}

func newOrderResponse(o *order.Order) orderResponse {
	return orderResponse{Order: o, Items: o.EventItems()}
}

func (h *Handlers) cart(cartID string) (*cart.Cart, bool) {
	h.cartsMu.RLock()
	defer h.cartsMu.RUnlock()
	c, ok := h.carts[cartID]
	return c, ok
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, checkout.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, checkout.ErrPaymentDeclined):
		status = http.StatusPaymentRequired
	case errors.Is(err, product.ErrInsufficientStock),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, payment.ErrInvalidInstallments),
		errors.Is(err, payment.ErrUnknownMethod),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, product.ErrInvalidName),
		errors.Is(err, product.ErrInvalidPrice):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
