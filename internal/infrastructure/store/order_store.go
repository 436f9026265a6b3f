package store

import (
	"sort"
	"sync"

	"github.com/example/ec-shop/internal/domain/order"
)

// OrderStore is the in-memory order registry, keyed by order ID.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*order.Order)}
}

func (s *OrderStore) Put(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *OrderStore) Get(orderID string) (*order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	return o, ok
}

func (s *OrderStore) List() []*order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}
