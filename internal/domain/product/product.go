package product

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidName       = errors.New("name is required")
)

// Product is a catalog entry with a mutable stock count. Stock is
// mutated only through Debit and Restock, which keep it non-negative.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
}

func New(id, name, description string, price float64, stock int, category string) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Category:    category,
	}, nil
}

// CheckAvailability reports whether qty units are in stock. No side effects.
func (p *Product) CheckAvailability(qty int) bool {
	return p.Stock >= qty
}

// Debit removes qty units from stock. It is the sole gate that keeps
// stock non-negative: when qty exceeds the current stock it fails and
// leaves the count unchanged.
func (p *Product) Debit(qty int) error {
	if qty > p.Stock {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, p.Stock, qty)
	}
	p.Stock -= qty
	return nil
}

// Restock returns qty units to stock. Unconditional: it is only called
// to reverse a matching Debit, so no upper bound is enforced.
func (p *Product) Restock(qty int) {
	p.Stock += qty
}
