package payment

import (
	"errors"
	"fmt"
)

type Method string

const (
	// MethodCard charges the full amount in a single card payment.
	MethodCard Method = "card"
	// MethodCardInstallments splits the amount over 2 to 12 card
	// installments, with interest per installment after the first.
	MethodCardInstallments Method = "card_installments"
	// MethodPix is an instant transfer and earns a discount.
	MethodPix Method = "pix"
)

const (
	MinInstallments = 2
	MaxInstallments = 12
)

var (
	ErrInvalidInstallments = errors.New("installments must be between 2 and 12")
	ErrUnknownMethod       = errors.New("unknown payment method")
)

// Result is the calculator's verdict on a charge. When Approved is
// false, Reason says why and the caller must not commit the order.
type Result struct {
	Approved          bool    `json:"approved"`
	FinalAmount       float64 `json:"final_amount"`
	Installments      int     `json:"installments,omitempty"`
	InstallmentAmount float64 `json:"installment_amount,omitempty"`
	Reason            string  `json:"reason,omitempty"`
}

// Calculator maps (amount, method, installments) to a charge. It is a
// pure function over its inputs: no state, no gateway calls.
type Calculator struct {
	interestRate float64 // per installment after the first
	pixDiscount  float64
}

func NewCalculator() *Calculator {
	return &Calculator{
		interestRate: 0.05,
		pixDiscount:  0.10,
	}
}

// CardAmount is the charge for a single card payment: the amount as is.
func (c *Calculator) CardAmount(amount float64) float64 {
	return amount
}

// InstallmentPlan computes the total with interest and the
// per-installment amount for a split card payment.
func (c *Calculator) InstallmentPlan(amount float64, installments int) (total, perInstallment float64, err error) {
	if installments < MinInstallments || installments > MaxInstallments {
		return 0, 0, fmt.Errorf("%w: got %d", ErrInvalidInstallments, installments)
	}
	total = amount * (1 + c.interestRate*float64(installments-1))
	return total, total / float64(installments), nil
}

// PixAmount is the charge for a PIX payment, with the discount applied.
func (c *Calculator) PixAmount(amount float64) float64 {
	return amount * (1 - c.pixDiscount)
}

// Calculate computes the charge for the given method. Installments is
// only consulted for MethodCardInstallments; other methods always
// charge in one payment.
func (c *Calculator) Calculate(amount float64, method Method, installments int) (Result, error) {
	switch method {
	case MethodCard:
		return Result{Approved: true, FinalAmount: c.CardAmount(amount), Installments: 1}, nil
	case MethodCardInstallments:
		total, per, err := c.InstallmentPlan(amount, installments)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Approved:          true,
			FinalAmount:       total,
			Installments:      installments,
			InstallmentAmount: per,
		}, nil
	case MethodPix:
		return Result{Approved: true, FinalAmount: c.PixAmount(amount), Installments: 1}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}
