package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/email"
	"github.com/example/ec-shop/internal/infrastructure/kafka"
)

// Handler turns order lifecycle events into emails for the shop
// operator. There are no customer accounts in this system, so all mail
// goes to a single configured recipient.
type Handler struct {
	emailService *email.Service
	recipient    string
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service, recipient string) *Handler {
	return &Handler{
		emailService: emailSvc,
		recipient:    recipient,
	}
}

// HandleEvent processes one envelope from Kafka.
func (h *Handler) HandleEvent(ctx context.Context, key string, env kafka.Envelope) error {
	switch env.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(env)
	case order.EventOrderCancelled:
		return h.handleOrderCancelled(env)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(env kafka.Envelope) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s", e.OrderID)

	if err := h.emailService.SendOrderConfirmation(h.recipient, e.OrderID, e.Total, e.Items); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", h.recipient, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", h.recipient, e.OrderID)
	return nil
}

func (h *Handler) handleOrderCancelled(env kafka.Envelope) error {
	var e order.OrderCancelled
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCancelled event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderCancelled event for order %s", e.OrderID)

	if err := h.emailService.SendOrderCancellation(h.recipient, e.OrderID, e.Reason); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", h.recipient, err)
		return err
	}
	return nil
}
