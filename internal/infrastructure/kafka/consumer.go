package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// EnvelopeHandler processes one decoded event envelope. The key is the
// order ID the event was published under.
type EnvelopeHandler func(ctx context.Context, key string, env Envelope) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Consume reads envelopes until the context is cancelled. Malformed
// messages and handler errors are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler EnvelopeHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Kafka] Error reading message: %v", err)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			log.Printf("[Kafka] Skipping malformed message: %v", err)
			continue
		}

		if err := handler(ctx, string(msg.Key), env); err != nil {
			log.Printf("[Kafka] Error handling %s event: %v", env.EventType, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
