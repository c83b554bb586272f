package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderPaid             = "order.paid"
	TypePaymentAmountMismatch = "order.payment_amount_mismatch"
	TypePaymentNeedsReview    = "order.payment_needs_review"
)

// PaymentEvent is published when the reconciler changes or flags an order
type PaymentEvent struct {
	Type           string           `json:"type"`
	OrderID        string           `json:"order_id"`
	OrderNumber    string           `json:"order_number"`
	OrderStatus    string           `json:"order_status,omitempty"`
	TransactionID  string           `json:"transaction_id,omitempty"`
	ExpectedAmount int64            `json:"expected_amount"`
	ReceivedAmount *decimal.Decimal `json:"received_amount,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// Publisher delivers payment events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event PaymentEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order number so that events for one
// order stay ordered within a partition
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for topic
func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write payment event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PaymentEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
