package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/stockroom-io/fulfillment-service/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Dispatcher publishes one notification as a JSON Kafka message, keyed by
// product name so notifications for the same product stay ordered.
type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

type notificationMessage struct {
	Type         string     `json:"type"`
	ProductName  string     `json:"product_name"`
	LeadTimeDays int        `json:"lead_time_days,omitempty"`
	ExpiredAt    *time.Time `json:"expired_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(notificationMessage{
		Type:         n.Type,
		ProductName:  n.ProductName,
		LeadTimeDays: n.LeadTimeDays,
		ExpiredAt:    n.ExpiredAt,
		CreatedAt:    n.CreatedAt,
	})
	if err != nil {
		return err
	}

	headers := []kafka.Header{{Key: "notification_type", Value: []byte(n.Type)}}
	headers = tracing.InjectKafkaHeaders(ctx, headers)

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(n.ProductName),
		Value:   payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("notification dispatch failed", "notification_id", n.ID, "type", n.Type, "err", err)
		return err
	}
	d.log.Info("notification dispatched", "notification_id", n.ID, "type", n.Type, "product", n.ProductName)
	return nil
}
