package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/application"
	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
	"github.com/stockroom-io/fulfillment-service/pkg/idempotency"
	"github.com/stockroom-io/fulfillment-service/pkg/tracing"
)

// Consumer fulfills orders announced on the order-placed topic. Each offset
// is processed at most once within the idempotency TTL; processing failures
// are logged and the offset committed, duplicates are skipped.
type Consumer struct {
	log       *slog.Logger
	reader    *kafka.Reader
	processor *application.Processor
	idem      *idempotency.Store
	tracer    trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, processor *application.Processor, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:       log,
		reader:    r,
		processor: processor,
		idem:      idem,
		tracer:    otel.Tracer("fulfillment-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "FulfillPlacedOrder")

		var ev struct {
			OrderID string `json:"order_id"`
		}
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Error("unmarshal order-placed event failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if _, err := c.processor.Process(msgCtx, ev.OrderID); err != nil {
			level := slog.LevelError
			if errors.Is(err, domain.ErrOrderNotFound) {
				level = slog.LevelWarn
			}
			c.log.Log(msgCtx, level, "order fulfillment failed", "order_id", ev.OrderID, "err", err)
		} else {
			c.log.Info("order fulfilled", "order_id", ev.OrderID)
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}
