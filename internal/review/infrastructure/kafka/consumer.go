package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderdomain "github.com/mvelickovic/bookstore/internal/order/domain"
	"github.com/mvelickovic/bookstore/internal/review/application"
	"github.com/mvelickovic/bookstore/pkg/metrics"
	"github.com/mvelickovic/bookstore/pkg/tracing"
)

// Deduper guards against redelivery of already-processed messages.
type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

// Consumer subscribes to the order-confirmed topic and records review
// eligibility. Delivery is at-least-once and unordered; the Redis guard plus
// the idempotent eligibility upsert make redelivery harmless.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	dedup  Deduper
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, svc *application.Service, dedup Deduper) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		svc:    svc,
		dedup:  dedup,
		tracer: otel.Tracer("review-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "err", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	key := c.dedup.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.dedup.Seen(ctx, key)
	if err != nil {
		// The eligibility upsert is idempotent, so proceed without the guard.
		c.log.Error("dedup check failed", "key", key, "err", err)
	}
	if seen {
		metrics.EventsConsumed.WithLabelValues(msg.Topic, "duplicate").Inc()
		c.log.Info("duplicate message skipped", "key", key)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderConfirmed")
	defer span.End()

	var event orderdomain.OrderConfirmed
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		metrics.EventsConsumed.WithLabelValues(msg.Topic, "invalid").Inc()
		c.log.Error("unmarshal failed", "err", err)
		return
	}

	if err := c.svc.MarkEligible(msgCtx, event.UserID, event.BookID, event.OrderID, event.BookTitle); err != nil {
		metrics.EventsConsumed.WithLabelValues(msg.Topic, "error").Inc()
		c.log.Error("eligibility update failed", "order_id", event.OrderID, "err", err)
		return
	}
	metrics.EventsConsumed.WithLabelValues(msg.Topic, "ok").Inc()
	c.log.Info("order event consumed", "order_id", event.OrderID, "user_id", event.UserID,
		"book_id", event.BookID, "book_title", event.BookTitle)
}
