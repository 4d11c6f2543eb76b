package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/mvelickovic/bookstore/pkg/metrics"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Handler consumes an outbox event locally instead of publishing it.
type Handler func(ctx context.Context, event Event) error

// Dispatcher routes locked outbox events. Types with a registered handler
// are executed in-process (post-commit follow-up tasks such as finalizing a
// stock reservation); everything else is published to the Kafka topic.
type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
	handlers map[string]Handler
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{
		log:      log,
		producer: producer,
		topic:    topic,
		handlers: make(map[string]Handler),
	}
}

// Handle registers a local handler for an event type. Not safe to call after
// the relay has started.
func (d *Dispatcher) Handle(eventType string, h Handler) {
	d.handlers[eventType] = h
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	if h, ok := d.handlers[event.Type]; ok {
		if err := h(ctx, event); err != nil {
			metrics.OutboxFailed.WithLabelValues(event.Type).Inc()
			d.log.Error("outbox task failed", "event_id", event.ID, "type", event.Type, "err", err)
			return err
		}
		metrics.OutboxDispatched.WithLabelValues(event.Type).Inc()
		return nil
	}

	headers := []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}}
	if event.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(event.Traceparent)})
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		metrics.OutboxFailed.WithLabelValues(event.Type).Inc()
		d.log.Error("outbox publish failed", "event_id", event.ID, "type", event.Type, "err", err)
		return err
	}
	metrics.OutboxDispatched.WithLabelValues(event.Type).Inc()
	d.log.Info("outbox dispatched", "event_id", event.ID, "type", event.Type)
	return nil
}
