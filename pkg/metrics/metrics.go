package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The asynchronous legs of the order workflow have no caller-visible failure
// channel, so they are observed here instead.
var (
	OutboxDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_outbox_dispatched_total",
		Help: "Outbox events dispatched, by event type.",
	}, []string{"type"})

	OutboxFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_outbox_failed_total",
		Help: "Outbox dispatch failures, by event type.",
	}, []string{"type"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_events_consumed_total",
		Help: "Kafka messages consumed, by topic and result.",
	}, []string{"topic", "result"})
)

func Handler() http.Handler { return promhttp.Handler() }
