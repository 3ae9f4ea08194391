package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeHandled   = "handled"
	OutcomeMalformed = "malformed"
	OutcomeExhausted = "exhausted"
	OutcomeOK        = "ok"
	OutcomeError     = "error"
)

var (
	// EventsConsumed counts every fetched message by how it left the
	// consumer. Malformed and exhausted messages are committed unhandled.
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "puros",
			Subsystem: "events",
			Name:      "consumed_total",
			Help:      "Events fetched from the broker, by outcome.",
		},
		[]string{"topic", "consumer_group", "outcome"},
	)

	EventHandleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "puros",
			Subsystem: "events",
			Name:      "handle_duration_seconds",
			Help:      "Time spent handling one event, retries included.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"topic", "consumer_group"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "puros",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events written to the broker, by outcome.",
		},
		[]string{"topic", "outcome"},
	)
)
