package event

import (
	"context"

	pkgkafka "github.com/utafrali/puros/pkg/kafka"
)

// LocalPublisher delivers events to a handler in-process. It stands in for
// Kafka when no brokers are configured.
type LocalPublisher struct {
	handler pkgkafka.Handler
}

// NewLocalPublisher returns a publisher that calls handler for every event.
func NewLocalPublisher(handler pkgkafka.Handler) *LocalPublisher {
	return &LocalPublisher{handler: handler}
}

// Publish runs the handler synchronously and returns its error.
func (p *LocalPublisher) Publish(ctx context.Context, _ string, event *pkgkafka.Event) error {
	return p.handler(ctx, event)
}
