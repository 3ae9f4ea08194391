package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/puros/internal/domain"
	pkgkafka "github.com/utafrali/puros/pkg/kafka"
)

// ConsumerGroupID is the consumer group of the notification worker.
const ConsumerGroupID = "puros-notifications"

// Notifier sends the emails triggered by domain events.
type Notifier interface {
	FanOutNewPost(ctx context.Context, authorID, reviewID string) (domain.FanOutResult, error)
	NotifyFollow(ctx context.Context, followerID, followingID string) error
}

// ConsumerHandler routes incoming events to the notifier.
type ConsumerHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler.
func NewConsumerHandler(notifier Notifier, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// Handle processes an incoming event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicReviewCreated:
		return h.handleReviewCreated(ctx, event)
	case TopicFollowCreated:
		return h.handleFollowCreated(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleReviewCreated(ctx context.Context, event *pkgkafka.Event) error {
	var data ReviewCreatedData
	if err := event.UnmarshalData(&data); err != nil {
		// A malformed payload never becomes valid; do not retry it.
		h.logger.ErrorContext(ctx, "invalid review.created payload",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	result, err := h.notifier.FanOutNewPost(ctx, data.AuthorID, data.ReviewID)
	if err != nil {
		return fmt.Errorf("fan out review %s: %w", data.ReviewID, err)
	}

	h.logger.InfoContext(ctx, "new review notifications sent",
		slog.String("review_id", data.ReviewID),
		slog.Int("sent", result.Sent),
		slog.Int("total", result.Total),
	)
	return nil
}

func (h *ConsumerHandler) handleFollowCreated(ctx context.Context, event *pkgkafka.Event) error {
	var data FollowCreatedData
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.ErrorContext(ctx, "invalid follow.created payload",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := h.notifier.NotifyFollow(ctx, data.FollowerID, data.FollowingID); err != nil {
		return fmt.Errorf("notify follow %s: %w", data.FollowID, err)
	}
	return nil
}

// NewConsumer creates a Kafka consumer for every topic the notification
// worker subscribes to.
func NewConsumer(brokers []string, handler pkgkafka.Handler, logger *slog.Logger) *pkgkafka.Consumer {
	cfg := pkgkafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  ConsumerGroupID,
		Topics:   []string{TopicReviewCreated, TopicFollowCreated},
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	return pkgkafka.NewConsumer(cfg, handler, logger)
}
