package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/puros/internal/domain"
	pkgkafka "github.com/utafrali/puros/pkg/kafka"
)

// Kafka topics for Puros domain events.
var (
	TopicReviewCreated = pkgkafka.Topic("review", "created")
	TopicFollowCreated = pkgkafka.Topic("follow", "created")
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeFollow = "follow"
)

// SourcePuros identifies events emitted by the API.
const SourcePuros = "puros-api"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  string  `json:"review_id"`
	AuthorID  string  `json:"author_id"`
	CigarName string  `json:"cigar_name"`
	Rating    float64 `json:"rating"`
}

// FollowCreatedData is the payload for a follow.created event.
type FollowCreatedData struct {
	FollowID    string `json:"follow_id"`
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

// Producer publishes domain events. A Producer without a publisher drops
// events silently.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. publisher may be nil.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ReviewID:  review.ID,
		AuthorID:  review.AuthorID,
		CigarName: review.CigarName,
		Rating:    review.Rating,
	}
	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, data)
}

// PublishFollowCreated publishes a follow.created event.
func (p *Producer) PublishFollowCreated(ctx context.Context, follow *domain.Follow) error {
	data := FollowCreatedData{
		FollowID:    follow.ID,
		FollowerID:  follow.FollowerID,
		FollowingID: follow.FollowingID,
	}
	return p.publish(ctx, TopicFollowCreated, follow.ID, AggregateTypeFollow, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(ctx, topic, aggregateID, aggregateType, SourcePuros, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
