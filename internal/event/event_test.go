package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/puros/internal/domain"
	pkgkafka "github.com/utafrali/puros/pkg/kafka"
	"github.com/utafrali/puros/pkg/logger"
)

// --- Mocks ---

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) FanOutNewPost(ctx context.Context, authorID, reviewID string) (domain.FanOutResult, error) {
	args := m.Called(ctx, authorID, reviewID)
	return args.Get(0).(domain.FanOutResult), args.Error(1)
}

func (m *mockNotifier) NotifyFollow(ctx context.Context, followerID, followingID string) error {
	args := m.Called(ctx, followerID, followingID)
	return args.Error(0)
}

type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEvent(eventType string, data any) *pkgkafka.Event {
	dataBytes, _ := json.Marshal(data)
	return &pkgkafka.Event{
		EventID:   "evt-test-123",
		EventType: eventType,
		Version:   1,
		Timestamp: time.Now().UTC(),
		Source:    "test",
		Data:      dataBytes,
	}
}

// --- Producer ---

func TestTopics(t *testing.T) {
	assert.Equal(t, "puros.review.created", TopicReviewCreated)
	assert.Equal(t, "puros.follow.created", TopicFollowCreated)
}

func TestProducer_PublishReviewCreated(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, newTestLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	err := p.PublishReviewCreated(ctx, &domain.Review{ID: "r1", AuthorID: "u1", CigarName: "Cohiba", Rating: 4.5})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicReviewCreated, pub.topics[0])
	ev := pub.events[0]
	assert.Equal(t, "r1", ev.AggregateID)
	assert.Equal(t, AggregateTypeReview, ev.AggregateType)
	assert.Equal(t, "corr-1", ev.CorrelationID)

	var data ReviewCreatedData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, ReviewCreatedData{ReviewID: "r1", AuthorID: "u1", CigarName: "Cohiba", Rating: 4.5}, data)
}

func TestProducer_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	p := NewProducer(pub, newTestLogger())

	err := p.PublishFollowCreated(context.Background(), &domain.Follow{ID: "f1", FollowerID: "a", FollowingID: "b"})
	assert.ErrorContains(t, err, "broker down")
}

func TestProducer_NilPublisherIsNoop(t *testing.T) {
	p := NewProducer(nil, newTestLogger())
	assert.NoError(t, p.PublishReviewCreated(context.Background(), &domain.Review{ID: "r1"}))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishFollowCreated(context.Background(), &domain.Follow{ID: "f1"}))
}

// --- Consumer ---

func TestConsumerHandler_ReviewCreated(t *testing.T) {
	n := new(mockNotifier)
	h := NewConsumerHandler(n, newTestLogger())
	n.On("FanOutNewPost", mock.Anything, "u1", "r1").Return(domain.FanOutResult{Sent: 2, Total: 3}, nil)

	err := h.Handle(context.Background(), newTestEvent(TopicReviewCreated, ReviewCreatedData{ReviewID: "r1", AuthorID: "u1"}))
	require.NoError(t, err)
	n.AssertExpectations(t)
}

func TestConsumerHandler_ReviewCreatedErrorIsRetried(t *testing.T) {
	n := new(mockNotifier)
	h := NewConsumerHandler(n, newTestLogger())
	n.On("FanOutNewPost", mock.Anything, "u1", "r1").Return(domain.FanOutResult{}, errors.New("db down"))

	err := h.Handle(context.Background(), newTestEvent(TopicReviewCreated, ReviewCreatedData{ReviewID: "r1", AuthorID: "u1"}))
	assert.ErrorContains(t, err, "db down")
}

func TestConsumerHandler_FollowCreated(t *testing.T) {
	n := new(mockNotifier)
	h := NewConsumerHandler(n, newTestLogger())
	n.On("NotifyFollow", mock.Anything, "a", "b").Return(nil)

	err := h.Handle(context.Background(), newTestEvent(TopicFollowCreated, FollowCreatedData{FollowID: "f1", FollowerID: "a", FollowingID: "b"}))
	require.NoError(t, err)
	n.AssertExpectations(t)
}

func TestConsumerHandler_MalformedPayloadIsDropped(t *testing.T) {
	n := new(mockNotifier)
	h := NewConsumerHandler(n, newTestLogger())

	ev := newTestEvent(TopicFollowCreated, nil)
	ev.Data = json.RawMessage(`{"follower_id":`)

	assert.NoError(t, h.Handle(context.Background(), ev))
	n.AssertNotCalled(t, "NotifyFollow", mock.Anything, mock.Anything, mock.Anything)
}

func TestConsumerHandler_UnknownType(t *testing.T) {
	n := new(mockNotifier)
	h := NewConsumerHandler(n, newTestLogger())
	assert.NoError(t, h.Handle(context.Background(), newTestEvent("puros.unknown.thing", nil)))
}

func TestLocalPublisher_DeliversThroughIdempotentHandler(t *testing.T) {
	n := new(mockNotifier)
	h := NewConsumerHandler(n, newTestLogger())
	n.On("NotifyFollow", mock.Anything, "a", "b").Return(nil).Once()

	store := pkgkafka.NewMemoryIdempotencyStore(time.Minute)
	local := NewLocalPublisher(pkgkafka.IdempotentHandler(store, h.Handle, newTestLogger()))

	ev := newTestEvent(TopicFollowCreated, FollowCreatedData{FollowID: "f1", FollowerID: "a", FollowingID: "b"})
	require.NoError(t, local.Publish(context.Background(), TopicFollowCreated, ev))
	require.NoError(t, local.Publish(context.Background(), TopicFollowCreated, ev))

	n.AssertExpectations(t)
}
