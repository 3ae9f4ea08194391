package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/puros/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type reviewPayload struct {
	ReviewID string `json:"review_id"`
	AuthorID string `json:"author_id"`
}

func TestNewEvent_Fields(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	event, err := NewEvent(ctx, "review.created", "rev-1", "review", "puros", reviewPayload{ReviewID: "rev-1", AuthorID: "user-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "review.created", event.EventType)
	assert.Equal(t, "rev-1", event.AggregateID)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.False(t, event.Timestamp.IsZero())

	var got reviewPayload
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, "user-1", got.AuthorID)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent(context.Background(), "x", "1", "y", "puros", make(chan int))
	assert.Error(t, err)
}

func TestUnmarshalEvent(t *testing.T) {
	_, err := UnmarshalEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"e1"}`))
	assert.Error(t, err, "an event without a type is rejected")

	event, err := UnmarshalEvent([]byte(`{"event_id":"e1","event_type":"follow.created","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "follow.created", event.EventType)
}

func TestEvent_WithMetadata_NilMap(t *testing.T) {
	e := &Event{}
	e.WithMetadata("origin", "api")
	assert.Equal(t, "api", e.Metadata["origin"])
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "puros.review.created", Topic("review", "created"))
	assert.Equal(t, "puros.follow.created", Topic("follow", "created"))
}

func TestProducer_Publish_WritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: testLogger()}

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	event, err := NewEvent(ctx, "review.created", "rev-9", "review", "puros", reviewPayload{ReviewID: "rev-9"})
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, Topic("review", "created"), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "puros.review.created", msg.Topic)
	assert.Equal(t, []byte("rev-9"), msg.Key)
	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "review.created", carrier.Get("event_type"))
	assert.Equal(t, "corr-9", carrier.Get("correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestProducer_Publish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Producer{writer: w, logger: testLogger()}

	event, err := NewEvent(context.Background(), "follow.created", "f-1", "follow", "puros", map[string]string{})
	require.NoError(t, err)

	err = p.Publish(context.Background(), Topic("follow", "created"), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "puros.follow.created")
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:9092"})
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.False(t, cfg.Async)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
