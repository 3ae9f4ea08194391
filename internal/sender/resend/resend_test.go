package resend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/puros/internal/sender"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	return httpclient.New(cfg)
}

func TestSender_Send(t *testing.T) {
	var got sendRequest
	var auth, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		key = r.Header.Get(httpclient.IdempotencyKeyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	s := New(Config{APIURL: srv.URL, APIKey: "re_test", From: "noreply@puros.app"}, testClient(), testLogger())
	msg := sender.FollowMessage("Ana", "bo@example.com", "https://puros.app")
	msg.ID = "evt-1"

	ok, err := s.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, "evt-1", key)
	assert.Equal(t, []string{"bo@example.com"}, got.To)
	assert.Equal(t, "noreply@puros.app", got.From)
	assert.Equal(t, msg.Subject, got.Subject)
}

func TestSender_RetriesKeyedRequestOn503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{APIURL: srv.URL}, testClient(), testLogger())
	ok, err := s.Send(context.Background(), sender.FollowMessage("Ana", "bo@example.com", ""))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_ProviderRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"message":"Invalid to field"}`))
	}))
	defer srv.Close()

	s := New(Config{APIURL: srv.URL}, testClient(), testLogger())
	ok, err := s.Send(context.Background(), sender.FollowMessage("Ana", "not-an-email", ""))
	assert.False(t, ok)
	assert.ErrorIs(t, err, apperrors.ErrNotificationFailed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

type failingDoer struct{}

func (failingDoer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return nil, httpclient.ErrCircuitOpen
}

func TestSender_CircuitOpen(t *testing.T) {
	s := New(Config{}, failingDoer{}, testLogger())
	ok, err := s.Send(context.Background(), sender.NewPostMessage("Ana", "Cohiba", 5, "bo@example.com", "u"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, apperrors.ErrNotificationFailed)
	assert.True(t, errors.Is(err, httpclient.ErrCircuitOpen))
	assert.Equal(t, DefaultAPIURL, s.cfg.APIURL)
}
