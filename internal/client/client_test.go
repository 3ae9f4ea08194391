package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/feed"
	"github.com/utafrali/puros/internal/query"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDoer() httpclient.Doer {
	return httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxConnsPerHost: 4})
}

func newTestClient(t *testing.T, h http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, testDoer(), func(context.Context) string { return token }, testLogger())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetch_EncodesFiltersAndPage(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, http.StatusOK, map[string]any{
			"data":        []map[string]any{{"id": "r1", "cigar_name": "Padron 1964", "rating": 4.5}},
			"total_count": 11,
			"page":        2,
			"per_page":    5,
		})
	}, "")

	floor := 4
	res, err := c.Fetch(context.Background(), feed.Request{
		Filters: query.FilterState{
			RatingFloor:   &floor,
			DateRange:     query.DateMonth,
			NameSubstring: "padron",
			SortKey:       query.SortRatingHigh,
		},
		SubjectUserID: "user-1",
		Page:          2,
		PageSize:      5,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/api/v1/users/user-1/reviews", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "4", q.Get("rating"))
	assert.Equal(t, "month", q.Get("date_range"))
	assert.Equal(t, "padron", q.Get("q"))
	assert.Equal(t, "rating_high", q.Get("sort"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "5", q.Get("per_page"))
	assert.Empty(t, got.Header.Get("Authorization"))

	assert.Equal(t, 11, res.Total)
	require.Len(t, res.Reviews, 1)
	assert.Equal(t, "Padron 1964", res.Reviews[0].CigarName)
}

func TestFetch_GlobalFeedOmitsEmptyFilters(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}, "total_count": 0})
	}, "")

	_, err := c.Fetch(context.Background(), feed.Request{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/reviews", got.URL.Path)
	assert.False(t, got.URL.Query().Has("rating"))
	assert.False(t, got.URL.Query().Has("q"))
}

func TestMutations_SendBearerAndIdempotencyKey(t *testing.T) {
	var got *http.Request
	var body map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": "f1", "following_id": "user-2"}})
	}, "tok-123")

	f, err := c.Follow(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get(httpclient.IdempotencyKeyHeader))
	assert.Equal(t, "user-2", body["following_id"])
}

func TestErrorEnvelope_MapsToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"not owned", http.StatusNotFound, "NOT_FOUND_OR_NOT_OWNED", apperrors.ErrNotFoundOrNotOwned},
		{"auth", http.StatusUnauthorized, "AUTH_REQUIRED", apperrors.ErrAuthRequired},
		{"validation", http.StatusBadRequest, "VALIDATION_ERROR", apperrors.ErrInvalidInput},
		{"store", http.StatusInternalServerError, "STORE_ERROR", apperrors.ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, map[string]any{"error": map[string]string{"code": tt.code, "message": "nope"}})
			}, "tok")

			err := c.DeleteReview(context.Background(), "r1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteFunc_ZeroRowsOnNotOwned(t *testing.T) {
	status, code := http.StatusNotFound, "NOT_FOUND_OR_NOT_OWNED"
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": "x"}})
	}, "tok")
	viewer := domain.Viewer{ID: "user-1"}

	n, err := c.DeleteCommentFunc("c1")(context.Background(), viewer)
	require.NoError(t, err)
	assert.Zero(t, n)

	status, code = http.StatusInternalServerError, "STORE_ERROR"
	_, err = c.DeleteCommentFunc("c1")(context.Background(), viewer)
	assert.ErrorIs(t, err, apperrors.ErrStore)

	status = http.StatusNoContent
	n, err = c.DeleteReviewFunc("r1")(context.Background(), viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTransportFailure_IsStoreError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, testDoer(), nil, testLogger())

	_, err := c.Fetch(context.Background(), feed.Request{Page: 1, PageSize: 20})
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestCanceledContext_IsNotStoreError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, "")
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, feed.Request{Page: 1, PageSize: 20})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrStore)
}
