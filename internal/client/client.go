// Package client is a typed client for the Puros HTTP API. It backs the feed
// view and the optimistic controls with real network calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/feed"
	"github.com/utafrali/puros/internal/optimistic"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httpclient"
	"github.com/utafrali/puros/pkg/pagination"
)

const serviceName = "puros-api"

// TokenFunc returns the bearer token for the signed-in viewer, or "" when
// nobody is signed in.
type TokenFunc func(ctx context.Context) string

// Client calls the Puros API.
type Client struct {
	baseURL string
	http    httpclient.Doer
	token   TokenFunc
	logger  *slog.Logger
}

var _ feed.Source = (*Client)(nil)

// New creates a client for the API rooted at baseURL (e.g.
// "https://api.puros.app"). token may be nil for anonymous use.
func New(baseURL string, doer httpclient.Doer, token TokenFunc, logger *slog.Logger) *Client {
	if token == nil {
		token = func(context.Context) string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		token:   token,
		logger:  logger,
	}
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// ReviewInput is the body of a create-review call.
type ReviewInput struct {
	CigarName  string   `json:"cigar_name"`
	Rating     float64  `json:"rating"`
	Notes      string   `json:"notes,omitempty"`
	ReviewDate string   `json:"review_date,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// --- Feed ---

// Fetch loads one feed page. A request with SubjectUserID reads that author's
// reviews only.
func (c *Client) Fetch(ctx context.Context, req feed.Request) (feed.Result, error) {
	path := "/api/v1/reviews"
	if req.SubjectUserID != "" {
		path = "/api/v1/users/" + url.PathEscape(req.SubjectUserID) + "/reviews"
	}

	q := url.Values{}
	f := req.Filters
	if f.RatingFloor != nil {
		q.Set("rating", strconv.Itoa(*f.RatingFloor))
	}
	if f.DateRange != "" {
		q.Set("date_range", string(f.DateRange))
	}
	if f.NameSubstring != "" {
		q.Set("q", f.NameSubstring)
	}
	if f.SortKey != "" {
		q.Set("sort", string(f.SortKey))
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		q.Set("per_page", strconv.Itoa(req.PageSize))
	}

	var page pagination.Result[domain.Review]
	if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &page); err != nil {
		return feed.Result{}, err
	}
	return feed.Result{Reviews: page.Data, Total: page.TotalCount}, nil
}

// --- Reviews ---

// CreateReview publishes a review as the signed-in viewer.
func (c *Client) CreateReview(ctx context.Context, in ReviewInput) (*domain.Review, error) {
	var out dataEnvelope[*domain.Review]
	if err := c.do(ctx, http.MethodPost, "/api/v1/reviews", in, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteReview deletes one of the viewer's reviews.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/reviews/"+url.PathEscape(id), nil, nil)
}

// NotifyNewPost asks the API to email the author's followers about reviewID.
func (c *Client) NotifyNewPost(ctx context.Context, reviewID string) (domain.FanOutResult, error) {
	var out dataEnvelope[domain.FanOutResult]
	err := c.do(ctx, http.MethodPost, "/api/v1/notifications/new-post", map[string]string{"review_id": reviewID}, &out)
	return out.Data, err
}

// --- Likes ---

// Like records the viewer's like on a review.
func (c *Client) Like(ctx context.Context, reviewID string) (domain.LikeState, error) {
	var out dataEnvelope[domain.LikeState]
	err := c.do(ctx, http.MethodPost, "/api/v1/reviews/"+url.PathEscape(reviewID)+"/likes", nil, &out)
	return out.Data, err
}

// Unlike removes the viewer's like from a review.
func (c *Client) Unlike(ctx context.Context, reviewID string) (domain.LikeState, error) {
	var out dataEnvelope[domain.LikeState]
	err := c.do(ctx, http.MethodDelete, "/api/v1/reviews/"+url.PathEscape(reviewID)+"/likes", nil, &out)
	return out.Data, err
}

// LikeState reads the like count and, when signed in, whether the viewer likes it.
func (c *Client) LikeState(ctx context.Context, reviewID string) (domain.LikeState, error) {
	var out dataEnvelope[domain.LikeState]
	err := c.do(ctx, http.MethodGet, "/api/v1/reviews/"+url.PathEscape(reviewID)+"/likes", nil, &out)
	return out.Data, err
}

// --- Follows ---

// Follow makes the viewer follow followingID.
func (c *Client) Follow(ctx context.Context, followingID string) (*domain.Follow, error) {
	var out dataEnvelope[*domain.Follow]
	if err := c.do(ctx, http.MethodPost, "/api/v1/follows", map[string]string{"following_id": followingID}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Unfollow removes the viewer's follow of followingID.
func (c *Client) Unfollow(ctx context.Context, followingID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/follows?following_id="+url.QueryEscape(followingID), nil, nil)
}

// FollowStats returns follower and following counts for userID.
func (c *Client) FollowStats(ctx context.Context, userID string) (domain.FollowStats, error) {
	var out dataEnvelope[domain.FollowStats]
	err := c.do(ctx, http.MethodGet, "/api/v1/follows/stats?user_id="+url.QueryEscape(userID), nil, &out)
	return out.Data, err
}

// FollowStatus reports whether the viewer follows userID.
func (c *Client) FollowStatus(ctx context.Context, userID string) (domain.FollowState, error) {
	var out dataEnvelope[domain.FollowState]
	err := c.do(ctx, http.MethodGet, "/api/v1/follows/status?user_id="+url.QueryEscape(userID), nil, &out)
	return out.Data, err
}

// --- Comments ---

// Comments returns one page of a review's comments, oldest first.
func (c *Client) Comments(ctx context.Context, reviewID string, page, perPage int) (*pagination.Result[domain.Comment], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var out pagination.Result[domain.Comment]
	if err := c.do(ctx, http.MethodGet, "/api/v1/reviews/"+url.PathEscape(reviewID)+"/comments?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateComment adds a comment to a review.
func (c *Client) CreateComment(ctx context.Context, reviewID, content string) (*domain.Comment, error) {
	var out dataEnvelope[*domain.Comment]
	if err := c.do(ctx, http.MethodPost, "/api/v1/reviews/"+url.PathEscape(reviewID)+"/comments", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteComment deletes one of the viewer's comments.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/comments/"+url.PathEscape(id), nil, nil)
}

// --- Profiles ---

// EnsureProfile creates the viewer's profile if it does not exist yet.
func (c *Client) EnsureProfile(ctx context.Context) (*domain.Profile, error) {
	var out dataEnvelope[*domain.Profile]
	if err := c.do(ctx, http.MethodPost, "/api/v1/profile/ensure", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// --- Optimistic adapters ---

// LikeCommit commits a like toggle on reviewID.
func (c *Client) LikeCommit(reviewID string) optimistic.CommitFunc {
	return func(ctx context.Context, _ domain.Viewer, on bool) error {
		var err error
		if on {
			_, err = c.Like(ctx, reviewID)
		} else {
			_, err = c.Unlike(ctx, reviewID)
		}
		return err
	}
}

// LikeReconcile reads back the stored like state of reviewID.
func (c *Client) LikeReconcile(reviewID string) optimistic.ReconcileFunc {
	return func(ctx context.Context, _ domain.Viewer) (bool, int, error) {
		state, err := c.LikeState(ctx, reviewID)
		return state.Liked, state.Count, err
	}
}

// FollowCommit commits a follow toggle on userID.
func (c *Client) FollowCommit(userID string) optimistic.CommitFunc {
	return func(ctx context.Context, _ domain.Viewer, on bool) error {
		if on {
			_, err := c.Follow(ctx, userID)
			return err
		}
		return c.Unfollow(ctx, userID)
	}
}

// CreateCommentFunc creates a comment on reviewID.
func (c *Client) CreateCommentFunc(reviewID, content string) optimistic.CreateFunc[domain.Comment] {
	return func(ctx context.Context, _ domain.Viewer) (domain.Comment, error) {
		comment, err := c.CreateComment(ctx, reviewID, content)
		if err != nil {
			return domain.Comment{}, err
		}
		return *comment, nil
	}
}

// DeleteCommentFunc deletes comment id. A comment that is gone or not the
// viewer's affects zero rows.
func (c *Client) DeleteCommentFunc(id string) optimistic.DeleteFunc {
	return deleteFunc(func(ctx context.Context) error { return c.DeleteComment(ctx, id) })
}

// DeleteReviewFunc deletes review id with the same zero-rows mapping.
func (c *Client) DeleteReviewFunc(id string) optimistic.DeleteFunc {
	return deleteFunc(func(ctx context.Context) error { return c.DeleteReview(ctx, id) })
}

func deleteFunc(del func(ctx context.Context) error) optimistic.DeleteFunc {
	return func(ctx context.Context, _ domain.Viewer) (int64, error) {
		err := del(ctx)
		switch {
		case err == nil:
			return 1, nil
		case errors.Is(err, apperrors.ErrNotFoundOrNotOwned):
			return 0, nil
		default:
			return 0, err
		}
	}
}

// do sends one request and decodes a 2xx body into out. Error envelopes come
// back as pkg/errors values.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set(httpclient.IdempotencyKeyHeader, uuid.New().String())
	}
	if tok := c.token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.logger.WarnContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperrors.Store(fmt.Errorf("%s %s: %w", method, path, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Store(fmt.Errorf("decode %s %s response: %w", method, path, err))
	}
	return nil
}
