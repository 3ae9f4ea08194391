package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/internal/sender"
)

// --- Mock ReviewRepository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Find(ctx context.Context, q query.Query) ([]domain.Review, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Count(ctx context.Context, q query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) (int64, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id, authorID string) (int64, error) {
	args := m.Called(ctx, id, authorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReviewRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	args := m.Called(ctx, authorID)
	return args.Int(0), args.Error(1)
}

// --- Mock LikeRepository ---

type mockLikeRepository struct {
	mock.Mock
}

func (m *mockLikeRepository) Create(ctx context.Context, like *domain.Like) error {
	args := m.Called(ctx, like)
	return args.Error(0)
}

func (m *mockLikeRepository) Delete(ctx context.Context, reviewID, userID string) (int64, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLikeRepository) Exists(ctx context.Context, reviewID, userID string) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikeRepository) CountByReview(ctx context.Context, reviewID string) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

// --- Mock FollowRepository ---

type mockFollowRepository struct {
	mock.Mock
}

func (m *mockFollowRepository) Create(ctx context.Context, follow *domain.Follow) error {
	args := m.Called(ctx, follow)
	return args.Error(0)
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followingID string) (int64, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockFollowRepository) Get(ctx context.Context, followerID, followingID string) (*domain.Follow, error) {
	args := m.Called(ctx, followerID, followingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Follow), args.Error(1)
}

func (m *mockFollowRepository) ListFollowerIDs(ctx context.Context, followingID string) ([]string, error) {
	args := m.Called(ctx, followingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockFollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockFollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// --- Mock CommentRepository ---

type mockCommentRepository struct {
	mock.Mock
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) ListByReview(ctx context.Context, reviewID string, rng query.Range) ([]domain.Comment, error) {
	args := m.Called(ctx, reviewID, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) CountByReview(ctx context.Context, reviewID string) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

func (m *mockCommentRepository) Update(ctx context.Context, comment *domain.Comment) (int64, error) {
	args := m.Called(ctx, comment)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCommentRepository) Delete(ctx context.Context, id, authorID string) (int64, error) {
	args := m.Called(ctx, id, authorID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock ProfileRepository ---

type mockProfileRepository struct {
	mock.Mock
}

func (m *mockProfileRepository) Ensure(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Profile), args.Error(1)
}

func (m *mockProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// --- Mock FollowStatsCache ---

type mockStatsCache struct {
	mock.Mock
}

func (m *mockStatsCache) Get(ctx context.Context, userID string) (domain.FollowStats, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.FollowStats), args.Bool(1), args.Error(2)
}

func (m *mockStatsCache) Set(ctx context.Context, userID string, stats domain.FollowStats, ttl time.Duration) error {
	args := m.Called(ctx, userID, stats, ttl)
	return args.Error(0)
}

func (m *mockStatsCache) Invalidate(ctx context.Context, userIDs ...string) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}

// --- Mock Sender ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Name() string {
	return "mock"
}

func (m *mockSender) Send(ctx context.Context, msg *sender.Message) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
