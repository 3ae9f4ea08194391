package repository

import (
	"context"
	"time"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
)

// ReviewRepository defines review persistence. Update and Delete are scoped
// to the author and report the number of rows they changed; zero means the
// review is gone or belongs to someone else.
type ReviewRepository interface {
	// Find returns the rows selected by q in q's order.
	Find(ctx context.Context, q query.Query) ([]domain.Review, error)

	// Count returns the number of rows matching q's filters.
	Count(ctx context.Context, q query.Query) (int, error)

	GetByID(ctx context.Context, id string) (*domain.Review, error)
	Create(ctx context.Context, review *domain.Review) error
	Update(ctx context.Context, review *domain.Review) (int64, error)
	Delete(ctx context.Context, id, authorID string) (int64, error)
	CountByAuthor(ctx context.Context, authorID string) (int, error)
}

// LikeRepository defines like persistence.
type LikeRepository interface {
	// Create returns an AlreadyExists error when userID already likes the review.
	Create(ctx context.Context, like *domain.Like) error
	Delete(ctx context.Context, reviewID, userID string) (int64, error)
	Exists(ctx context.Context, reviewID, userID string) (bool, error)
	CountByReview(ctx context.Context, reviewID string) (int, error)
}

// FollowRepository defines follow persistence.
type FollowRepository interface {
	// Create returns an AlreadyExists error when the pair already exists.
	Create(ctx context.Context, follow *domain.Follow) error
	Delete(ctx context.Context, followerID, followingID string) (int64, error)

	// Get returns ErrNotFound when followerID does not follow followingID.
	Get(ctx context.Context, followerID, followingID string) (*domain.Follow, error)
	ListFollowerIDs(ctx context.Context, followingID string) ([]string, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

// CommentRepository defines comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)

	// ListByReview returns comments oldest first.
	ListByReview(ctx context.Context, reviewID string, rng query.Range) ([]domain.Comment, error)
	CountByReview(ctx context.Context, reviewID string) (int, error)
	Update(ctx context.Context, comment *domain.Comment) (int64, error)
	Delete(ctx context.Context, id, authorID string) (int64, error)
}

// ProfileRepository defines profile persistence.
type ProfileRepository interface {
	// Ensure inserts a profile for p.ID if none exists and returns the stored
	// profile. Existing profiles are left untouched.
	Ensure(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
}

// FollowStatsCache caches follower and following counts per user.
type FollowStatsCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, userID string) (stats domain.FollowStats, ok bool, err error)
	Set(ctx context.Context, userID string, stats domain.FollowStats, ttl time.Duration) error
	Invalidate(ctx context.Context, userIDs ...string) error
}
