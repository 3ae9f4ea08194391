package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/repository"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// LikeService implements likes on reviews.
type LikeService struct {
	reviews repository.ReviewRepository
	likes   repository.LikeRepository
	logger  *slog.Logger
}

// NewLikeService creates a new like service.
func NewLikeService(reviews repository.ReviewRepository, likes repository.LikeRepository, logger *slog.Logger) *LikeService {
	return &LikeService{reviews: reviews, likes: likes, logger: logger}
}

// Like records that viewerID likes the review. Liking twice returns an
// AlreadyExists error.
func (s *LikeService) Like(ctx context.Context, viewerID, reviewID string) (*domain.LikeState, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return nil, storeError("get review", err)
	}

	like := &domain.Like{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		UserID:    viewerID,
		CreatedAt: now(),
	}
	if err := s.likes.Create(ctx, like); err != nil {
		return nil, storeError("create like", err)
	}

	return s.State(ctx, viewerID, reviewID)
}

// Unlike removes viewerID's like.
func (s *LikeService) Unlike(ctx context.Context, viewerID, reviewID string) (*domain.LikeState, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}

	n, err := s.likes.Delete(ctx, reviewID, viewerID)
	if err != nil {
		return nil, storeError("delete like", err)
	}
	if n == 0 {
		return nil, apperrors.NotFoundOrNotOwned("like", reviewID)
	}

	return s.State(ctx, viewerID, reviewID)
}

// State returns the like count of a review and whether viewerID likes it.
// An anonymous viewer never likes anything.
func (s *LikeService) State(ctx context.Context, viewerID, reviewID string) (*domain.LikeState, error) {
	count, err := s.likes.CountByReview(ctx, reviewID)
	if err != nil {
		return nil, storeError("count likes", err)
	}

	state := &domain.LikeState{Count: count}
	if viewerID == "" {
		return state, nil
	}
	liked, err := s.likes.Exists(ctx, reviewID, viewerID)
	if err != nil {
		return nil, storeError("check like", err)
	}
	state.Liked = liked
	return state, nil
}
