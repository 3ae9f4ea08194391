package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/internal/repository"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/pagination"
)

// MaxCommentLength bounds comment content in characters.
const MaxCommentLength = 2000

// CommentService implements comments on reviews.
type CommentService struct {
	reviews  repository.ReviewRepository
	comments repository.CommentRepository
	logger   *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(reviews repository.ReviewRepository, comments repository.CommentRepository, logger *slog.Logger) *CommentService {
	return &CommentService{reviews: reviews, comments: comments, logger: logger}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.InvalidInput("comment cannot be empty")
	}
	if len([]rune(content)) > MaxCommentLength {
		return "", apperrors.InvalidInput("comment is too long")
	}
	return content, nil
}

// List returns a page of a review's comments, oldest first.
func (s *CommentService) List(ctx context.Context, reviewID string, params pagination.Params) (*pagination.Result[domain.Comment], error) {
	total, err := s.comments.CountByReview(ctx, reviewID)
	if err != nil {
		return nil, storeError("count comments", err)
	}

	params = params.Clamp(total)
	rows, err := s.comments.ListByReview(ctx, reviewID, query.PageRange(params.Page, params.PerPage))
	if err != nil {
		return nil, storeError("list comments", err)
	}

	result := pagination.NewResult(rows, total, params)
	return &result, nil
}

// Create adds a comment by viewerID.
func (s *CommentService) Create(ctx context.Context, viewerID, reviewID, content string) (*domain.Comment, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return nil, storeError("get review", err)
	}

	ts := now()
	comment := &domain.Comment{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		AuthorID:  viewerID,
		Content:   content,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, storeError("create comment", err)
	}

	s.logger.InfoContext(ctx, "comment created",
		slog.String("comment_id", comment.ID),
		slog.String("review_id", reviewID),
	)

	if stored, err := s.comments.GetByID(ctx, comment.ID); err == nil {
		return stored, nil
	}
	return comment, nil
}

// Update edits a comment owned by viewerID.
func (s *CommentService) Update(ctx context.Context, viewerID, id, content string) (*domain.Comment, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	n, err := s.comments.Update(ctx, &domain.Comment{ID: id, AuthorID: viewerID, Content: content, UpdatedAt: now()})
	if err != nil {
		return nil, storeError("update comment", err)
	}
	if n == 0 {
		return nil, apperrors.NotFoundOrNotOwned("comment", id)
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get comment", err)
	}
	return comment, nil
}

// Delete removes a comment owned by viewerID.
func (s *CommentService) Delete(ctx context.Context, viewerID, id string) error {
	if err := requireViewer(viewerID); err != nil {
		return err
	}

	n, err := s.comments.Delete(ctx, id, viewerID)
	if err != nil {
		return storeError("delete comment", err)
	}
	if n == 0 {
		return apperrors.NotFoundOrNotOwned("comment", id)
	}
	return nil
}
