package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/event"
	"github.com/utafrali/puros/internal/repository"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// ReviewInput holds the editable fields of a review. A zero ReviewDate means
// today.
type ReviewInput struct {
	CigarName  string
	Rating     float64
	Notes      string
	ReviewDate time.Time
	Images     []string
}

func (in *ReviewInput) validate() error {
	in.CigarName = strings.TrimSpace(in.CigarName)
	if in.CigarName == "" {
		return apperrors.InvalidInput("cigar name is required")
	}
	if !domain.ValidRating(in.Rating) || in.Rating == 0 {
		return apperrors.InvalidInput("rating must be between 0.5 and 5 in half-star steps")
	}
	if len(in.Images) > domain.MaxReviewImages {
		return apperrors.InvalidInput(fmt.Sprintf("a review can have at most %d images", domain.MaxReviewImages))
	}
	return nil
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	repo     repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
	bg       *background
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		bg:       &background{logger: logger},
	}
}

// Get returns one review.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get review", err)
	}
	return review, nil
}

// Create stores a new review by viewerID. The review.created event is
// published afterwards without blocking or failing the call.
func (s *ReviewService) Create(ctx context.Context, viewerID string, input ReviewInput) (*domain.Review, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	ts := now()
	review := &domain.Review{
		ID:         uuid.New().String(),
		AuthorID:   viewerID,
		CigarName:  input.CigarName,
		Rating:     input.Rating,
		Notes:      input.Notes,
		ReviewDate: reviewDate(input.ReviewDate, ts),
		Images:     imagesOrEmpty(input.Images),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, storeError("create review", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("author_id", review.AuthorID),
		slog.Float64("rating", review.Rating),
	)

	published := *review
	s.bg.Go(ctx, "publish review.created", func(ctx context.Context) error {
		return s.producer.PublishReviewCreated(ctx, &published)
	})

	return review, nil
}

// Update replaces the editable fields of a review owned by viewerID.
func (s *ReviewService) Update(ctx context.Context, viewerID, id string, input ReviewInput) (*domain.Review, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	ts := now()
	review := &domain.Review{
		ID:         id,
		AuthorID:   viewerID,
		CigarName:  input.CigarName,
		Rating:     input.Rating,
		Notes:      input.Notes,
		ReviewDate: reviewDate(input.ReviewDate, ts),
		Images:     imagesOrEmpty(input.Images),
		UpdatedAt:  ts,
	}

	n, err := s.repo.Update(ctx, review)
	if err != nil {
		return nil, storeError("update review", err)
	}
	if n == 0 {
		return nil, apperrors.NotFoundOrNotOwned("review", id)
	}

	return s.Get(ctx, id)
}

// Delete removes a review owned by viewerID.
func (s *ReviewService) Delete(ctx context.Context, viewerID, id string) error {
	if err := requireViewer(viewerID); err != nil {
		return err
	}

	n, err := s.repo.Delete(ctx, id, viewerID)
	if err != nil {
		return storeError("delete review", err)
	}
	if n == 0 {
		return apperrors.NotFoundOrNotOwned("review", id)
	}

	s.logger.InfoContext(ctx, "review deleted", slog.String("review_id", id))
	return nil
}

// Wait blocks until pending event publishes finish.
func (s *ReviewService) Wait() {
	s.bg.Wait()
}

func reviewDate(d, fallback time.Time) time.Time {
	if d.IsZero() {
		return domain.Date(fallback)
	}
	return domain.Date(d)
}

func imagesOrEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
