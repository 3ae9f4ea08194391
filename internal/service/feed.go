package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/internal/repository"
	"github.com/utafrali/puros/pkg/pagination"
)

// FeedRequest asks for one page of the global or a profile-scoped feed.
type FeedRequest struct {
	Filters       query.FilterState
	SubjectUserID string
	Page          int
	PerPage       int
}

// FeedService lists reviews.
type FeedService struct {
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(reviews repository.ReviewRepository, logger *slog.Logger) *FeedService {
	return &FeedService{reviews: reviews, logger: logger}
}

// List returns the requested page. The count and the page are read
// concurrently and either failure fails the whole call. A page past the end
// is clamped to the last page.
func (s *FeedService) List(ctx context.Context, req FeedRequest) (*pagination.Result[domain.Review], error) {
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}
	params := pagination.Params{Page: req.Page, PerPage: req.PerPage}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 {
		params.PerPage = pagination.DefaultPerPage
	}

	today := now()
	q := query.Compose(req.Filters, req.SubjectUserID, query.PageRange(params.Page, params.PerPage), today)

	var (
		total int
		rows  []domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.reviews.Count(gctx, q.CountQuery())
		if err != nil {
			return storeError("count reviews", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		r, err := s.reviews.Find(gctx, q)
		if err != nil {
			return storeError("find reviews", err)
		}
		rows = r
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "feed fetch failed", slog.String("error", err.Error()))
		return nil, err
	}

	if clamped := params.Clamp(total); clamped.Page != params.Page {
		params = clamped
		q = query.Compose(req.Filters, req.SubjectUserID, query.PageRange(params.Page, params.PerPage), today)
		r, err := s.reviews.Find(ctx, q)
		if err != nil {
			return nil, storeError("find reviews", err)
		}
		rows = r
	}

	result := pagination.NewResult(rows, total, params)
	return &result, nil
}
