// Package memory implements the repositories in process memory. It backs
// STORAGE_DRIVER=memory and service tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// Store holds every table. Repositories created from the same Store see each
// other's writes, so deleting a review also drops its likes and comments.
type Store struct {
	mu       sync.RWMutex
	reviews  map[string]domain.Review
	likes    map[string]domain.Like
	follows  map[string]domain.Follow
	comments map[string]domain.Comment
	profiles map[string]domain.Profile
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		reviews:  make(map[string]domain.Review),
		likes:    make(map[string]domain.Like),
		follows:  make(map[string]domain.Follow),
		comments: make(map[string]domain.Comment),
		profiles: make(map[string]domain.Profile),
	}
}

func (s *Store) summaryLocked(userID string) *domain.ProfileSummary {
	if p, ok := s.profiles[userID]; ok {
		return p.Summary()
	}
	return &domain.ProfileSummary{}
}

// ReviewRepository implements repository.ReviewRepository.
type ReviewRepository struct{ s *Store }

func NewReviewRepository(s *Store) *ReviewRepository { return &ReviewRepository{s: s} }

// Find evaluates q over every stored review.
func (r *ReviewRepository) Find(_ context.Context, q query.Query) ([]domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	page, _ := q.Evaluate(r.allLocked())
	out := make([]domain.Review, len(page))
	for i, rv := range page {
		rv.Images = slices.Clone(rv.Images)
		rv.Author = r.s.summaryLocked(rv.AuthorID)
		out[i] = rv
	}
	return out, nil
}

func (r *ReviewRepository) Count(_ context.Context, q query.Query) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, total := q.CountQuery().Evaluate(r.allLocked())
	return total, nil
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	rv.Images = slices.Clone(rv.Images)
	rv.Author = r.s.summaryLocked(rv.AuthorID)
	return &rv, nil
}

func (r *ReviewRepository) Create(_ context.Context, rv *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.reviews[rv.ID]; exists {
		return apperrors.AlreadyExists("review", "id", rv.ID)
	}
	stored := *rv
	stored.Images = slices.Clone(rv.Images)
	stored.Author = nil
	r.s.reviews[rv.ID] = stored
	return nil
}

func (r *ReviewRepository) Update(_ context.Context, rv *domain.Review) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.reviews[rv.ID]
	if !ok || cur.AuthorID != rv.AuthorID {
		return 0, nil
	}
	cur.CigarName = rv.CigarName
	cur.Rating = rv.Rating
	cur.Notes = rv.Notes
	cur.ReviewDate = rv.ReviewDate
	cur.Images = slices.Clone(rv.Images)
	cur.UpdatedAt = rv.UpdatedAt
	r.s.reviews[rv.ID] = cur
	return 1, nil
}

func (r *ReviewRepository) Delete(_ context.Context, id, authorID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.reviews[id]
	if !ok || cur.AuthorID != authorID {
		return 0, nil
	}
	delete(r.s.reviews, id)
	for k, l := range r.s.likes {
		if l.ReviewID == id {
			delete(r.s.likes, k)
		}
	}
	for k, c := range r.s.comments {
		if c.ReviewID == id {
			delete(r.s.comments, k)
		}
	}
	return 1, nil
}

func (r *ReviewRepository) CountByAuthor(_ context.Context, authorID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, rv := range r.s.reviews {
		if rv.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (r *ReviewRepository) allLocked() []domain.Review {
	all := make([]domain.Review, 0, len(r.s.reviews))
	for _, rv := range r.s.reviews {
		all = append(all, rv)
	}
	return all
}
