package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// LikeRepository implements repository.LikeRepository.
type LikeRepository struct{ s *Store }

func NewLikeRepository(s *Store) *LikeRepository { return &LikeRepository{s: s} }

func (r *LikeRepository) Create(_ context.Context, l *domain.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, cur := range r.s.likes {
		if cur.ReviewID == l.ReviewID && cur.UserID == l.UserID {
			return apperrors.AlreadyExists("like", "review_id", l.ReviewID)
		}
	}
	r.s.likes[l.ID] = *l
	return nil
}

func (r *LikeRepository) Delete(_ context.Context, reviewID, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, cur := range r.s.likes {
		if cur.ReviewID == reviewID && cur.UserID == userID {
			delete(r.s.likes, k)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *LikeRepository) Exists(_ context.Context, reviewID, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, cur := range r.s.likes {
		if cur.ReviewID == reviewID && cur.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *LikeRepository) CountByReview(_ context.Context, reviewID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, cur := range r.s.likes {
		if cur.ReviewID == reviewID {
			n++
		}
	}
	return n, nil
}

// FollowRepository implements repository.FollowRepository.
type FollowRepository struct{ s *Store }

func NewFollowRepository(s *Store) *FollowRepository { return &FollowRepository{s: s} }

func (r *FollowRepository) Create(_ context.Context, f *domain.Follow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, cur := range r.s.follows {
		if cur.FollowerID == f.FollowerID && cur.FollowingID == f.FollowingID {
			return apperrors.AlreadyExists("follow", "following_id", f.FollowingID)
		}
	}
	r.s.follows[f.ID] = *f
	return nil
}

func (r *FollowRepository) Delete(_ context.Context, followerID, followingID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, cur := range r.s.follows {
		if cur.FollowerID == followerID && cur.FollowingID == followingID {
			delete(r.s.follows, k)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *FollowRepository) Get(_ context.Context, followerID, followingID string) (*domain.Follow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, cur := range r.s.follows {
		if cur.FollowerID == followerID && cur.FollowingID == followingID {
			f := cur
			return &f, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListFollowerIDs returns followers of followingID, earliest first.
func (r *FollowRepository) ListFollowerIDs(_ context.Context, followingID string) ([]string, error) {
	r.s.mu.RLock()
	var matched []domain.Follow
	for _, cur := range r.s.follows {
		if cur.FollowingID == followingID {
			matched = append(matched, cur)
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Follow) int { return a.CreatedAt.Compare(b.CreatedAt) })
	ids := make([]string, len(matched))
	for i, f := range matched {
		ids[i] = f.FollowerID
	}
	return ids, nil
}

func (r *FollowRepository) CountFollowers(_ context.Context, userID string) (int, error) {
	return r.count(func(f domain.Follow) bool { return f.FollowingID == userID }), nil
}

func (r *FollowRepository) CountFollowing(_ context.Context, userID string) (int, error) {
	return r.count(func(f domain.Follow) bool { return f.FollowerID == userID }), nil
}

func (r *FollowRepository) count(match func(domain.Follow) bool) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, f := range r.s.follows {
		if match(f) {
			n++
		}
	}
	return n
}

// CommentRepository implements repository.CommentRepository.
type CommentRepository struct{ s *Store }

func NewCommentRepository(s *Store) *CommentRepository { return &CommentRepository{s: s} }

func (r *CommentRepository) Create(_ context.Context, c *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *c
	stored.Author = nil
	r.s.comments[c.ID] = stored
	return nil
}

func (r *CommentRepository) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, apperrors.NotFound("comment", id)
	}
	c.Author = r.s.summaryLocked(c.AuthorID)
	return &c, nil
}

// ListByReview returns one window of a review's comments, oldest first.
func (r *CommentRepository) ListByReview(_ context.Context, reviewID string, rng query.Range) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []domain.Comment{}
	for _, c := range r.s.comments {
		if c.ReviewID == reviewID {
			c.Author = r.s.summaryLocked(c.AuthorID)
			matched = append(matched, c)
		}
	}
	slices.SortFunc(matched, func(a, b domain.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	start := min(max(rng.Start, 0), len(matched))
	end := min(start+rng.Limit(), len(matched))
	return matched[start:end], nil
}

func (r *CommentRepository) CountByReview(_ context.Context, reviewID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, c := range r.s.comments {
		if c.ReviewID == reviewID {
			n++
		}
	}
	return n, nil
}

func (r *CommentRepository) Update(_ context.Context, c *domain.Comment) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.comments[c.ID]
	if !ok || cur.AuthorID != c.AuthorID {
		return 0, nil
	}
	cur.Content = c.Content
	cur.UpdatedAt = c.UpdatedAt
	r.s.comments[c.ID] = cur
	return 1, nil
}

func (r *CommentRepository) Delete(_ context.Context, id, authorID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.comments[id]
	if !ok || cur.AuthorID != authorID {
		return 0, nil
	}
	delete(r.s.comments, id)
	return 1, nil
}

// ProfileRepository implements repository.ProfileRepository.
type ProfileRepository struct{ s *Store }

func NewProfileRepository(s *Store) *ProfileRepository { return &ProfileRepository{s: s} }

func (r *ProfileRepository) Ensure(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.profiles[p.ID]
	if !ok {
		cur = *p
		if cur.CreatedAt.IsZero() {
			cur.CreatedAt = time.Now().UTC()
			cur.UpdatedAt = cur.CreatedAt
		}
		r.s.profiles[p.ID] = cur
	}
	return &cur, nil
}

func (r *ProfileRepository) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, apperrors.NotFound("profile", id)
	}
	return &p, nil
}

func (r *ProfileRepository) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]*domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (r *ProfileRepository) Update(_ context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.profiles[p.ID]
	if !ok {
		return apperrors.NotFound("profile", p.ID)
	}
	cur.FirstName = p.FirstName
	cur.LastName = p.LastName
	cur.AvatarURL = p.AvatarURL
	cur.UpdatedAt = p.UpdatedAt
	r.s.profiles[p.ID] = cur
	return nil
}
