package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/event"
	"github.com/utafrali/puros/internal/query"
	"github.com/utafrali/puros/internal/repository"
	apperrors "github.com/utafrali/puros/pkg/errors"
	pkgkafka "github.com/utafrali/puros/pkg/kafka"
	"github.com/utafrali/puros/pkg/pagination"
)

// --- Likes ---

func TestLikeService_Like(t *testing.T) {
	reviews := new(mockReviewRepository)
	likes := new(mockLikeRepository)
	svc := NewLikeService(reviews, likes, newTestLogger())

	reviews.On("GetByID", mock.Anything, "r1").Return(&domain.Review{ID: "r1"}, nil)
	likes.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Like) bool {
		return l.ReviewID == "r1" && l.UserID == "user-1"
	})).Return(nil)
	likes.On("CountByReview", mock.Anything, "r1").Return(11, nil)
	likes.On("Exists", mock.Anything, "r1", "user-1").Return(true, nil)

	state, err := svc.Like(context.Background(), "user-1", "r1")
	require.NoError(t, err)
	assert.Equal(t, &domain.LikeState{Liked: true, Count: 11}, state)
}

func TestLikeService_Like_Twice(t *testing.T) {
	reviews := new(mockReviewRepository)
	likes := new(mockLikeRepository)
	svc := NewLikeService(reviews, likes, newTestLogger())

	reviews.On("GetByID", mock.Anything, "r1").Return(&domain.Review{ID: "r1"}, nil)
	likes.On("Create", mock.Anything, mock.Anything).Return(apperrors.AlreadyExists("like", "review_id", "r1"))

	_, err := svc.Like(context.Background(), "user-1", "r1")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestLikeService_Unlike_NothingToRemove(t *testing.T) {
	likes := new(mockLikeRepository)
	svc := NewLikeService(new(mockReviewRepository), likes, newTestLogger())
	likes.On("Delete", mock.Anything, "r1", "user-1").Return(int64(0), nil)

	_, err := svc.Unlike(context.Background(), "user-1", "r1")
	assert.ErrorIs(t, err, apperrors.ErrNotFoundOrNotOwned)
}

func TestLikeService_State_Anonymous(t *testing.T) {
	likes := new(mockLikeRepository)
	svc := NewLikeService(new(mockReviewRepository), likes, newTestLogger())
	likes.On("CountByReview", mock.Anything, "r1").Return(3, nil)

	state, err := svc.State(context.Background(), "", "r1")
	require.NoError(t, err)
	assert.Equal(t, &domain.LikeState{Count: 3}, state)
	likes.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
}

func TestLikeService_RequiresViewer(t *testing.T) {
	svc := NewLikeService(new(mockReviewRepository), new(mockLikeRepository), newTestLogger())
	_, err := svc.Like(context.Background(), "", "r1")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	_, err = svc.Unlike(context.Background(), "", "r1")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

// --- Follows ---

func newFollowService(follows *mockFollowRepository, cache *mockStatsCache, pub pkgkafka.Publisher) *FollowService {
	var c repository.FollowStatsCache
	if cache != nil {
		c = cache
	}
	return NewFollowService(follows, c, time.Minute, event.NewProducer(pub, newTestLogger()), newTestLogger())
}

func TestFollowService_Follow(t *testing.T) {
	follows := new(mockFollowRepository)
	cache := new(mockStatsCache)
	pub := &capturePublisher{events: make(chan *pkgkafka.Event, 1)}
	svc := newFollowService(follows, cache, pub)

	follows.On("Create", mock.Anything, mock.AnythingOfType("*domain.Follow")).Return(nil)
	cache.On("Invalidate", mock.Anything, []string{"user-1", "user-2"}).Return(nil)

	follow, err := svc.Follow(context.Background(), "user-1", "user-2")
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "user-1", follow.FollowerID)
	assert.Equal(t, "user-2", follow.FollowingID)
	ev := <-pub.events
	assert.Equal(t, event.TopicFollowCreated, ev.EventType)
	cache.AssertExpectations(t)
}

func TestFollowService_Follow_Self(t *testing.T) {
	follows := new(mockFollowRepository)
	svc := newFollowService(follows, nil, nil)

	_, err := svc.Follow(context.Background(), "user-1", "user-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	follows.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFollowService_Follow_AlreadyFollowing(t *testing.T) {
	follows := new(mockFollowRepository)
	svc := newFollowService(follows, nil, nil)
	follows.On("Create", mock.Anything, mock.Anything).Return(apperrors.AlreadyExists("follow", "following_id", "user-2"))

	_, err := svc.Follow(context.Background(), "user-1", "user-2")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestFollowService_Unfollow(t *testing.T) {
	follows := new(mockFollowRepository)
	cache := new(mockStatsCache)
	svc := newFollowService(follows, cache, nil)

	follows.On("Delete", mock.Anything, "user-1", "user-2").Return(int64(1), nil).Once()
	cache.On("Invalidate", mock.Anything, []string{"user-1", "user-2"}).Return(errors.New("redis down"))
	require.NoError(t, svc.Unfollow(context.Background(), "user-1", "user-2"))

	follows.On("Delete", mock.Anything, "user-1", "user-2").Return(int64(0), nil).Once()
	assert.ErrorIs(t, svc.Unfollow(context.Background(), "user-1", "user-2"), apperrors.ErrNotFoundOrNotOwned)
}

func TestFollowService_Status(t *testing.T) {
	follows := new(mockFollowRepository)
	svc := newFollowService(follows, nil, nil)

	follows.On("Get", mock.Anything, "user-1", "user-2").Return(&domain.Follow{ID: "f1"}, nil)
	follows.On("Get", mock.Anything, "user-1", "user-3").Return(nil, apperrors.ErrNotFound)

	state, err := svc.Status(context.Background(), "user-1", "user-2")
	require.NoError(t, err)
	assert.Equal(t, &domain.FollowState{Following: true, FollowID: "f1"}, state)

	state, err = svc.Status(context.Background(), "user-1", "user-3")
	require.NoError(t, err)
	assert.False(t, state.Following)

	state, err = svc.Status(context.Background(), "", "user-3")
	require.NoError(t, err)
	assert.False(t, state.Following)
}

func TestFollowService_Stats_CacheMissThenSet(t *testing.T) {
	follows := new(mockFollowRepository)
	cache := new(mockStatsCache)
	svc := newFollowService(follows, cache, nil)

	want := domain.FollowStats{Followers: 4, Following: 2}
	cache.On("Get", mock.Anything, "user-1").Return(domain.FollowStats{}, false, nil)
	follows.On("CountFollowers", mock.Anything, "user-1").Return(4, nil)
	follows.On("CountFollowing", mock.Anything, "user-1").Return(2, nil)
	cache.On("Set", mock.Anything, "user-1", want, time.Minute).Return(nil)

	stats, err := svc.Stats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, want, *stats)
	cache.AssertExpectations(t)
}

func TestFollowService_Stats_CacheHit(t *testing.T) {
	follows := new(mockFollowRepository)
	cache := new(mockStatsCache)
	svc := newFollowService(follows, cache, nil)

	cache.On("Get", mock.Anything, "user-1").Return(domain.FollowStats{Followers: 9}, true, nil)

	stats, err := svc.Stats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 9, stats.Followers)
	follows.AssertNotCalled(t, "CountFollowers", mock.Anything, mock.Anything)
}

func TestFollowService_Stats_StoreError(t *testing.T) {
	follows := new(mockFollowRepository)
	svc := newFollowService(follows, nil, nil)

	follows.On("CountFollowers", mock.Anything, "user-1").Return(0, errors.New("timeout"))
	follows.On("CountFollowing", mock.Anything, "user-1").Return(0, nil).Maybe()

	_, err := svc.Stats(context.Background(), "user-1")
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

// --- Comments ---

func TestCommentService_List(t *testing.T) {
	comments := new(mockCommentRepository)
	svc := NewCommentService(new(mockReviewRepository), comments, newTestLogger())

	comments.On("CountByReview", mock.Anything, "r1").Return(3, nil)
	comments.On("ListByReview", mock.Anything, "r1", query.Range{Start: 2, End: 3}).
		Return([]domain.Comment{{ID: "c3"}}, nil)

	res, err := svc.List(context.Background(), "r1", pagination.Params{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, []domain.Comment{{ID: "c3"}}, res.Data)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
}

func TestCommentService_Create(t *testing.T) {
	reviews := new(mockReviewRepository)
	comments := new(mockCommentRepository)
	svc := NewCommentService(reviews, comments, newTestLogger())

	reviews.On("GetByID", mock.Anything, "r1").Return(&domain.Review{ID: "r1"}, nil)
	comments.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Comment) bool {
		return c.Content == "Great pick" && c.AuthorID == "user-1"
	})).Return(nil)
	comments.On("GetByID", mock.Anything, mock.Anything).Return(&domain.Comment{
		ID: "c1", Content: "Great pick", Author: &domain.ProfileSummary{FirstName: "Ana"},
	}, nil)

	c, err := svc.Create(context.Background(), "user-1", "r1", "  Great pick ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Author.FirstName)
}

func TestCommentService_Create_Empty(t *testing.T) {
	svc := NewCommentService(new(mockReviewRepository), new(mockCommentRepository), newTestLogger())
	_, err := svc.Create(context.Background(), "user-1", "r1", "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCommentService_UpdateDelete_NotOwned(t *testing.T) {
	comments := new(mockCommentRepository)
	svc := NewCommentService(new(mockReviewRepository), comments, newTestLogger())

	comments.On("Update", mock.Anything, mock.Anything).Return(int64(0), nil)
	comments.On("Delete", mock.Anything, "c1", "user-2").Return(int64(0), nil)

	_, err := svc.Update(context.Background(), "user-2", "c1", "edited")
	assert.ErrorIs(t, err, apperrors.ErrNotFoundOrNotOwned)
	assert.ErrorIs(t, svc.Delete(context.Background(), "user-2", "c1"), apperrors.ErrNotFoundOrNotOwned)
}

// --- Profiles ---

func TestProfileService_Ensure(t *testing.T) {
	profiles := new(mockProfileRepository)
	svc := NewProfileService(profiles, new(mockReviewRepository), nil, newTestLogger())

	stored := &domain.Profile{ID: "user-1", Email: "ana@example.com", FirstName: "Ana"}
	profiles.On("Ensure", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
		return p.ID == "user-1" && p.Email == "ana@example.com"
	})).Return(stored, nil).Twice()

	for i := 0; i < 2; i++ {
		p, err := svc.Ensure(context.Background(), domain.Viewer{ID: "user-1", Email: "ana@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "Ana", p.FirstName)
	}
	profiles.AssertExpectations(t)
}

func TestProfileService_Get_HidesEmailFromOthers(t *testing.T) {
	profiles := new(mockProfileRepository)
	reviews := new(mockReviewRepository)
	follows := new(mockFollowRepository)
	svc := NewProfileService(profiles, reviews, newFollowService(follows, nil, nil), newTestLogger())

	profiles.On("GetByID", mock.Anything, "user-1").Return(&domain.Profile{ID: "user-1", Email: "ana@example.com"}, nil)
	reviews.On("CountByAuthor", mock.Anything, "user-1").Return(7, nil)
	follows.On("CountFollowers", mock.Anything, "user-1").Return(3, nil)
	follows.On("CountFollowing", mock.Anything, "user-1").Return(1, nil)

	view, err := svc.Get(context.Background(), "user-2", "user-1")
	require.NoError(t, err)
	assert.Empty(t, view.Profile.Email)
	assert.Equal(t, 7, view.ReviewCount)
	assert.Equal(t, domain.FollowStats{Followers: 3, Following: 1}, view.Stats)
}

func TestProfileService_Update(t *testing.T) {
	profiles := new(mockProfileRepository)
	svc := NewProfileService(profiles, new(mockReviewRepository), nil, newTestLogger())

	profiles.On("GetByID", mock.Anything, "user-1").Return(&domain.Profile{ID: "user-1"}, nil)
	profiles.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
		return p.FirstName == "Ana" && p.LastName == "Diaz"
	})).Return(nil)

	p, err := svc.Update(context.Background(), "user-1", UpdateProfileInput{FirstName: " Ana ", LastName: "Diaz"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.FirstName)

	_, err = svc.Update(context.Background(), "", UpdateProfileInput{})
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}
