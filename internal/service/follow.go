package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/event"
	"github.com/utafrali/puros/internal/repository"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// FollowService implements the follow graph.
type FollowService struct {
	follows  repository.FollowRepository
	cache    repository.FollowStatsCache
	cacheTTL time.Duration
	producer *event.Producer
	logger   *slog.Logger
	bg       *background
}

// NewFollowService creates a new follow service. cache may be nil.
func NewFollowService(
	follows repository.FollowRepository,
	cache repository.FollowStatsCache,
	cacheTTL time.Duration,
	producer *event.Producer,
	logger *slog.Logger,
) *FollowService {
	return &FollowService{
		follows:  follows,
		cache:    cache,
		cacheTTL: cacheTTL,
		producer: producer,
		logger:   logger,
		bg:       &background{logger: logger},
	}
}

// Follow makes viewerID follow followingID.
func (s *FollowService) Follow(ctx context.Context, viewerID, followingID string) (*domain.Follow, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	if followingID == "" {
		return nil, apperrors.InvalidInput("following_id is required")
	}
	if followingID == viewerID {
		return nil, apperrors.InvalidInput("you cannot follow yourself")
	}

	follow := &domain.Follow{
		ID:          uuid.New().String(),
		FollowerID:  viewerID,
		FollowingID: followingID,
		CreatedAt:   now(),
	}
	if err := s.follows.Create(ctx, follow); err != nil {
		return nil, storeError("create follow", err)
	}
	s.invalidate(ctx, viewerID, followingID)

	s.logger.InfoContext(ctx, "user followed",
		slog.String("follower_id", viewerID),
		slog.String("following_id", followingID),
	)

	published := *follow
	s.bg.Go(ctx, "publish follow.created", func(ctx context.Context) error {
		return s.producer.PublishFollowCreated(ctx, &published)
	})

	return follow, nil
}

// Unfollow removes viewerID's follow of followingID.
func (s *FollowService) Unfollow(ctx context.Context, viewerID, followingID string) error {
	if err := requireViewer(viewerID); err != nil {
		return err
	}

	n, err := s.follows.Delete(ctx, viewerID, followingID)
	if err != nil {
		return storeError("delete follow", err)
	}
	if n == 0 {
		return apperrors.NotFoundOrNotOwned("follow", followingID)
	}
	s.invalidate(ctx, viewerID, followingID)
	return nil
}

// Status reports whether viewerID follows userID.
func (s *FollowService) Status(ctx context.Context, viewerID, userID string) (*domain.FollowState, error) {
	if viewerID == "" || viewerID == userID {
		return &domain.FollowState{}, nil
	}

	follow, err := s.follows.Get(ctx, viewerID, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &domain.FollowState{}, nil
	}
	if err != nil {
		return nil, storeError("get follow", err)
	}
	return &domain.FollowState{Following: true, FollowID: follow.ID}, nil
}

// Stats returns userID's follower and following counts, served from the
// cache when possible. Cache failures fall through to the store.
func (s *FollowService) Stats(ctx context.Context, userID string) (*domain.FollowStats, error) {
	if s.cache != nil {
		stats, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "follow stats cache read failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		} else if ok {
			return &stats, nil
		}
	}

	var stats domain.FollowStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.follows.CountFollowers(gctx, userID)
		stats.Followers = n
		return err
	})
	g.Go(func() error {
		n, err := s.follows.CountFollowing(gctx, userID)
		stats.Following = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError("count follows", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, stats, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "follow stats cache write failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return &stats, nil
}

// Wait blocks until pending event publishes finish.
func (s *FollowService) Wait() {
	s.bg.Wait()
}

func (s *FollowService) invalidate(ctx context.Context, userIDs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.logger.WarnContext(ctx, "follow stats cache invalidation failed",
			slog.Any("user_ids", userIDs),
			slog.String("error", err.Error()),
		)
	}
}
