package service

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/repository"
	"github.com/utafrali/puros/internal/sender"
	apperrors "github.com/utafrali/puros/pkg/errors"
	pkgkafka "github.com/utafrali/puros/pkg/kafka"
)

const defaultNotifyConcurrency = 8

// NotificationConfig configures NotificationService.
type NotificationConfig struct {
	// BaseURL is the public web address used in email links.
	BaseURL string

	// Concurrency bounds parallel sends during a fan-out.
	Concurrency int

	// Dedup, when set, remembers which reviews were already announced so
	// the endpoint and the review.created consumer do not both send.
	Dedup pkgkafka.IdempotencyStore
}

// NotificationService emails followers about new reviews and users about
// new followers. Delivery failures are logged and counted, never returned.
type NotificationService struct {
	reviews  repository.ReviewRepository
	follows  repository.FollowRepository
	profiles repository.ProfileRepository
	sender   sender.Sender
	cfg      NotificationConfig
	logger   *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	reviews repository.ReviewRepository,
	follows repository.FollowRepository,
	profiles repository.ProfileRepository,
	snd sender.Sender,
	cfg NotificationConfig,
	logger *slog.Logger,
) *NotificationService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultNotifyConcurrency
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &NotificationService{
		reviews:  reviews,
		follows:  follows,
		profiles: profiles,
		sender:   snd,
		cfg:      cfg,
		logger:   logger,
	}
}

func newPostKey(reviewID string) string {
	return "new_post:" + reviewID
}

// FanOutNewPost emails every follower of the review's author who has an
// email address. Only the author may trigger it. A review that was already
// announced reports Sent 0. When no email could be delivered the
// announcement is released so a later call or redelivery can retry.
func (s *NotificationService) FanOutNewPost(ctx context.Context, viewerID, reviewID string) (domain.FanOutResult, error) {
	var result domain.FanOutResult
	if err := requireViewer(viewerID); err != nil {
		return result, err
	}
	if reviewID == "" {
		return result, apperrors.InvalidInput("review_id is required")
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return result, storeError("get review", err)
	}
	if review.AuthorID != viewerID {
		return result, apperrors.Forbidden("you can only notify followers about your own reviews")
	}

	author, err := s.profiles.GetByID(ctx, viewerID)
	if err != nil {
		return result, storeError("get author profile", err)
	}

	followerIDs, err := s.follows.ListFollowerIDs(ctx, viewerID)
	if err != nil {
		return result, storeError("list followers", err)
	}
	if len(followerIDs) == 0 {
		return result, nil
	}

	followers, err := s.profiles.GetByIDs(ctx, followerIDs)
	if err != nil {
		return result, storeError("get follower profiles", err)
	}

	recipients := make([]*domain.Profile, 0, len(followers))
	for _, id := range followerIDs {
		if p, ok := followers[id]; ok && p.Email != "" {
			recipients = append(recipients, p)
		}
	}
	result.Total = len(recipients)

	if !s.claimAnnouncement(ctx, reviewID) {
		s.logger.InfoContext(ctx, "review already announced, skipping fan-out",
			slog.String("review_id", reviewID),
		)
		return result, nil
	}

	postURL := s.cfg.BaseURL + "/review/" + reviewID
	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, p := range recipients {
		g.Go(func() error {
			msg := sender.NewPostMessage(author.DisplayName(), review.CigarName, review.Rating, p.Email, postURL)
			msg.ID = newPostKey(reviewID) + ":" + p.ID
			if s.deliver(ctx, msg) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Sent = int(sent.Load())
	if result.Sent == 0 && result.Total > 0 {
		s.releaseAnnouncement(ctx, reviewID)
	}
	s.logger.InfoContext(ctx, "new post fan-out finished",
		slog.String("review_id", reviewID),
		slog.Int("sent", result.Sent),
		slog.Int("total", result.Total),
	)
	return result, nil
}

// NotifyFollow emails followingID that followerID started following them.
func (s *NotificationService) NotifyFollow(ctx context.Context, followerID, followingID string) error {
	profiles, err := s.profiles.GetByIDs(ctx, []string{followerID, followingID})
	if err != nil {
		return storeError("get profiles", err)
	}

	followed, ok := profiles[followingID]
	if !ok || followed.Email == "" {
		s.logger.DebugContext(ctx, "followed user has no email, skipping",
			slog.String("following_id", followingID),
		)
		return nil
	}

	name := "Someone"
	if follower, ok := profiles[followerID]; ok {
		name = follower.DisplayName()
	}

	msg := sender.FollowMessage(name, followed.Email, s.cfg.BaseURL)
	msg.ID = "follow:" + followerID + ":" + followingID
	s.deliver(ctx, msg)
	return nil
}

// claimAnnouncement reports whether this call owns the fan-out for reviewID.
// Store failures fail open.
func (s *NotificationService) claimAnnouncement(ctx context.Context, reviewID string) bool {
	if s.cfg.Dedup == nil {
		return true
	}
	claimed, err := s.cfg.Dedup.Claim(ctx, newPostKey(reviewID))
	if err != nil {
		s.logger.WarnContext(ctx, "announcement claim failed", slog.String("error", err.Error()))
		return true
	}
	return claimed
}

func (s *NotificationService) releaseAnnouncement(ctx context.Context, reviewID string) {
	if s.cfg.Dedup == nil {
		return
	}
	if err := s.cfg.Dedup.Release(ctx, newPostKey(reviewID)); err != nil {
		s.logger.WarnContext(ctx, "failed to release announcement", slog.String("error", err.Error()))
	}
}

func (s *NotificationService) deliver(ctx context.Context, msg *sender.Message) bool {
	delivered, err := s.sender.Send(ctx, msg)
	if err != nil || !delivered {
		notificationsTotal.WithLabelValues(msg.Kind, "failed").Inc()
		attrs := []any{
			slog.String("kind", msg.Kind),
			slog.String("message_id", msg.ID),
			slog.String("sender", s.sender.Name()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.WarnContext(ctx, "notification delivery failed", attrs...)
		return false
	}
	notificationsTotal.WithLabelValues(msg.Kind, "sent").Inc()
	return true
}
