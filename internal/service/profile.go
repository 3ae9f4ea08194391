package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/repository"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// ProfileView is a profile page: the profile plus its review and follow
// counts.
type ProfileView struct {
	Profile     *domain.Profile    `json:"profile"`
	ReviewCount int                `json:"review_count"`
	Stats       domain.FollowStats `json:"stats"`
}

// UpdateProfileInput holds the editable profile fields.
type UpdateProfileInput struct {
	FirstName string
	LastName  string
	AvatarURL string
}

// ProfileService implements profile operations.
type ProfileService struct {
	profiles repository.ProfileRepository
	reviews  repository.ReviewRepository
	follows  *FollowService
	logger   *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(
	profiles repository.ProfileRepository,
	reviews repository.ReviewRepository,
	follows *FollowService,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		reviews:  reviews,
		follows:  follows,
		logger:   logger,
	}
}

// Ensure creates the viewer's profile if it does not exist yet and returns
// it. Calling it again is harmless.
func (s *ProfileService) Ensure(ctx context.Context, viewer domain.Viewer) (*domain.Profile, error) {
	if err := requireViewer(viewer.ID); err != nil {
		return nil, err
	}

	ts := now()
	profile, err := s.profiles.Ensure(ctx, &domain.Profile{
		ID:        viewer.ID,
		Email:     viewer.Email,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return nil, storeError("ensure profile", err)
	}
	return profile, nil
}

// Get returns userID's profile page. The email is only shown to its owner.
func (s *ProfileService) Get(ctx context.Context, viewerID, userID string) (*ProfileView, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("get profile", err)
	}
	if viewerID != userID {
		profile.Email = ""
	}

	count, err := s.reviews.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, storeError("count reviews", err)
	}

	stats, err := s.follows.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileView{Profile: profile, ReviewCount: count, Stats: *stats}, nil
}

// Update edits the viewer's own profile.
func (s *ProfileService) Update(ctx context.Context, viewerID string, input UpdateProfileInput) (*domain.Profile, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, viewerID)
	if err != nil {
		return nil, storeError("get profile", err)
	}

	profile.FirstName = strings.TrimSpace(input.FirstName)
	profile.LastName = strings.TrimSpace(input.LastName)
	profile.AvatarURL = strings.TrimSpace(input.AvatarURL)
	if len(profile.FirstName) > 100 || len(profile.LastName) > 100 {
		return nil, apperrors.InvalidInput("names must be at most 100 characters")
	}
	profile.UpdatedAt = now()

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, storeError("update profile", err)
	}
	return profile, nil
}
