package viewer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/puros/internal/domain"
)

// ProfileEnsurer creates the viewer's profile if it does not exist yet.
// Calling it more than once must be harmless.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context) (*domain.Profile, error)
}

// Session signs viewers in on a Provider and makes sure each has a profile.
type Session struct {
	provider *Provider
	profiles ProfileEnsurer
	logger   *slog.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

func NewSession(provider *Provider, profiles ProfileEnsurer, logger *slog.Logger) *Session {
	return &Session{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		ensured:  make(map[string]bool),
	}
}

// SignIn publishes v and then ensures its profile, once per viewer ID for the
// life of the session. A failed ensure is returned and retried on the next
// sign-in; the viewer stays signed in.
func (s *Session) SignIn(ctx context.Context, v domain.Viewer) error {
	s.provider.SignIn(v)

	s.mu.Lock()
	done := s.ensured[v.ID]
	s.mu.Unlock()
	if done {
		return nil
	}

	if _, err := s.profiles.EnsureProfile(ctx); err != nil {
		s.logger.Warn("ensure profile failed",
			slog.String("viewer_id", v.ID),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.mu.Lock()
	s.ensured[v.ID] = true
	s.mu.Unlock()
	return nil
}

func (s *Session) SignOut() {
	s.provider.SignOut()
}
