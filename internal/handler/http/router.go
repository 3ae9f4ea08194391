package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/puros/internal/service"
	"github.com/utafrali/puros/pkg/health"
	"github.com/utafrali/puros/pkg/middleware"
)

// Services bundles the use cases the API exposes.
type Services struct {
	Feed          *service.FeedService
	Reviews       *service.ReviewService
	Likes         *service.LikeService
	Follows       *service.FollowService
	Comments      *service.CommentService
	Profiles      *service.ProfileService
	Media         *service.MediaService
	Notifications *service.NotificationService
}

// RouterConfig holds the cross-cutting pieces of the router.
type RouterConfig struct {
	Verifier       middleware.TokenVerifier
	RateLimit      middleware.RateLimitConfig
	CORS           middleware.CORSConfig
	DefaultPerPage int
	MaxPerPage     int

	// MediaFiles, when set, serves uploaded objects under /media/.
	MediaFiles http.Handler
}

// NewRouter creates a chi router with all Puros routes registered.
func NewRouter(svcs Services, cfg RouterConfig, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("puros"))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Authenticate(cfg.Verifier))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics("puros"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.MediaFiles != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", cfg.MediaFiles))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	pages := pageLimits{defaultPerPage: cfg.DefaultPerPage, maxPerPage: cfg.MaxPerPage}

	reviews := NewReviewHandler(svcs.Feed, svcs.Reviews, pages, logger)
	social := NewSocialHandler(svcs.Likes, svcs.Comments, svcs.Follows, pages, logger)
	profiles := NewProfileHandler(svcs.Profiles, logger)
	media := NewMediaHandler(svcs.Media, logger)
	notifications := NewNotificationHandler(svcs.Notifications, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Reads are open to anonymous viewers.
		r.Get("/reviews", reviews.ListFeed)
		r.Get("/users/{userId}/reviews", reviews.ListUserFeed)
		r.Get("/reviews/{id}", reviews.GetReview)
		r.Get("/reviews/{id}/likes", social.GetLikes)
		r.Get("/reviews/{id}/comments", social.ListComments)
		r.Get("/follows/status", social.FollowStatus)
		r.Get("/follows/stats", social.FollowStats)
		r.Get("/profiles/{userId}", profiles.GetProfile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireViewer)
			r.Use(limiter.Handler)

			r.Post("/reviews", reviews.CreateReview)
			r.Put("/reviews/{id}", reviews.UpdateReview)
			r.Delete("/reviews/{id}", reviews.DeleteReview)

			r.Post("/reviews/{id}/likes", social.Like)
			r.Delete("/reviews/{id}/likes", social.Unlike)

			r.Post("/reviews/{id}/comments", social.CreateComment)
			r.Put("/comments/{id}", social.UpdateComment)
			r.Delete("/comments/{id}", social.DeleteComment)

			r.Post("/follows", social.Follow)
			r.Delete("/follows", social.Unfollow)

			r.Post("/notifications/new-post", notifications.NewPost)
			r.Post("/media/images", media.UploadImage)

			r.Put("/profile", profiles.UpdateProfile)
			r.Post("/profile/ensure", profiles.EnsureProfile)
		})
	})

	return r
}
