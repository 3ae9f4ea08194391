package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/puros/internal/service"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httputil"
	"github.com/utafrali/puros/pkg/validator"
)

// SocialHandler handles likes, comments and follows.
type SocialHandler struct {
	likes    *service.LikeService
	comments *service.CommentService
	follows  *service.FollowService
	pages    pageLimits
	logger   *slog.Logger
}

// NewSocialHandler creates a new social HTTP handler.
func NewSocialHandler(
	likes *service.LikeService,
	comments *service.CommentService,
	follows *service.FollowService,
	pages pageLimits,
	logger *slog.Logger,
) *SocialHandler {
	return &SocialHandler{
		likes:    likes,
		comments: comments,
		follows:  follows,
		pages:    pages,
		logger:   logger,
	}
}

// --- Request DTOs ---

// CommentRequest is the JSON body for creating or editing a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// FollowRequest is the JSON body for following or unfollowing a user.
type FollowRequest struct {
	FollowingID string `json:"following_id" validate:"required"`
}

// --- Likes ---

// GetLikes handles GET /api/v1/reviews/{id}/likes.
func (h *SocialHandler) GetLikes(w http.ResponseWriter, r *http.Request) {
	state, err := h.likes.State(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state)
}

// Like handles POST /api/v1/reviews/{id}/likes.
func (h *SocialHandler) Like(w http.ResponseWriter, r *http.Request) {
	state, err := h.likes.Like(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, state)
}

// Unlike handles DELETE /api/v1/reviews/{id}/likes.
func (h *SocialHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	state, err := h.likes.Unlike(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state)
}

// --- Comments ---

// ListComments handles GET /api/v1/reviews/{id}/comments.
func (h *SocialHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	result, err := h.comments.List(r.Context(), chi.URLParam(r, "id"), h.pages.params(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// CreateComment handles POST /api/v1/reviews/{id}/comments.
func (h *SocialHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	comment, err := h.comments.Create(r.Context(), viewerID(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, comment)
}

// UpdateComment handles PUT /api/v1/comments/{id}.
func (h *SocialHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	comment, err := h.comments.Update(r.Context(), viewerID(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{id}.
func (h *SocialHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.comments.Delete(r.Context(), viewerID(r), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Follows ---

// Follow handles POST /api/v1/follows.
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	var req FollowRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	follow, err := h.follows.Follow(r.Context(), viewerID(r), req.FollowingID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, follow)
}

// Unfollow handles DELETE /api/v1/follows. The followed user comes from the
// body or the following_id query parameter.
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followingID := r.URL.Query().Get("following_id")
	if followingID == "" {
		var req FollowRequest
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		followingID = req.FollowingID
	}
	if followingID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("following_id is required"), h.logger)
		return
	}

	if err := h.follows.Unfollow(r.Context(), viewerID(r), followingID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FollowStatus handles GET /api/v1/follows/status?user_id=.
func (h *SocialHandler) FollowStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("user_id is required"), h.logger)
		return
	}

	state, err := h.follows.Status(r.Context(), viewerID(r), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state)
}

// FollowStats handles GET /api/v1/follows/stats?user_id=.
func (h *SocialHandler) FollowStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("user_id is required"), h.logger)
		return
	}

	stats, err := h.follows.Stats(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}
