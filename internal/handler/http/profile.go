package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/puros/internal/service"
	"github.com/utafrali/puros/pkg/httputil"
	"github.com/utafrali/puros/pkg/validator"
)

// ProfileHandler handles HTTP requests for profiles.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a new profile HTTP handler.
func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// ProfileRequest is the JSON body for editing the viewer's profile.
type ProfileRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// GetProfile handles GET /api/v1/profiles/{userId}.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.profiles.Get(r.Context(), viewerID(r), chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// UpdateProfile handles PUT /api/v1/profile.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	profile, err := h.profiles.Update(r.Context(), viewerID(r), service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profile)
}

// EnsureProfile handles POST /api/v1/profile/ensure.
func (h *ProfileHandler) EnsureProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Ensure(r.Context(), viewer(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profile)
}
