package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/puros/internal/service"
	"github.com/utafrali/puros/pkg/httputil"
	"github.com/utafrali/puros/pkg/validator"
)

// NotificationHandler handles notification triggers.
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

// NewNotificationHandler creates a new notification HTTP handler.
func NewNotificationHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// NewPostRequest is the JSON body of a new-post fan-out.
type NewPostRequest struct {
	ReviewID string `json:"review_id" validate:"required"`
}

// NewPost handles POST /api/v1/notifications/new-post.
func (h *NotificationHandler) NewPost(w http.ResponseWriter, r *http.Request) {
	var req NewPostRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.notifications.FanOutNewPost(r.Context(), viewerID(r), req.ReviewID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}
