package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/service"
	"github.com/utafrali/puros/pkg/httputil"
	"github.com/utafrali/puros/pkg/validator"
)

// ReviewHandler handles HTTP requests for feeds and reviews.
type ReviewHandler struct {
	feed    *service.FeedService
	reviews *service.ReviewService
	pages   pageLimits
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(feed *service.FeedService, reviews *service.ReviewService, pages pageLimits, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{feed: feed, reviews: reviews, pages: pages, logger: logger}
}

// --- Request DTOs ---

// ReviewRequest is the JSON body for creating or replacing a review.
type ReviewRequest struct {
	CigarName  string   `json:"cigar_name" validate:"required,max=200"`
	Rating     float64  `json:"rating" validate:"gt=0,lte=5,halfstep"`
	Notes      string   `json:"notes" validate:"max=5000"`
	ReviewDate string   `json:"review_date" validate:"omitempty,date"`
	Images     []string `json:"images" validate:"max=3,dive,url"`
}

func (req *ReviewRequest) input() service.ReviewInput {
	in := service.ReviewInput{
		CigarName: req.CigarName,
		Rating:    req.Rating,
		Notes:     req.Notes,
		Images:    req.Images,
	}
	if req.ReviewDate != "" {
		// Already checked by the date validator.
		in.ReviewDate, _ = domain.ParseDate(req.ReviewDate)
	}
	return in
}

// --- Handlers ---

// ListFeed handles GET /api/v1/reviews.
func (h *ReviewHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

// ListUserFeed handles GET /api/v1/users/{userId}/reviews.
func (h *ReviewHandler) ListUserFeed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "userId"))
}

func (h *ReviewHandler) list(w http.ResponseWriter, r *http.Request, subject string) {
	filters, err := parseFilters(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	params := h.pages.params(r)

	result, err := h.feed.List(r.Context(), service.FeedRequest{
		Filters:       filters,
		SubjectUserID: subject,
		Page:          params.Page,
		PerPage:       params.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetReview handles GET /api/v1/reviews/{id}.
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// CreateReview handles POST /api/v1/reviews.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.reviews.Create(r.Context(), viewerID(r), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, review)
}

// UpdateReview handles PUT /api/v1/reviews/{id}.
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.reviews.Update(r.Context(), viewerID(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/v1/reviews/{id}.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.Delete(r.Context(), viewerID(r), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
