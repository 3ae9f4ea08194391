package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/puros/internal/service"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httputil"
)

// MediaHandler handles image uploads.
type MediaHandler struct {
	media  *service.MediaService
	logger *slog.Logger
}

// NewMediaHandler creates a new media HTTP handler.
func NewMediaHandler(media *service.MediaService, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{media: media, logger: logger}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadImage handles POST /api/v1/media/images (multipart/form-data, field
// "file").
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Leave 1MB for the other form parts.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+(1<<20))

	if err := r.ParseMultipartForm(service.MaxImageSize); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("failed to parse multipart form: "+err.Error()), h.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("file is required"), h.logger)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.media.UploadImage(r.Context(), viewerID(r), service.UploadImageInput{
		ContentType: contentType,
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, uploadResponse{URL: url})
}
