package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/google/uuid"

	"github.com/utafrali/puros/internal/storage"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// Image upload limits.
const (
	ReviewImageBucket    = "review-images"
	MaxImageSize         = 5 << 20
	ImageCacheControlSec = 3600
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

var safeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// UploadImageInput is one image file.
type UploadImageInput struct {
	ContentType string
	Size        int64
	Data        io.Reader
}

// MediaService stores review images.
type MediaService struct {
	store  storage.ObjectStore
	logger *slog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(store storage.ObjectStore, logger *slog.Logger) *MediaService {
	return &MediaService{store: store, logger: logger}
}

// UploadImage stores an image under <viewer>/<unix-ms>-<uuid>.<ext> and
// returns its public URL. Existing objects are never overwritten.
func (s *MediaService) UploadImage(ctx context.Context, viewerID string, input UploadImageInput) (string, error) {
	if err := requireViewer(viewerID); err != nil {
		return "", err
	}
	if !safeIDPattern.MatchString(viewerID) {
		return "", apperrors.InvalidInput("viewer id contains invalid characters")
	}

	ext, ok := imageExtensions[input.ContentType]
	if !ok {
		return "", apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed", input.ContentType))
	}
	if input.Size <= 0 {
		return "", apperrors.InvalidInput("file is empty")
	}
	if input.Size > MaxImageSize {
		return "", apperrors.InvalidInput(fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", input.Size, MaxImageSize))
	}

	key := fmt.Sprintf("%s/%d-%s.%s", viewerID, now().UnixMilli(), uuid.New().String(), ext)

	url, err := s.store.Put(ctx, &storage.PutInput{
		Bucket:       ReviewImageBucket,
		Key:          key,
		ContentType:  input.ContentType,
		CacheControl: ImageCacheControlSec,
		Upsert:       false,
		Data:         io.LimitReader(input.Data, MaxImageSize),
	})
	if err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			return "", apperrors.AlreadyExists("image", "key", key)
		}
		return "", storeError("upload image", err)
	}

	s.logger.InfoContext(ctx, "image uploaded", slog.String("key", key))
	return url, nil
}
