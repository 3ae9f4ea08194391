package service

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/puros/internal/storage/memory"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

func TestMediaService_UploadImage(t *testing.T) {
	withNow(t, time.UnixMilli(1717858800000).UTC())
	store := memory.New("http://localhost:8080/media")
	svc := NewMediaService(store, newTestLogger())

	url, err := svc.UploadImage(context.Background(), "user-1", UploadImageInput{
		ContentType: "image/png",
		Size:        4,
		Data:        strings.NewReader("\x89PNG"),
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^http://localhost:8080/media/review-images/user-1/1717858800000-[0-9a-f-]{36}\.png$`), url)

	key := strings.TrimPrefix(url, "http://localhost:8080/media/review-images/")
	obj, ok := store.Get(ReviewImageBucket, key)
	require.True(t, ok)
	assert.Equal(t, ImageCacheControlSec, obj.CacheControl)
}

func TestMediaService_UploadImage_Rejects(t *testing.T) {
	svc := NewMediaService(memory.New("http://cdn"), newTestLogger())

	tests := []struct {
		name   string
		viewer string
		input  UploadImageInput
		want   error
	}{
		{"anonymous", "", UploadImageInput{ContentType: "image/png", Size: 1}, apperrors.ErrAuthRequired},
		{"content type", "user-1", UploadImageInput{ContentType: "application/pdf", Size: 1}, apperrors.ErrInvalidInput},
		{"empty", "user-1", UploadImageInput{ContentType: "image/png", Size: 0}, apperrors.ErrInvalidInput},
		{"too large", "user-1", UploadImageInput{ContentType: "image/jpeg", Size: MaxImageSize + 1}, apperrors.ErrInvalidInput},
		{"unsafe viewer id", "../etc", UploadImageInput{ContentType: "image/png", Size: 1}, apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(context.Background(), tt.viewer, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
