package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/puros/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_Envelope(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not owned", 404, `{"error":{"code":"NOT_FOUND_OR_NOT_OWNED","message":"gone"}}`, apperrors.ErrNotFoundOrNotOwned},
		{"store", 500, `{"error":{"code":"STORE_ERROR","message":"try again"}}`, apperrors.ErrStore},
		{"auth", 401, `{"error":{"code":"AUTH_REQUIRED","message":"sign in"}}`, apperrors.ErrAuthRequired},
		{"validation", 400, `{"error":{"code":"VALIDATION_ERROR","message":"bad"}}`, apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "puros-api")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.status, appErr.Status)
		})
	}
}

func TestParseResponseError_NotOwnedIsNotStore(t *testing.T) {
	err := ParseResponseError(response(404, `{"error":{"code":"NOT_FOUND_OR_NOT_OWNED","message":"x"}}`), "api")
	assert.False(t, errors.Is(err, apperrors.ErrStore))
}

func TestParseResponseError_PlainBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrAuthRequired},
		{"not found", http.StatusNotFound, apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, apperrors.ErrInvalidInput},
		{"bad gateway", http.StatusBadGateway, apperrors.ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, "upstream said no"), "resend")
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}
