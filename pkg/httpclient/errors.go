package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/puros/pkg/errors"
)

// errorEnvelope mirrors httputil.ErrorResponse.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads a non-2xx response and translates it into an
// AppError wrapping the matching sentinel, so callers can tell a stale view
// (NotFoundOrNotOwned) from an infrastructure failure (StoreError). The body
// is consumed and closed.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Store(fmt.Errorf("%s returned status %d, read body: %w", service, resp.StatusCode, err))
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil && env.Error.Code != "" {
		return apperrors.FromCode(env.Error.Code, env.Error.Message, resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.AuthRequired("")
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.FromCode("NOT_FOUND", service+": resource not found", resp.StatusCode)
	case IsClientError(resp.StatusCode):
		return apperrors.InvalidInput(fmt.Sprintf("%s rejected the request (%d): %s", service, resp.StatusCode, body))
	default:
		return apperrors.Store(fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, body))
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
