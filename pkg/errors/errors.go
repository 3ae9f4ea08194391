package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Callers match on these with errors.Is; AppError values wrap
// exactly one of them.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAuthRequired       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFoundOrNotOwned = errors.New("resource not found or not owned by viewer")
	ErrStore              = errors.New("store error")
	ErrNotificationFailed = errors.New("notification delivery failed")
	ErrInternal           = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error. It is the ValidationError of the API:
// raised before anything is dispatched to a store.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// AuthRequired creates a 401 error for a mutation attempted without a viewer.
func AuthRequired(message string) *AppError {
	if message == "" {
		message = "you must be signed in to do that"
	}
	return &AppError{
		Code:    "AUTH_REQUIRED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthRequired,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// NotFoundOrNotOwned creates a 404 error for an update or delete that affected
// zero rows. The view that issued it is stale and should refresh.
func NotFoundOrNotOwned(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND_OR_NOT_OWNED",
		Message: fmt.Sprintf("%s %s was not found or does not belong to you", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFoundOrNotOwned,
	}
}

// Store wraps a relational or object store failure. The message stays generic;
// the cause is kept for logging.
func Store(err error) *AppError {
	return &AppError{
		Code:    "STORE_ERROR",
		Message: "the request could not be completed, please try again",
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrStore, err),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotFoundOrNotOwned):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FromCode maps an error code received over the wire back to an AppError that
// wraps the matching sentinel. Unknown codes become StoreErrors.
func FromCode(code, message string, status int) *AppError {
	appErr := &AppError{Code: code, Message: message, Status: status}
	switch code {
	case "NOT_FOUND":
		appErr.Err = ErrNotFound
	case "ALREADY_EXISTS":
		appErr.Err = ErrAlreadyExists
	case "INVALID_INPUT", "VALIDATION_ERROR", "INVALID_PARAMETER":
		appErr.Err = ErrInvalidInput
	case "AUTH_REQUIRED", "UNAUTHORIZED":
		appErr.Err = ErrAuthRequired
	case "FORBIDDEN":
		appErr.Err = ErrForbidden
	case "NOT_FOUND_OR_NOT_OWNED":
		appErr.Err = ErrNotFoundOrNotOwned
	default:
		appErr.Err = ErrStore
	}
	return appErr
}
