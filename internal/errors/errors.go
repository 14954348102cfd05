package errors

import (
	"errors"
	"net/http"
)

// Kind is the machine-readable error category.
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindAuthentication Kind = "AUTHENTICATION_ERROR"
	KindAuthorization  Kind = "AUTHORIZATION_ERROR"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindInvalidToken   Kind = "INVALID_TOKEN"
	KindExpiredToken   Kind = "TOKEN_EXPIRED"
	KindInternal       Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindInvalidToken:   http.StatusUnauthorized,
	KindExpiredToken:   http.StatusUnauthorized,
	KindInternal:       http.StatusInternalServerError,
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// AppError is a domain error with a stable kind and HTTP status.
// Message is safe to show to clients; cause is for logs only.
type AppError struct {
	Kind       Kind
	StatusCode int
	Message    string
	cause      error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError of the same kind, so sentinel comparisons work across messages.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ToErrorResponse converts an AppError to ErrorResponse.
func (e *AppError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  string(e.Kind),
	}
}

// New creates an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Kind: kind, StatusCode: status, Message: message}
}

// Wrap creates an AppError that keeps cause for logging.
func Wrap(kind Kind, message string, cause error) *AppError {
	e := New(kind, message)
	e.cause = cause
	return e
}

func Validation(message string) *AppError     { return New(KindValidation, message) }
func Authentication(message string) *AppError { return New(KindAuthentication, message) }
func Authorization(message string) *AppError  { return New(KindAuthorization, message) }
func NotFound(message string) *AppError       { return New(KindNotFound, message) }
func Conflict(message string) *AppError       { return New(KindConflict, message) }

// InvalidToken reports a token with a bad signature or shape.
func InvalidToken(cause error) *AppError {
	return Wrap(KindInvalidToken, "invalid token", cause)
}

// ExpiredToken reports a token whose expiry has elapsed.
func ExpiredToken(cause error) *AppError {
	return Wrap(KindExpiredToken, "token expired", cause)
}

// Internal hides cause behind a user-safe message.
func Internal(message string, cause error) *AppError {
	return Wrap(KindInternal, message, cause)
}

// KindOf returns the kind of err, or KindInternal for non-domain errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MapErrorToHTTP maps any error to an AppError suitable for rendering.
func MapErrorToHTTP(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}
