package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes used by the realtime core. Validation failures are reported
// synchronously to the originating connection; CONFLICT carries fresh state
// so the caller can retry; UNAVAILABLE means the durable store timed out.
const (
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeAlreadyAttached     = "ALREADY_ATTACHED"
	CodeInvalidParticipants = "INVALID_PARTICIPANTS"
	CodeNotAuthorized       = "NOT_AUTHORIZED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeConflict            = "CONFLICT"
	CodeUnavailable         = "UNAVAILABLE"
	CodeSlowConsumer        = "SLOW_CONSUMER"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func NotAuthenticated(message string) *AppError {
	return &AppError{
		Code:    CodeNotAuthenticated,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

func AlreadyAttached(connectionID string) *AppError {
	return &AppError{
		Code:    CodeAlreadyAttached,
		Message: fmt.Sprintf("connection %s is already bound to another user", connectionID),
		Status:  http.StatusConflict,
	}
}

func InvalidParticipants(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidParticipants,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func NotAuthorized(message string) *AppError {
	return &AppError{
		Code:    CodeNotAuthorized,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

func InvalidTransition(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func TooManyRequests(message string, waitTime time.Duration) *AppError {
	if waitTime > 0 {
		message = fmt.Sprintf("%s, retry in %s", message, waitTime.Round(time.Second))
	}
	return &AppError{
		Code:    "TOO_MANY_REQUESTS",
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the application error code, or INTERNAL_ERROR for
// errors that did not originate from this package.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}
