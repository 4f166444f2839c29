// Package errors defines the service's sentinel errors and an AppError type
// that carries an HTTP status code across layer boundaries.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrShareUnreachable marks a scan failure: the share root is missing or
	// unreadable. Non-fatal; the previous index snapshot stays current.
	ErrShareUnreachable = errors.New("share root unreachable")
	// ErrRebuildInProgress is returned when an on-demand rebuild trigger is
	// absorbed by a rebuild that is already running.
	ErrRebuildInProgress = errors.New("index rebuild already in progress")
	// ErrRebuildCooldown is returned when a caller re-triggers a rebuild
	// before their cooldown window has elapsed.
	ErrRebuildCooldown = errors.New("rebuild cooldown active")
	// ErrNoKeywords is returned when the extraction service produced no
	// actionable keyword for a message.
	ErrNoKeywords = errors.New("no actionable keywords")
	// ErrNoIndex is returned for queries arriving before the first snapshot
	// (no completed scan and no warm-start file).
	ErrNoIndex      = errors.New("index not built yet")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrRebuildCooldown):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoKeywords):
		return http.StatusBadRequest
	case errors.Is(err, ErrShareUnreachable), errors.Is(err, ErrNoIndex), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
