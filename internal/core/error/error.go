package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// ModelErrorMessage describes a failed language model call.
	ModelErrorMessage = "language model call failed"
	// SearchErrorMessage describes a failed place search call.
	SearchErrorMessage = "place search failed"
	// NotFoundMessage describes a missing resource.
	NotFoundMessage = "resource not found"
	// BadRequestMessage describes an invalid request.
	BadRequestMessage = "invalid request"
)

var (
	// ErrSessionNotFound is returned when a chat session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStageOrder is returned when a pipeline stage runs before its predecessor.
	ErrStageOrder = errors.New("pipeline stage out of order")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapModel wraps a language model failure.
func WrapModel(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, ModelErrorMessage)
}

// WrapSearch wraps a place search failure.
func WrapSearch(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, SearchErrorMessage)
}

// NotFound wraps err as a 404.
func NotFound(err error) error {
	return New(err, http.StatusNotFound, NotFoundMessage)
}

// BadRequest wraps err as a 400.
func BadRequest(err error) error {
	return New(err, http.StatusBadRequest, BadRequestMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
