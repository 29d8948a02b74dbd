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
	// UpstreamErrorMessage describes failures of the NBA statistics API.
	UpstreamErrorMessage = "nba stats service unavailable"
	// RateLimitedMessage describes throttling by the NBA statistics API.
	RateLimitedMessage = "nba stats service is rate limiting requests"
	// CacheErrorMessage describes cache backend failures.
	CacheErrorMessage = "cache operation failed"
	// NotFoundMessage is the default message for missing resources.
	NotFoundMessage = "not found"
	// InvalidInputMessage is the default message for rejected input.
	InvalidInputMessage = "invalid input"
)

// Error wraps an underlying error with an HTTP status and a safe message.
type Error struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Validation reports rejected user input. The message is shown to the user as is.
func Validation(message string) *Error {
	if message == "" {
		message = InvalidInputMessage
	}
	return New(nil, http.StatusBadRequest, message)
}

// NotFound reports a missing resource, optionally wrapping the cause.
func NotFound(err error, message string) *Error {
	if message == "" {
		message = NotFoundMessage
	}
	return New(err, http.StatusNotFound, message)
}

// StatusOf returns the HTTP status carried by err, or 500 when err carries none.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err, or SystemErrorMessage.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return SystemErrorMessage
}
