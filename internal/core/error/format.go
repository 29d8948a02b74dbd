package errx

import (
	"context"
	"errors"
	"net/http"
)

// UserMessage turns any error into text that is safe to show in a chat reply.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}

	var e *Error
	if !errors.As(err, &e) {
		return "Sorry, something went wrong while answering. Please try again."
	}

	switch e.Status {
	case http.StatusBadRequest:
		return "I couldn't use that question: " + e.Message + "."
	case http.StatusNotFound:
		return "I couldn't find that: " + e.Message + "."
	case http.StatusTooManyRequests:
		return "The NBA stats service is busy right now. Please wait a moment and try again."
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return "The NBA stats service is not responding right now. Please try again shortly."
	default:
		return "Sorry, something went wrong while answering. Please try again."
	}
}
