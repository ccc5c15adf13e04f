package inspector

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing messages.
const (
	MessageFetchFailed    = "Failed to fetch environmental data for this location."
	MessageTimeout        = "The request timed out. Please try again."
	MessageNotFound       = "Location not found. Please try a different search term."
	MessageSearchFailed   = "An error occurred while searching. Please try again."
	MessageRateLimited    = "Too many requests. Please wait a moment and try again."
	MessageInvalidRequest = "Invalid coordinates for this location."
)

// NetworkError is returned when the request could not be completed.
type NetworkError struct {
	Err     error
	Timeout bool
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("network error: request timed out: %v", e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is returned for non-2xx responses, or 2xx responses whose body
// carries an error field.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ParseError is returned when the response body is not a valid report.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError is returned when a search matched no place.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("no location found for %q", e.Query) }

// isInteractionError reports whether err already carries one of the
// interaction error types.
func isInteractionError(err error) bool {
	var (
		netErr      *NetworkError
		httpErr     *HTTPError
		parseErr    *ParseError
		notFoundErr *NotFoundError
	)
	return errors.As(err, &netErr) || errors.As(err, &httpErr) ||
		errors.As(err, &parseErr) || errors.As(err, &notFoundErr)
}

// UserMessage converts an interaction error into text suitable for display.
func UserMessage(err error) string {
	var (
		netErr      *NetworkError
		httpErr     *HTTPError
		notFoundErr *NotFoundError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFoundErr):
		return MessageNotFound
	case errors.As(err, &netErr) && netErr.Timeout:
		return MessageTimeout
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests:
		return MessageRateLimited
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest:
		return MessageInvalidRequest
	default:
		return MessageFetchFailed
	}
}
