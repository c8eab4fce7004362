package campusrag

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors mapped from API responses.
// Use errors.Is() to check.
var (
	// ErrUnauthorized means the API key was missing or rejected.
	ErrUnauthorized = errors.New("campusrag: unauthorized")
	// ErrBadRequest means the request was malformed (e.g. empty question).
	ErrBadRequest = errors.New("campusrag: bad request")
	// ErrUnavailable means an upstream provider was unavailable.
	ErrUnavailable = errors.New("campusrag: service unavailable")
)

// apiError is the server's error payload.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e apiError) toError(status int) error {
	var sentinel error
	switch status {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusBadRequest:
		sentinel = ErrBadRequest
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		sentinel = ErrUnavailable
	default:
		return fmt.Errorf("campusrag: unexpected status %d: %s", status, e.Message)
	}
	if e.Message != "" {
		return fmt.Errorf("%w: %s", sentinel, e.Message)
	}
	return sentinel
}
