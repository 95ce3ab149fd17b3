package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// FetchErrorKind classifies a source page fetch failure
type FetchErrorKind string

const (
	FetchErrTimeout    FetchErrorKind = "timeout"
	FetchErrNetwork    FetchErrorKind = "network"
	FetchErrHTTPStatus FetchErrorKind = "http_status"
)

// FetchError indicates the source page could not be retrieved. A fetch
// failure aborts document creation entirely; nothing is persisted and the
// fetch is not retried.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int // set only for FetchErrHTTPStatus
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrHTTPStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	case FetchErrTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode implements the HTTPError interface. Upstream failures surface
// as gateway errors rather than internal ones.
func (e *FetchError) StatusCode() int {
	if e.Kind == FetchErrTimeout {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
