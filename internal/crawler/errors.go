package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Caller input errors. These are the only conditions that abort a crawl before it starts.
var (
	ErrInvalidMode = errors.New("invalid crawl mode")
	ErrNoSeeds     = errors.New("at least one seed URL is required")
	ErrInvalidSeed = errors.New("seed URL must be an absolute http or https URL")
	ErrSeedCount   = errors.New("wrong number of seed URLs for mode")
)

// ErrTooManyRedirects is returned by fetch adapters when the redirect cap is hit.
var ErrTooManyRedirects = errors.New("too many redirects")

// FetchErrorKind classifies fetch failures.
type FetchErrorKind string

// Fetch failure kinds.
const (
	FetchErrorTimeout   FetchErrorKind = "timeout"
	FetchErrorNetwork   FetchErrorKind = "network"
	FetchErrorRedirects FetchErrorKind = "redirects"
	FetchErrorStatus    FetchErrorKind = "status"
)

// FetchError is a terminal failure fetching one page. It never aborts the crawl.
type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrorStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError classifies err into a FetchError. Existing FetchErrors are returned unchanged.
func NewFetchError(rawURL string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{URL: rawURL, Kind: classifyFetchError(err), Err: err}
}

func classifyFetchError(err error) FetchErrorKind {
	if errors.Is(err, ErrTooManyRedirects) {
		return FetchErrorRedirects
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchErrorTimeout
	}
	return FetchErrorNetwork
}
