package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Source errors. Only these abort an import run.
	ErrSourceUnavailable = fmt.Errorf("source unavailable")
	ErrSourceMalformed   = fmt.Errorf("source malformed")
	ErrSourceEmpty       = fmt.Errorf("source empty")

	// Per-item errors, accumulated into the run summary
	ErrExtraction  = fmt.Errorf("extraction failed")
	ErrUnmatched   = fmt.Errorf("no matching track")
	ErrNotSearched = fmt.Errorf("not searched")
	ErrBatchSubmit = fmt.Errorf("batch submission failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsFatalSource reports whether err is one of the source errors that abort a run.
func IsFatalSource(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrSourceMalformed) || errors.Is(err, ErrSourceEmpty)
}
