package services

import (
	"context"
)

// Transport performs raw HTTP requests and returns the response body as text.
type Transport interface {
	// Get fetches url.
	Get(ctx context.Context, url string) (string, error)

	// Post sends body as JSON to url.
	Post(ctx context.Context, url string, body any) (string, error)
}

// Page is one page of a paginated playlist document.
type Page struct {
	// Items are the page's entries in document order, continuation items excluded.
	Items []any
	Next  ContinuationState
}

// ContinuationState carries the opaque token for the next page.
type ContinuationState struct {
	Token string
}

// Done reports whether no further page exists.
func (c ContinuationState) Done() bool {
	return c.Token == ""
}
