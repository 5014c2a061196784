package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spimport/internal/shared"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// RestyTransport implements [Transport] with a resty client.
//
// Headers set on the client are sent with every request.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a transport sending headers with every request.
func NewRestyTransport(headers map[string]string) *RestyTransport {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeaders(headers)
	return &RestyTransport{client: client}
}

// NewRestyTransportWithClient wraps an existing resty client.
func NewRestyTransportWithClient(client *resty.Client) *RestyTransport {
	return &RestyTransport{client: client}
}

// Get fetches url and returns the body.
func (t *RestyTransport) Get(ctx context.Context, url string) (string, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		Get(url)
	return t.body(resp, err, url)
}

// Post sends body as JSON to url and returns the response body.
func (t *RestyTransport) Post(ctx context.Context, url string, body any) (string, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	return t.body(resp, err, url)
}

func (t *RestyTransport) body(resp *resty.Response, err error, url string) (string, error) {
	if err != nil {
		return "", fmt.Errorf("%w: request to %s failed: %w", shared.ErrSourceUnavailable, url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s returned %s", shared.ErrSourceUnavailable, url, resp.Status())
	}
	return resp.String(), nil
}
