// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is the shared outbound client; it stamps a bearer token on every
// request when one is configured.
type Client struct {
	httpClient *http.Client
	bearer     string
}

// NewClient builds a client. A zero timeout leaves deadlines to the request context,
// which streaming responses need.
func NewClient(timeout time.Duration, bearer string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		bearer: bearer,
	}
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.bearer != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	return c.httpClient.Do(req)
}
