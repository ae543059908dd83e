// internal/common/http/client.go
package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader correlates a portal request with backend logs.
const RequestIDHeader = "X-Request-ID"

type Client struct {
	httpClient *http.Client
	streaming  *http.Client
}

// NewClient builds the transports used against the portal backend. Request
// timeouts apply to the regular client only; the streaming client's requests
// live as long as their context.
func NewClient(timeout time.Duration) *Client {
	transport := &requestIDTransport{base: http.DefaultTransport}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		streaming: &http.Client{
			Transport: transport,
		},
	}
}

// Standard returns the client for request/response calls.
func (c *Client) Standard() *http.Client {
	return c.httpClient
}

// Streaming returns the client for long-lived push channels.
func (c *Client) Streaming() *http.Client {
	return c.streaming
}

type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, uuid.New().String())
	return t.base.RoundTrip(r)
}
