// internal/common/http/client.go
package http

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Client is the shared outbound HTTP client. The language model SDK and the
// Elasticsearch transport both take its underlying *http.Client.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// StdClient returns the configured *http.Client.
func (c *Client) StdClient() *http.Client {
	return c.httpClient
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
