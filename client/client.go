package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodySize    = 4 << 20
	userAgent      = "tentd/0.1"
)

// Response is the part of an HTTP response the federation code looks at.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	client    *http.Client
	userAgent string
}

// New returns a client whose every request is bounded by timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := http.Client{
		Timeout: timeout,
	}

	c := &Client{
		client:    &httpClient,
		userAgent: userAgent,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) Timeout() time.Duration {
	return c.client.Timeout
}

func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodHead, url, nil, "")
}

func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, "")
}

func (c *Client) Post(ctx context.Context, url string, contentType string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body, contentType)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, contentType string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
