// Package duffel implements the NDC-style supplier adapter. It speaks the
// Duffel API and normalizes every payload into the canonical travel model.
package duffel

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

const (
	// defaultBaseURL is the production API endpoint.
	defaultBaseURL = "https://api.duffel.com"

	// apiVersion pins the upstream API version header.
	apiVersion = "v2"

	// defaultTimeout bounds each upstream call.
	defaultTimeout = 30 * time.Second

	// maxResponseBodySize caps upstream response bodies to prevent OOM
	// from an unbounded response.
	maxResponseBodySize = 10 * 1024 * 1024 // 10MB
)

// Client is a thin HTTP client for the Duffel API. All responses are wrapped
// in a {"data": ...} envelope.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithBaseURL overrides the API endpoint (used in tests and sandboxing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a Duffel API client authenticated with the given token.
func NewClient(token string, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the {"data": ...} wrapper around every API payload.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do issues a request and decodes the enveloped response into out. Transport
// and non-2xx failures come back as *travel.UpstreamError; raw upstream
// bodies are logged, never surfaced.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		// Requests are wrapped in the same data envelope as responses.
		payload, err := json.Marshal(map[string]any{"data": body})
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "building request failed", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Duffel-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "provider request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "reading provider response failed", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("upstream error response",
			"provider", ProviderName,
			"status", resp.StatusCode,
			"path", path,
			"body", string(respBody),
		)
		return &travel.UpstreamError{
			Provider: ProviderName,
			Op:       method + " " + path,
			Message:  fmt.Sprintf("provider returned status %d", resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "unexpected provider response shape", Err: err}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "unexpected provider response shape", Err: err}
	}
	return nil
}
