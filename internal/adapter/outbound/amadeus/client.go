// Package amadeus implements the GDS-style supplier adapter. The upstream
// speaks OAuth2 client-credentials and returns nested itinerary payloads
// with side-band dictionaries; everything is normalized into the canonical
// travel model.
package amadeus

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

const (
	// defaultBaseURL is the production API endpoint.
	defaultBaseURL = "https://api.amadeus.com"

	// defaultTimeout bounds each upstream call.
	defaultTimeout = 30 * time.Second

	// maxResponseBodySize caps upstream response bodies.
	maxResponseBodySize = 10 * 1024 * 1024 // 10MB

	// tokenExpirySkew refreshes the access token this long before the
	// advertised expiry to avoid racing it on the wire.
	tokenExpirySkew = 30 * time.Second
)

// Client is an HTTP client for the GDS API with cached OAuth2
// client-credentials tokens.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint, for tests or the sandbox
// environment.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
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

// NewClient creates a client with the given OAuth2 credentials.
func NewClient(clientID, clientSecret string, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
		now:          time.Now,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a valid access token, fetching a fresh one when the cached
// token is missing or near expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpirySkew)) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &travel.UpstreamError{Provider: ProviderName, Op: "token", Message: "building token request failed", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &travel.UpstreamError{Provider: ProviderName, Op: "token", Message: "token request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return "", &travel.UpstreamError{Provider: ProviderName, Op: "token", Message: "reading token response failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("token endpoint error", "provider", ProviderName, "status", resp.StatusCode)
		return "", &travel.UpstreamError{
			Provider: ProviderName,
			Op:       "token",
			Message:  fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", &travel.UpstreamError{Provider: ProviderName, Op: "token", Message: "unexpected token response shape", Err: err}
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.logger.Debug("access token refreshed", "provider", ProviderName, "expires_in", tok.ExpiresIn)
	return c.accessToken, nil
}

// do issues an authenticated request and decodes the response into out.
// A 401 invalidates the cached token and retries once with a fresh one.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, respBody, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
		resp, respBody, err = c.doOnce(ctx, method, path, body)
		if err != nil {
			return err
		}
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
	if err := json.Unmarshal(respBody, out); err != nil {
		return &travel.UpstreamError{
			Provider: ProviderName,
			Op:       method + " " + path,
			Message:  "unexpected provider response shape",
			Err:      err,
		}
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, nil, err
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, nil, &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "building request failed", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "provider request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, nil, &travel.UpstreamError{Provider: ProviderName, Op: method + " " + path, Message: "reading provider response failed", Err: err}
	}
	return resp, respBody, nil
}
