// Package apiclient talks to the remote adoption API. Client.Do and
// Client.DoWithAuth are the transport; the domain operations live in api.go.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-adoption-portal/internal/session"
	"pet-adoption-portal/pkg/apierror"
)

const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL string
	// Timeout bounds each request; zero means no client-side timeout.
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client is safe for concurrent use. Bind a token store with WithTokens before
// calling authenticated operations.
type Client struct {
	http    *http.Client
	baseURL string
	tokens  session.TokenStore
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("apiclient: invalid base url: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL: strings.TrimRight(base, "/"),
	}, nil
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *Client) WithTokens(ts session.TokenStore) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

func (c *Client) Tokens() session.TokenStore {
	return c.tokens
}

// Do sends an unauthenticated request. A non-nil body is encoded as JSON. Any
// status code is returned as a Response; only transport failures are errors.
func (c *Client) Do(ctx context.Context, method string, path string, body any, headers map[string]string) (*Response, error) {
	fullURL, err := c.resolveURL(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("apiclient: read body: %w", err)
	}

	slog.Debug("upstream call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// DoWithAuth is Do with the stored access token attached as a bearer
// credential. Without a token it fails with MISSING_CREDENTIAL before any
// network I/O. Caller headers are applied last and may override the defaults.
func (c *Client) DoWithAuth(ctx context.Context, method string, path string, body any, headers map[string]string) (*Response, error) {
	if c.tokens == nil {
		return nil, apierror.New(apierror.CodeMissingCredential, "access token not found", "", http.StatusUnauthorized)
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil || token == "" {
		return nil, apierror.New(apierror.CodeMissingCredential, "access token not found", "", http.StatusUnauthorized)
	}

	merged := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + token,
	}
	for k, v := range headers {
		merged[http.CanonicalHeaderKey(k)] = v
	}

	return c.Do(ctx, method, path, body, merged)
}

func (c *Client) resolveURL(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("apiclient: empty path")
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path, nil
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
