// Package apiclient is the HTTP client of the catalog REST API.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/catadmin/internal/apperr"
)

const (
	defaultTimeout = 30 * time.Second

	// Bodies of error responses are read up to this size.
	maxErrorBody = 64 << 10
)

// Options configures a Client.
type Options struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Headers            map[string]string

	// RPS limits outbound requests per second; zero disables the limit.
	RPS   float64
	Burst int
}

// Client sends JSON requests to the catalog API. Every request carries
// X-Requested-With: XMLHttpRequest plus the configured default headers.
type Client struct {
	base    string
	http    *http.Client
	headers http.Header
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a client for the API rooted at opts.BaseURL.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	headers := make(http.Header, len(opts.Headers)+2)
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}
	headers.Set("Accept", "application/json")
	headers.Set("X-Requested-With", "XMLHttpRequest")

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
		headers: headers,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Get fetches path with the raw, already encoded query and decodes the
// JSON response into out.
func (c *Client) Get(ctx context.Context, path, rawQuery string, out any) error {
	target := path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return c.do(ctx, http.MethodGet, target, nil, out)
}

// Post creates a resource.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put replaces a resource.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: rate limit wait: %w", method, target, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, target, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+target, reader)
	if err != nil {
		return fmt.Errorf("%s %s: create request: %w", method, target, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("target", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, target, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, target, err)
	}
	return nil
}

func newAPIError(method, target string, resp *http.Response) error {
	apiErr := &apperr.APIError{Method: method, Path: target, Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
