// Package marketplace is the typed client for the marketplace REST backend.
// Every call is rate limited, carries the configured headers and a bearer
// token, and fails with either a *TransportError or an *APIError.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"backoffice/internal/adapters/metrics"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 10 << 20

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is the sustained requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	Headers   map[string]string
	Tokens    TokenSource
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the marketplace backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string
	tokens  TokenSource
	log     *zap.Logger
}

// New validates cfg and builds a Client.
// PRE: cfg.BaseURL is an absolute http(s) URL
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("marketplace: base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("marketplace: base url %q must be http or https", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:    base,
		http:    hc,
		limiter: limiter,
		headers: cfg.Headers,
		tokens:  cfg.Tokens,
		log:     log.Named("marketplace"),
	}, nil
}

// request describes one call.
type request struct {
	method      string
	path        string
	rawQuery    string
	body        io.Reader
	contentType string
}

// do performs req and returns the response body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	// paths arrive already escaped, so the URL is assembled textually
	target := c.base.String() + req.path
	if req.rawQuery != "" {
		target += "?" + req.rawQuery
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Method: req.method, URL: target, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return nil, fmt.Errorf("marketplace: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("marketplace: token: %w", err)
		}
		if tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordUpstream(req.method, resourceLabel(req.path), 0, time.Since(start))
		c.log.Warn("upstream_unreachable", zap.String("method", req.method), zap.String("url", target), zap.Error(err))
		return nil, &TransportError{Method: req.method, URL: target, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	metrics.RecordUpstream(req.method, resourceLabel(req.path), resp.StatusCode, elapsed)
	if err != nil {
		return nil, &TransportError{Method: req.method, URL: target, Err: err}
	}
	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp.StatusCode, body)
		c.log.Info("upstream_error",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	c.log.Debug("upstream_call",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))
	return body, nil
}

// getJSON fetches path and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path, rawQuery string, out any) error {
	body, err := c.do(ctx, request{method: http.MethodGet, path: path, rawQuery: rawQuery})
	if err != nil {
		return err
	}
	return decode(body, out)
}

// sendJSON encodes in as the request body and decodes the response into out.
func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marketplace: encode body: %w", err)
	}
	body, err := c.do(ctx, request{method: method, path: path, body: bytes.NewReader(payload), contentType: "application/json"})
	if err != nil {
		return err
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("marketplace: decode response: %w", err)
	}
	return nil
}

// resourceLabel keeps metric labels free of record ids.
func resourceLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" && (p[0] >= '0' && p[0] <= '9') {
			out = append(out, ":id")
			continue
		}
		out = append(out, p)
	}
	return "/" + strings.Join(out, "/")
}

// errEmptyID guards item paths.
var errEmptyID = errors.New("marketplace: empty record id")
