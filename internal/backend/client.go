// Package backend talks to the remote scanning service that runs the actual
// directory fuzzing, port scans and WHOIS queries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
)

const (
	EndpointDirectoryFuzz = "/dir"
	EndpointPortScan      = "/escanear"
	EndpointWhois         = "/whois"

	DefaultBaseURL    = "http://localhost:5000"
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
)

type scanRequest struct {
	Target string `json:"objetivo"`
}

type scanResponse struct {
	Result string `json:"resultado"`
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Client struct {
	baseURL    string
	http       *http.Client
	logger     *logger.Logger
	maxRetries int
	baseDelay  time.Duration
	sleep      SleepFunc
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry configures the WHOIS retry budget: maxRetries extra attempts,
// waiting baseDelay*(attempt+1) before each one.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseDelay >= 0 {
			c.baseDelay = baseDelay
		}
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       NewHTTPClient(DefaultTimeout),
		logger:     logger.Default(),
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      contextSleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient returns a client with a tuned transport. Scans can run for
// minutes, so the overall timeout is supplied by the caller.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// DirectoryFuzz returns the raw listing produced by the backend fuzzer.
func (c *Client) DirectoryFuzz(ctx context.Context, domain string) (string, error) {
	return c.post(ctx, EndpointDirectoryFuzz, domain)
}

// PortScan returns the raw port scanner output.
func (c *Client) PortScan(ctx context.Context, domain string) (string, error) {
	return c.post(ctx, EndpointPortScan, domain)
}

// Whois performs a single WHOIS request without retries.
func (c *Client) Whois(ctx context.Context, domain string) (string, error) {
	return c.post(ctx, EndpointWhois, domain)
}

func (c *Client) post(ctx context.Context, endpoint, domain string) (string, error) {
	body, err := json.Marshal(scanRequest{Target: domain})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", errors.NewBackendError(endpoint, resp.StatusCode, resp.Status)
	}

	var out scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.logger.WithFields(logger.Fields{
		"endpoint": endpoint,
		"domain":   domain,
		"bytes":    len(out.Result),
	}).Debug("backend call completed")

	return out.Result, nil
}

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
