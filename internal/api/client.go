// Package api is the gateway to the Farmart REST API. It owns the
// bearer credential and exposes verb-based JSON calls; every non-2xx
// response surfaces the server's message as a *RequestError. There is
// no retry policy: each failure is terminal for that attempt.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmart/farmart-go/internal/circuitbreaker"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	breaker    *circuitbreaker.Breaker

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the default transport (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken seeds the bearer credential, e.g. from a persisted session.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithCircuitBreaker guards calls with the given breaker. While the
// breaker is open, calls fail immediately with its error instead of
// reaching the network.
func WithCircuitBreaker(b *circuitbreaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func NewClient(baseURL string, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer credential attached to subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken drops the credential; subsequent calls go out anonymous.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// PostMultipart uploads a file as a multipart form, used for
// POST /upload-image.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, file io.Reader, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.breaker == nil {
		return c.roundTrip(req, out, requestID)
	}

	// Only transport failures and 5xx responses count against the
	// breaker; a 4xx means the upstream is healthy and rejecting us.
	var callErr error
	breakerErr := c.breaker.Execute(func() error {
		callErr = c.roundTrip(req, out, requestID)
		var reqErr *RequestError
		if errors.As(callErr, &reqErr) && reqErr.Status < http.StatusInternalServerError {
			return nil
		}
		return callErr
	})
	if errors.Is(breakerErr, circuitbreaker.ErrBreakerOpen) {
		return breakerErr
	}
	return callErr
}

func (c *Client) roundTrip(req *http.Request, out interface{}, requestID string) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"request_id": requestID,
		}).WithError(err).Warn("Request failed")
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start).Milliseconds(),
		"request_id": requestID,
	}).Debug("Request completed")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newRequestError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// maxResponseBytes caps how much of a response body is read into memory.
const maxResponseBytes = 10 << 20
