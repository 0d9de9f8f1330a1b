// Package transport implements the HTTP wire layer for the search API.
// It carries serialized payloads and returns raw response bodies; all
// query construction and response shaping happens in the caller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config holds the transport settings.
type Config struct {
	BaseURL    string
	Tenant     string
	Database   string
	APIKey     string
	Timeout    time.Duration
	Retries    uint
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is an HTTP client scoped to one tenant and database.
type Client struct {
	baseURL  string
	tenant   string
	database string
	apiKey   string
	retries  uint
	http     *http.Client
	logger   *zap.Logger
}

// New creates a transport client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		tenant:   cfg.Tenant,
		database: cfg.Database,
		apiKey:   cfg.APIKey,
		retries:  cfg.Retries,
		http:     hc,
		logger:   logger,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status    int
	Body      string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d (request %s): %s", e.Status, e.RequestID, e.Body)
}

// Search posts a search request against a collection and returns the raw
// response body.
func (c *Client) Search(ctx context.Context, collection string, body any) ([]byte, error) {
	endpoint := fmt.Sprintf(
		"%s/api/v2/tenants/%s/databases/%s/collections/%s/search",
		c.baseURL,
		url.PathEscape(c.tenant),
		url.PathEscape(c.database),
		url.PathEscape(collection),
	)
	return c.post(ctx, endpoint, body)
}

func (c *Client) post(ctx context.Context, endpoint string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode request body")
	}
	requestID := uuid.NewString()

	var out []byte
	err = retry.Do(
		func() error {
			var doErr error
			out, doErr = c.do(ctx, endpoint, payload, requestID)
			return doErr
		},
		retry.Context(ctx),
		retry.Attempts(c.retries+1),
		retry.RetryIf(isRetryable),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("retrying request",
				zap.String("request_id", requestID),
				zap.Uint("attempt", attempt+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, endpoint string, payload []byte, requestID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			Status:    resp.StatusCode,
			Body:      strings.TrimSpace(string(data)),
			RequestID: requestID,
		}
	}

	c.logger.Debug("request completed",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return data, nil
}

// isRetryable reports whether a failed attempt is worth repeating: transport
// errors and throttling or server-side statuses, but never context
// cancellation or client-side 4xx.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests ||
			apiErr.Status >= http.StatusInternalServerError
	}
	return true
}
