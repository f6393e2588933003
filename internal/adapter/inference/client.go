// Package inference implements HTTP clients for the ML sidecar services
// (speech-to-text, translation, POS tagging). Each client satisfies the
// matching domain capability interface; the model instances themselves stay
// opaque behind the sidecar's API.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/metrics"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/platform/retry"
)

const (
	retryMaxAttempts      = 3
	retryInitialBackoff   = 1 * time.Second
	retryRateLimitBackoff = 10 * time.Second
)

// APIError is a non-2xx response from a sidecar.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference sidecar returned %d: %s", e.StatusCode, e.Message)
}

// classifyError maps sidecar failures onto retry actions: rate limiting backs
// off longer, server errors retry, everything else is permanent.
func classifyError(err error) retry.Action {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// Transport-level failure (connection refused, timeout)
		return retry.Retry
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return retry.After
	case apiErr.StatusCode >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

// client is the shared HTTP plumbing for all three capabilities.
type client struct {
	baseURL    string
	capability string
	httpClient *http.Client
}

func newClient(baseURL, capability string, timeout time.Duration) *client {
	return &client{
		baseURL:    baseURL,
		capability: capability,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// postJSON sends one JSON request and decodes the JSON response into out,
// retrying transient failures with backoff.
func (c *client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", c.capability, err)
	}

	policy := retry.Policy{
		MaxAttempts:      retryMaxAttempts,
		InitialBackoff:   retryInitialBackoff,
		RateLimitBackoff: retryRateLimitBackoff,
	}

	return retry.DoVoid(ctx, policy, classifyError, func() error {
		return c.doOnce(ctx, path, body, out)
	})
}

func (c *client) doOnce(ctx context.Context, path string, body []byte, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.capability, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(c.capability, "transport_error").Inc()
		return fmt.Errorf("%s request failed: %w", c.capability, err)
	}
	defer resp.Body.Close()

	metrics.InferenceRequestDuration.WithLabelValues(c.capability).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.InferenceRequestsTotal.WithLabelValues(c.capability, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{StatusCode: resp.StatusCode, Message: string(msg)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(c.capability, "decode_error").Inc()
		return fmt.Errorf("decode %s response: %w", c.capability, err)
	}

	metrics.InferenceRequestsTotal.WithLabelValues(c.capability, "ok").Inc()
	return nil
}
