// Package webhook delivers grading reports to an HTTP endpoint with retries.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zinc-sig/grader/internal/logger"
)

// perRequestTimeout bounds a single attempt.
const perRequestTimeout = 10 * time.Second

type Client struct {
	httpClient  *http.Client
	config      *Config
	retryConfig *RetryConfig
}

// NewClient fills unset fields of config and retryConfig with defaults.
func NewClient(config *Config, retryConfig *RetryConfig) *Client {
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: perRequestTimeout},
		config:      config,
		retryConfig: retryConfig,
	}
}

// Send posts payload as JSON. Retryable statuses and transport errors are
// retried with exponential backoff until MaxRetries or Timeout runs out.
func (c *Client) Send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var (
		lastErr    error
		retryAfter time.Duration
	)
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryConfig.Delay(attempt, retryAfter)
			logger.Debug(ctx, "retrying webhook",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.retryConfig.MaxRetries),
				zap.Duration("delay", delay))

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("webhook timeout after %d attempts: %w", attempt, ctx.Err())
			}
		}

		var status int
		status, retryAfter, err = c.do(ctx, body)
		if err == nil && status >= 200 && status < 300 {
			logger.Info(ctx, "webhook delivered", zap.String("url", c.config.URL), zap.Int("status", status))
			return nil
		}

		if err != nil {
			lastErr = fmt.Errorf("attempt %d failed: %w", attempt+1, err)
		} else {
			lastErr = fmt.Errorf("attempt %d failed with status %d", attempt+1, status)
		}
		logger.Warn(ctx, "webhook attempt failed", zap.Error(lastErr))

		if status > 0 && !isRetryableStatus(status) {
			return lastErr
		}
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", c.retryConfig.MaxRetries+1, lastErr)
}

// do performs one attempt and returns the status with any Retry-After hint.
func (c *Client) do(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, c.config.Method, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	switch c.config.AuthType {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	case AuthAPIKey:
		req.Header.Set("X-API-Key", c.config.AuthToken)
	case AuthJWT:
		token, err := signBody(body, []byte(c.config.AuthToken), time.Now())
		if err != nil {
			return 0, 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), nil
}
