package webhook

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zinc-sig/grader/internal/layers"
)

// Authentication schemes.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthAPIKey = "api-key"
	AuthJWT    = "jwt" // AuthToken is the HS256 secret
)

// Config describes the report delivery endpoint.
type Config struct {
	URL       string
	Method    string
	Headers   map[string]string
	Timeout   time.Duration // bounds all attempts together
	AuthType  string
	AuthToken string
}

type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// FromMap converts a layered webhook section into client configuration.
// A missing url yields nil configs and no error: delivery is disabled.
//
// Recognised keys: url, method, auth_type, auth_token, timeout,
// retries, retry_delay and headers (an object of strings).
func FromMap(m map[string]any) (*Config, *RetryConfig, error) {
	url, _ := layers.String(m, "url")
	if url == "" {
		return nil, nil, nil
	}

	cfg := &Config{
		URL:       url,
		Method:    strings.ToUpper(layers.StringOr(m, "method", http.MethodPost)),
		AuthType:  layers.StringOr(m, "auth_type", AuthNone),
		AuthToken: layers.StringOr(m, "auth_token", ""),
		Timeout:   30 * time.Second,
	}
	switch cfg.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, nil, fmt.Errorf("unsupported webhook method %q", cfg.Method)
	}
	switch cfg.AuthType {
	case AuthNone, AuthBearer, AuthAPIKey, AuthJWT:
	default:
		return nil, nil, fmt.Errorf("unsupported webhook auth type %q", cfg.AuthType)
	}

	if s, ok := layers.String(m, "timeout"); ok && s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid webhook timeout duration: %w", err)
		}
		cfg.Timeout = d
	}

	if h, ok := m["headers"].(map[string]any); ok {
		cfg.Headers = make(map[string]string, len(h))
		for k, v := range h {
			cfg.Headers[k] = fmt.Sprint(v)
		}
	}

	retry := DefaultRetryConfig()
	retry.MaxRetries = layers.Int(m, "retries", retry.MaxRetries)
	if retry.MaxRetries < 0 {
		return nil, nil, fmt.Errorf("webhook retries must not be negative")
	}
	if s, ok := layers.String(m, "retry_delay"); ok && s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid webhook retry delay: %w", err)
		}
		retry.InitialDelay = d
	}

	return cfg, retry, nil
}
