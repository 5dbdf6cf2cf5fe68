package helpers

import (
	"fmt"

	"github.com/zinc-sig/grader/cmd/config"
	"github.com/zinc-sig/grader/internal/layers"
	"github.com/zinc-sig/grader/internal/webhook"
)

// BuildWebhookConfig merges the webhook section from all sources.
// Precedence: env < file < json < kv < direct flags.
func BuildWebhookConfig(cfg *config.WebhookFlags) (map[string]any, error) {
	m, err := layers.Source{
		EnvPrefix: layers.WebhookPrefix,
		File:      cfg.File,
		JSON:      cfg.JSON,
		KV:        cfg.KV,
	}.BuildMap()
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}

	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("url", cfg.URL)
	set("method", cfg.Method)
	set("auth_type", cfg.AuthType)
	set("auth_token", cfg.AuthToken)
	set("timeout", cfg.Timeout)
	set("retry_delay", cfg.RetryDelay)
	if cfg.Retries >= 0 {
		m["retries"] = cfg.Retries
	}

	return m, nil
}

// NewWebhookClient returns nil when no webhook URL is configured.
func NewWebhookClient(cfg *config.WebhookFlags) (*webhook.Client, error) {
	m, err := BuildWebhookConfig(cfg)
	if err != nil {
		return nil, err
	}
	wc, rc, err := webhook.FromMap(m)
	if err != nil {
		return nil, err
	}
	if wc == nil {
		return nil, nil
	}
	return webhook.NewClient(wc, rc), nil
}
