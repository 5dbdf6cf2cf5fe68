package helpers

import (
	"github.com/spf13/cobra"

	"github.com/zinc-sig/grader/cmd/config"
)

// SetupGlobalFlags adds the persistent flags of the root command.
func SetupGlobalFlags(cmd *cobra.Command, flags *config.GlobalFlags) {
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to a TOML settings file")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides settings)")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Log format: console, json (overrides settings)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Show program stderr, execution banners and debug logs on stderr")
}

// SetupOutputFlags adds report rendering flags.
func SetupOutputFlags(cmd *cobra.Command, flags *config.GradeFlags) {
	cmd.Flags().StringVarP(&flags.Format, "format", "f", "text", "Report format: text, json")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print what would be run without compiling or executing")
}

// SetupMetaFlags adds report metadata flags.
func SetupMetaFlags(cmd *cobra.Command, cfg *config.MetaFlags) {
	cmd.Flags().StringVar(&cfg.JSON, "meta", "", "Report metadata as JSON string")
	cmd.Flags().StringArrayVar(&cfg.KV, "meta-kv", nil, "Report metadata key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.File, "meta-file", "", "Path to JSON, TOML or YAML file containing report metadata")
}

// SetupUploadFlags adds artifact upload flags.
func SetupUploadFlags(cmd *cobra.Command, cfg *config.UploadFlags) {
	cmd.Flags().StringVar(&cfg.Provider, "upload-provider", "", "Upload provider type (e.g., minio)")
	cmd.Flags().StringVar(&cfg.JSON, "upload-config", "", "Upload configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.KV, "upload-config-kv", nil, "Upload config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.File, "upload-config-file", "", "Path to JSON, TOML or YAML file containing upload configuration")
}

// SetupWebhookFlags adds report delivery flags.
func SetupWebhookFlags(cmd *cobra.Command, cfg *config.WebhookFlags) {
	cmd.Flags().StringVar(&cfg.URL, "webhook-url", "", "Webhook URL to send the JSON report to")
	cmd.Flags().StringVar(&cfg.Method, "webhook-method", "", "HTTP method: GET, POST, PUT, PATCH, DELETE (default POST)")
	cmd.Flags().StringVar(&cfg.AuthType, "webhook-auth-type", "", "Authentication type: none, bearer, api-key, jwt")
	cmd.Flags().StringVar(&cfg.AuthToken, "webhook-auth-token", "", "Authentication token, or the HS256 secret for jwt (use with --webhook-auth-type)")
	cmd.Flags().IntVar(&cfg.Retries, "webhook-retries", -1, "Maximum webhook retry attempts (default 3, 0 = no retries)")
	cmd.Flags().StringVar(&cfg.RetryDelay, "webhook-retry-delay", "", "Initial delay between webhook retries (default 1s)")
	cmd.Flags().StringVar(&cfg.Timeout, "webhook-timeout", "", "Total timeout for webhook including retries (default 30s)")

	cmd.Flags().StringVar(&cfg.JSON, "webhook-config", "", "Webhook configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.KV, "webhook-config-kv", nil, "Webhook config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.File, "webhook-config-file", "", "Path to JSON, TOML or YAML file containing webhook configuration")
}
