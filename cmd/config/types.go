// Package config holds the flag values of the grader commands.
package config

// LayerFlags selects the non-environment sources of a layered section.
type LayerFlags struct {
	JSON string
	KV   []string
	File string
}

// MetaFlags holds report metadata flags.
type MetaFlags struct {
	LayerFlags
}

// UploadFlags holds artifact upload flags.
type UploadFlags struct {
	Provider string
	LayerFlags
}

// WebhookFlags holds report delivery flags. The direct flags override
// the layered sources.
type WebhookFlags struct {
	URL        string
	Method     string
	AuthType   string
	AuthToken  string
	Timeout    string
	Retries    int
	RetryDelay string

	LayerFlags
}

// GradeFlags holds the flags of the grade command.
type GradeFlags struct {
	Format string
	DryRun bool

	Meta    MetaFlags
	Upload  UploadFlags
	Webhook WebhookFlags
}

// GlobalFlags are shared by every command.
type GlobalFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Verbose    bool
}
