package helpers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/zinc-sig/grader/cmd/config"
	"github.com/zinc-sig/grader/internal/layers"
	"github.com/zinc-sig/grader/internal/upload"
)

// BuildUploadConfig merges the upload section from all sources.
func BuildUploadConfig(cfg *config.UploadFlags) (map[string]any, error) {
	m, err := layers.Source{
		EnvPrefix: layers.UploadPrefix,
		File:      cfg.File,
		JSON:      cfg.JSON,
		KV:        cfg.KV,
	}.BuildMap()
	if err != nil {
		return nil, fmt.Errorf("failed to build upload config: %w", err)
	}
	return m, nil
}

// SetupUploadProvider creates and configures the provider named by the
// flags. It returns nil values when no provider is requested.
func SetupUploadProvider(ctx context.Context, cfg *config.UploadFlags) (upload.Provider, map[string]any, error) {
	if cfg.Provider == "" {
		return nil, nil, nil
	}

	conf, err := BuildUploadConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	provider, err := upload.New(cfg.Provider)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create upload provider: %w", err)
	}
	if err := provider.Configure(ctx, conf); err != nil {
		return nil, nil, fmt.Errorf("failed to configure upload provider: %w", err)
	}

	return provider, conf, nil
}

// UploadDiagnostics uploads the compiler side file of a run and returns the
// artifact keys by name.
func UploadDiagnostics(ctx context.Context, artifacts *upload.Artifacts, diagnosticsPath string) (map[string]string, error) {
	keys := make(map[string]string)
	if diagnosticsPath == "" {
		return keys, nil
	}
	key, err := artifacts.PutFile(ctx, diagnosticsPath, filepath.Base(diagnosticsPath))
	if err != nil {
		return keys, err
	}
	keys["diagnostics"] = key
	return keys, nil
}

// UploadReport uploads an already rendered report.
func UploadReport(ctx context.Context, artifacts *upload.Artifacts, report io.Reader) (string, error) {
	return artifacts.Put(ctx, report, "report.json")
}

// PrintUploadInfo prints upload configuration in verbose mode.
func PrintUploadInfo(w io.Writer, provider upload.Provider, conf map[string]any, runID string) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Upload Configuration")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Provider:       %s\n", provider.Name())
	for _, key := range []string{"endpoint", "bucket", "prefix"} {
		if v, ok := conf[key]; ok && v != "" {
			fmt.Fprintf(w, "%-15s %v\n", key+":", v)
		}
	}
	fmt.Fprintf(w, "Compress:       %v\n", layers.Bool(conf, "compress", false))
	fmt.Fprintf(w, "Run ID:         %s\n", runID)
	fmt.Fprintln(w, "----------------------------------------")
}
