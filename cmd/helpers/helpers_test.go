package helpers

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zinc-sig/grader/cmd/config"
	"github.com/zinc-sig/grader/internal/compiler"
	settings "github.com/zinc-sig/grader/internal/config"
	"github.com/zinc-sig/grader/internal/grader"
	"github.com/zinc-sig/grader/internal/output"
)

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "1", want: time.Second},
		{in: "30", want: 30 * time.Second},
		{in: "500ms", want: 500 * time.Millisecond},
		{in: "1m30s", want: 90 * time.Second},
		{in: "0", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "-1s", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "soon", wantErr: true},
		{in: "", wantErr: true},
		{in: "9223372036", want: 9223372036 * time.Second},
		{in: "9223372037", wantErr: true},
		{in: "18446744074", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDeadline(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDeadline(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDeadline(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewStageUsesSettings(t *testing.T) {
	s := settings.Default()
	s.Compiler.Command = "clang -O2 {src} -o {bin}"
	s.Compiler.DiagnosticSuffix = ".log"

	stage, err := NewStage(s)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(stage.Command("a b.c", "a b"), "|")
	if got != "clang|-O2|a b.c|-o|a b" {
		t.Errorf("Command() = %q", got)
	}

	limits := ArgLimits(s)
	if limits.MaxArgs != s.Fixtures.MaxArgs || limits.MaxBytes != s.Fixtures.MaxArgsBytes {
		t.Errorf("ArgLimits() = %+v", limits)
	}
}

func TestBuildMetadata(t *testing.T) {
	t.Setenv("GRADER_META_TERM", "2026fall")

	meta, err := BuildMetadata(&config.MetaFlags{LayerFlags: config.LayerFlags{
		JSON: `{"term": "override", "lab": 1}`,
		KV:   []string{"student=s1"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	m := meta.(map[string]any)
	if m["term"] != "override" || m["lab"] != float64(1) || m["student"] != "s1" {
		t.Errorf("metadata = %v", m)
	}

	if _, err := BuildMetadata(&config.MetaFlags{LayerFlags: config.LayerFlags{KV: []string{"broken"}}}); err == nil {
		t.Error("expected error for malformed key=value")
	}
}

func TestBuildWebhookConfig(t *testing.T) {
	t.Setenv("GRADER_WEBHOOK", `{"url": "http://env", "method": "PUT", "retries": 7}`)

	flags := &config.WebhookFlags{
		URL:        "http://flag",
		Retries:    -1,
		RetryDelay: "2s",
		LayerFlags: config.LayerFlags{KV: []string{"auth_type=bearer", "auth_token=t"}},
	}
	m, err := BuildWebhookConfig(flags)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"url":         "http://flag",
		"method":      "PUT",
		"retries":     float64(7),
		"retry_delay": "2s",
		"auth_type":   "bearer",
		"auth_token":  "t",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %#v, want %#v", k, m[k], v)
		}
	}

	flags.Retries = 0
	if m, _ = BuildWebhookConfig(flags); m["retries"] != 0 {
		t.Errorf("explicit --webhook-retries 0 should win, got %#v", m["retries"])
	}
}

func TestNewWebhookClientDisabled(t *testing.T) {
	client, err := NewWebhookClient(&config.WebhookFlags{Retries: -1})
	if err != nil || client != nil {
		t.Errorf("NewWebhookClient() = %v, %v; want nil, nil", client, err)
	}
}

func TestSetupUploadProviderDisabled(t *testing.T) {
	p, conf, err := SetupUploadProvider(context.Background(), &config.UploadFlags{})
	if p != nil || conf != nil || err != nil {
		t.Errorf("SetupUploadProvider() = %v, %v, %v", p, conf, err)
	}
}

func TestPrintDryRun(t *testing.T) {
	stage, err := compiler.New(compiler.Config{})
	if err != nil {
		t.Fatal(err)
	}
	req := grader.Request{
		SourcePath:    "lab1.c",
		ArgsPath:      "lab1.args",
		InputPath:     "lab1.in",
		ReferencePath: "lab1.out",
		Deadline:      2 * time.Second,
	}

	var buf bytes.Buffer
	if err := PrintDryRun(&buf, stage, req, []string{"-n", "3"}, map[string]any{"lab": 1}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"gcc -Wall lab1.c -o lab1",
		"./lab1 -n 3",
		"lab1.in",
		"lab1.out",
		"2s",
		`"lab": 1`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("dry run output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestDeliverWithoutDestinations(t *testing.T) {
	var buf bytes.Buffer
	report := &output.Report{RunID: "r", Scores: output.Scores{Output: 100, Score: 100}}
	if err := Deliver(context.Background(), &buf, output.FormatText, report, Delivery{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\nScore: 100\n") {
		t.Errorf("output = %q", buf.String())
	}
	if report.WebhookSent || report.Artifacts != nil {
		t.Errorf("report changed without destinations: %+v", report)
	}
}
