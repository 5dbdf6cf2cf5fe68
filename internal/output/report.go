// Package output renders grading reports for stdout and for delivery to
// remote consumers.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/zinc-sig/grader/internal/compare"
	"github.com/zinc-sig/grader/internal/grader"
)

// Format selects how a report is written to stdout.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

type Scores struct {
	Compilation int `json:"compilation"`
	Termination int `json:"termination"`
	Output      int `json:"output"`
	Memory      int `json:"memory"`
	Score       int `json:"score"`
}

type Compile struct {
	Warnings    int    `json:"warnings"`
	Errors      int    `json:"errors"`
	Diagnostics string `json:"diagnostics"`
	DurationMs  int64  `json:"duration_ms"`
}

type Execution struct {
	Command       string `json:"command"`
	Status        string `json:"status"`
	ExitCode      int    `json:"exit_code"`
	Signal        string `json:"signal,omitempty"`
	ExecutionTime int64  `json:"execution_time"`
}

type Comparison struct {
	Matched        int64           `json:"matched"`
	StreamBytes    int64           `json:"stream_bytes"`
	ReferenceBytes int64           `json:"reference_bytes"`
	Ratio          decimal.Decimal `json:"ratio"`
}

// Report is the JSON form of a grade.
type Report struct {
	RunID      string      `json:"run_id"`
	Source     string      `json:"source"`
	Args       string      `json:"args"`
	Input      string      `json:"input"`
	Reference  string      `json:"reference"`
	DeadlineMs int64       `json:"deadline_ms"`
	Scores     Scores      `json:"scores"`
	Compile    Compile     `json:"compile"`
	Execution  *Execution  `json:"execution,omitempty"`
	Comparison *Comparison `json:"comparison,omitempty"`
	Metadata   any         `json:"metadata,omitempty"`

	// Remote object keys of uploaded artifacts, keyed by artifact name.
	Artifacts   map[string]string `json:"artifacts,omitempty"`
	UploadError string            `json:"upload_error,omitempty"`

	// Delivery status, only in local output.
	WebhookSent  bool   `json:"webhook_sent,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
}

// New builds the JSON report for one graded request.
func New(runID string, req grader.Request, rep *grader.Report, metadata any) *Report {
	r := &Report{
		RunID:      runID,
		Source:     req.SourcePath,
		Args:       req.ArgsPath,
		Input:      req.InputPath,
		Reference:  req.ReferencePath,
		DeadlineMs: req.Deadline.Milliseconds(),
		Scores: Scores{
			Compilation: rep.Compilation,
			Termination: rep.Termination,
			Output:      rep.Output,
			Memory:      rep.Memory,
			Score:       rep.Score,
		},
		Metadata: metadata,
	}

	if c := rep.Compile; c != nil {
		r.Compile = Compile{
			Warnings:    c.Warnings,
			Errors:      c.Errors,
			Diagnostics: c.DiagnosticsPath,
			DurationMs:  c.Duration.Milliseconds(),
		}
	}

	if e := rep.Execution; e != nil {
		r.Execution = &Execution{
			Command:       e.Command,
			Status:        string(e.Status),
			ExitCode:      e.ExitCode,
			ExecutionTime: e.ExecutionTime,
		}
		if e.Signal != 0 {
			r.Execution.Signal = e.Signal.String()
		}
	}

	if c := rep.Comparison; c != nil {
		r.Comparison = &Comparison{
			Matched:        c.Matched,
			StreamBytes:    c.StreamBytes,
			ReferenceBytes: c.ReferenceBytes,
			Ratio:          Ratio(*c),
		}
	}

	return r
}

// Ratio is the exact similarity matched/max(stream, reference) rounded to
// four places; the integer Output sub-score is its floored percentage.
func Ratio(c compare.Result) decimal.Decimal {
	longest := max(c.StreamBytes, c.ReferenceBytes)
	if longest == 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(c.Matched).
		DivRound(decimal.NewFromInt(longest), 4)
}

// Write renders r to w in the given format. The text form is the five
// sub-score lines and nothing else.
func Write(w io.Writer, format Format, r *Report) error {
	if format == FormatJSON {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	text := &grader.Report{
		Compilation: r.Scores.Compilation,
		Termination: r.Scores.Termination,
		Output:      r.Scores.Output,
		Memory:      r.Scores.Memory,
		Score:       r.Scores.Score,
	}
	return text.WriteText(w)
}
