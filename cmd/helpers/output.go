package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/zinc-sig/grader/internal/grader"
	"github.com/zinc-sig/grader/internal/logger"
	"github.com/zinc-sig/grader/internal/output"
	"github.com/zinc-sig/grader/internal/upload"
	"github.com/zinc-sig/grader/internal/webhook"
)

// Delivery lists the optional destinations of a report besides stdout.
type Delivery struct {
	Artifacts       *upload.Artifacts
	DiagnosticsPath string
	Webhook         *webhook.Client
}

// Deliver uploads artifacts, sends the webhook and finally writes the
// report to w. Upload and webhook failures are recorded in the JSON report
// and logged; they never change the grade or the exit status. Failing to
// write the report is an infrastructure error.
func Deliver(ctx context.Context, w io.Writer, format output.Format, report *output.Report, d Delivery) error {
	if d.Artifacts != nil {
		if err := uploadArtifacts(ctx, d.Artifacts, d.DiagnosticsPath, report); err != nil {
			logger.Error(ctx, "artifact upload failed", zap.Error(err))
			report.UploadError = err.Error()
		}
	}

	if d.Webhook != nil {
		payload := *report
		payload.WebhookSent = false
		payload.WebhookError = ""

		if err := d.Webhook.Send(ctx, &payload); err != nil {
			logger.Error(ctx, "webhook delivery failed", zap.Error(err))
			report.WebhookError = err.Error()
		} else {
			report.WebhookSent = true
		}
	}

	return grader.ReportError(output.Write(w, format, report))
}

func uploadArtifacts(ctx context.Context, artifacts *upload.Artifacts, diagnosticsPath string, report *output.Report) error {
	keys, err := UploadDiagnostics(ctx, artifacts, diagnosticsPath)
	report.Artifacts = keys
	if err != nil {
		return err
	}

	// the stored report lists its own key
	keys["report"] = artifacts.Key("report.json")
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report for upload: %w", err)
	}
	if _, err := UploadReport(ctx, artifacts, bytes.NewReader(data)); err != nil {
		delete(keys, "report")
		return err
	}
	return nil
}
