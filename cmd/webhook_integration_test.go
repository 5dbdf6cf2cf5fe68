package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zinc-sig/grader/internal/output"
	"github.com/zinc-sig/grader/internal/webhook"
)

func TestGradeCommand_WithWebhook(t *testing.T) {
	var received output.Report
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Failed to read body: %v", err)
		}
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("Failed to unmarshal payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newSubmission(t, "echo ok", "", "", "", "ok\n")
	got := invoke(t, "", s.gradeArgs("2",
		"--format", "json",
		"--webhook-url", server.URL,
		"--webhook-auth-type", "bearer",
		"--webhook-auth-token", "secret",
		"--webhook-retries", "0",
		"--meta-kv", "student=s1",
	)...)
	if got.code != ExitOK {
		t.Fatalf("exit code = %d, stderr = %s", got.code, got.stderr)
	}

	var local output.Report
	if err := json.Unmarshal([]byte(got.stdout), &local); err != nil {
		t.Fatalf("Failed to parse stdout JSON: %v", err)
	}
	if !local.WebhookSent {
		t.Error("Expected webhook_sent to be true")
	}

	if received.RunID != local.RunID || received.Scores.Score != 100 {
		t.Errorf("webhook payload = %+v", received)
	}
	if received.WebhookSent {
		t.Error("Webhook payload should not include delivery status")
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestGradeCommand_WebhookJWT(t *testing.T) {
	const secret = "course-secret"
	var verified atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if err := webhook.VerifyBody(token, body, []byte(secret)); err != nil {
			t.Errorf("VerifyBody() error = %v", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		verified.Store(true)
	}))
	defer server.Close()

	s := newSubmission(t, "echo ok", "", "", "", "ok\n")
	got := invoke(t, "", s.gradeArgs("2",
		"--format", "json",
		"--webhook-url", server.URL,
		"--webhook-auth-type", "jwt",
		"--webhook-auth-token", secret,
		"--webhook-retries", "0",
	)...)
	if got.code != ExitOK {
		t.Fatalf("exit code = %d, stderr = %s", got.code, got.stderr)
	}

	var local output.Report
	if err := json.Unmarshal([]byte(got.stdout), &local); err != nil {
		t.Fatalf("Failed to parse stdout JSON: %v", err)
	}
	if !verified.Load() || !local.WebhookSent {
		t.Errorf("webhook not verified (sent=%v, error=%q)", local.WebhookSent, local.WebhookError)
	}
}

func TestGradeCommand_WebhookRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newSubmission(t, "echo ok", "", "", "", "ok\n")
	got := invoke(t, "", s.gradeArgs("2",
		"--format", "json",
		"--webhook-url", server.URL,
		"--webhook-retries", "3",
		"--webhook-retry-delay", "10ms",
	)...)
	if got.code != ExitOK {
		t.Fatalf("exit code = %d, stderr = %s", got.code, got.stderr)
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
	if !strings.Contains(got.stdout, `"webhook_sent":true`) {
		t.Errorf("stdout = %s", got.stdout)
	}
}

func TestGradeCommand_WebhookFailureKeepsGrade(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	s := newSubmission(t, "echo ok", "", "", "", "ok\n")

	t.Run("json records the error", func(t *testing.T) {
		got := invoke(t, "", s.gradeArgs("2", "--format", "json", "--webhook-url", server.URL)...)
		if got.code != ExitOK {
			t.Fatalf("exit code = %d, stderr = %s", got.code, got.stderr)
		}
		var local output.Report
		if err := json.Unmarshal([]byte(got.stdout), &local); err != nil {
			t.Fatal(err)
		}
		if local.WebhookSent || !strings.Contains(local.WebhookError, "status 400") {
			t.Errorf("webhook status = %v / %q", local.WebhookSent, local.WebhookError)
		}
		if local.Scores.Score != 100 {
			t.Errorf("Score = %d", local.Scores.Score)
		}
	})

	t.Run("text output unchanged", func(t *testing.T) {
		got := invoke(t, "", s.gradeArgs("2", "--webhook-url", server.URL)...)
		if got.code != ExitOK {
			t.Fatalf("exit code = %d", got.code)
		}
		if got.stdout != textReport(0, 0, 100, 0, 100) {
			t.Errorf("stdout = %q", got.stdout)
		}
	})
}

func TestGradeCommand_WebhookFromEnvironment(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("X-API-Key") != "k" {
			t.Errorf("X-API-Key = %q", r.Header.Get("X-API-Key"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	t.Setenv("GRADER_WEBHOOK_URL", server.URL)
	t.Setenv("GRADER_WEBHOOK", `{"auth_type": "api-key", "auth_token": "k"}`)

	s := newSubmission(t, "echo ok", "", "", "", "ok\n")
	if got := invoke(t, "", s.gradeArgs("2")...); got.code != ExitOK {
		t.Fatalf("exit code = %d, stderr = %s", got.code, got.stderr)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}
