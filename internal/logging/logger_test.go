package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamelens/internal/config"
	"gamelens/internal/logging"
	"gamelens/internal/services"
)

func logFile(t *testing.T) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "gamelens.log")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "gamelens.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "debug message") {
		t.Fatalf("expected debug message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath, read := logFile(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	if content := read(); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	logPath, read := logFile(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "search")
	logger.Info("search complete", logging.String(logging.FieldQuery, "street fighter"), logging.Int("results", 3))

	content := read()
	if !strings.Contains(content, "INFO search: search complete") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, `query="street fighter"`) {
		t.Fatalf("expected quoted query field, got %q", content)
	}
	if !strings.Contains(content, "results=3") {
		t.Fatalf("expected results field, got %q", content)
	}
}

func TestJSONLoggerUsesStandardKeys(t *testing.T) {
	logPath, read := logFile(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("source failed", logging.Error(errors.New("boom")))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload["error"] != "boom" {
		t.Fatalf("expected error field, got %v", payload["error"])
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	logPath, read := logFile(t)
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithSource(ctx, "RAWG")
	logging.WithContext(ctx, base).Info("hello")

	content := read()
	for _, fragment := range []string{"correlation_id=req-1", "source=RAWG"} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath, read := logFile(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "adapter failed", "source_search_failed",
		logging.String(logging.FieldImpact, "source skipped"))

	content := read()
	for _, fragment := range []string{"event_type=source_search_failed", "error_hint=", `impact="source skipped"`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	logPath, read := logFile(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "every source failed", "source_list_exhausted",
		logging.String(logging.FieldErrorHint, "run doctor"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if payload["level"] != "error" || payload["event_type"] != "source_list_exhausted" {
		t.Fatalf("unexpected level or event type: %v", payload)
	}
	if payload["error_hint"] != "run doctor" {
		t.Fatalf("expected caller hint to win, got %v", payload["error_hint"])
	}
	if payload["impact"] != "request could not be served" {
		t.Fatalf("expected default impact, got %v", payload["impact"])
	}
}
