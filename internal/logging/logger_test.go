package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"latinize/internal/config"
	"latinize/internal/logging"
	"latinize/internal/services"
)

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	logging.NewComponentLogger(logger, "llm").Info("request sent", logging.String("model", "deepseek-chat"), logging.String("note", "two words"))
	line := buf.String()
	if !strings.Contains(line, " INFO llm: request sent") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "model=deepseek-chat") || !strings.Contains(line, `note="two words"`) {
		t.Fatalf("expected formatted fields, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("expected component attribute to be lifted, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level, got %q", line)
	}
}

func TestConsoleLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "WARN shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestJSONLoggerUsesCanonicalKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Error("save failed", logging.Error(errors.New("disk full")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if entry["level"] != "error" || entry["msg"] != "save failed" || entry["error"] != "disk full" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesRotatingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "latinize.log")
	cfg.Logging.Level = "debug"

	logger, closer, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("to file", logging.Int("count", 3))
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) || !strings.Contains(string(data), `"count":3`) {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestWithContextAddsBatchFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithOperation(ctx, "latinize")
	ctx = services.WithItemIndex(ctx, 4)

	logging.WithContext(ctx, logger).Info("item done")
	out := buf.String()
	for _, want := range []string{`"job_id":"job-1"`, `"operation":"latinize"`, `"item_index":4`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %q", want, out)
		}
	}
	if logging.WithContext(context.Background(), logger) != logger {
		t.Fatal("expected logger unchanged without context fields")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "cache save failed", "cache_save_failed", logging.String(logging.FieldImpact, "changes kept in memory"))
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "cache_save_failed" || entry[logging.FieldErrorHint] == nil || entry[logging.FieldImpact] != "changes kept in memory" {
		t.Fatalf("unexpected entry %v", entry)
	}
	logging.WarnWithContext(nil, "ignored", "x")
}
