package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if TeeHandler(nil, inner) != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := TeeHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be disabled")
	}
	logger := slog.New(h)
	logger.Info("hello")
	if !strings.Contains(infoBuf.String(), "hello") {
		t.Fatalf("expected info sink to receive record, got %q", infoBuf.String())
	}
	if errBuf.Len() != 0 {
		t.Fatalf("expected error sink to stay empty, got %q", errBuf.String())
	}
	logger.Error("boom")
	if !strings.Contains(errBuf.String(), "boom") || !strings.Contains(infoBuf.String(), "boom") {
		t.Fatal("expected both sinks to receive error records")
	}
}

func TestTeeHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(TeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil)))
	logger.With("job_id", "j1").WithGroup("req").Info("sent", "status", 200)
	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, `"job_id":"j1"`) || !strings.Contains(out, `"req":{"status":200}`) {
			t.Fatalf("unexpected output %q", out)
		}
	}
}
