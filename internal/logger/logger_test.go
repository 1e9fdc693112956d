package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", "text", &buf)

	log.Info("should be filtered")
	log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Error("info line leaked through warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("warn line missing")
	}
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", "json", &buf)
	log.Info("hello", slog.String("key", "value"))

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("bogus", "text", &buf)
	log.Debug("filtered at info")
	log.Info("kept")

	out := buf.String()
	if strings.Contains(out, "filtered at info") || !strings.Contains(out, "kept") {
		t.Errorf("unknown level should default to info, got %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", "text", &buf)

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Debug("through the context")
	if !strings.Contains(buf.String(), "through the context") {
		t.Error("logger did not round-trip through the context")
	}

	if FromContext(context.Background()) == nil {
		t.Error("bare context must fall back to the default logger")
	}
}
