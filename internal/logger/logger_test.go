package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", "json")

	l.Debug("hidden")
	l.Info("optimized", "proportion", 0.5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON record: %v", err)
	}
	if rec["msg"] != "optimized" {
		t.Errorf("expected msg optimized, got %v", rec["msg"])
	}
	if rec["proportion"] != 0.5 {
		t.Errorf("expected proportion 0.5, got %v", rec["proportion"])
	}
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "text")

	l.Debug("sweep", "cells", 4)

	if !strings.Contains(buf.String(), "msg=sweep") || !strings.Contains(buf.String(), "cells=4") {
		t.Errorf("unexpected text record: %q", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(NewWithWriter(&buf, "info", "text"), "engine")

	l.Info("ready")

	if !strings.Contains(buf.String(), "component=engine") {
		t.Errorf("expected component attribute, got %q", buf.String())
	}

	// nil logger falls back to a discarding one
	Component(nil, "engine").Info("dropped")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected discard logger to drop errors")
	}
}
