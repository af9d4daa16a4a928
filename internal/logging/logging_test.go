package logging

import (
	"bytes"
	"context"
	"io"
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
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestFrom(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := From(context.Background(), fallback); got != fallback {
		t.Error("From(empty ctx) did not return fallback")
	}

	var buf bytes.Buffer
	scoped := New(&buf, "info").With("event_id", "abc")
	ctx := WithLogger(context.Background(), scoped)
	From(ctx, fallback).Info("hello")
	if !strings.Contains(buf.String(), "event_id=abc") {
		t.Errorf("scoped logger not used, output:\n%s", buf.String())
	}
}
