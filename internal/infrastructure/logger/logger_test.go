package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_JSONForProduction(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "ms_ecf_core", "info", "production")

	log.Info("document generated", "type_code", 31)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}

	if entry["app"] != "ms_ecf_core" {
		t.Errorf("expected app attribute, got %v", entry["app"])
	}

	if entry["msg"] != "document generated" {
		t.Errorf("unexpected message: %v", entry["msg"])
	}
}

func TestNewWithWriter_TextForLocal(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "ms_ecf_core", "debug", "local")

	log.Debug("building section", "section", "IdDoc")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") {
		t.Errorf("expected text output with debug level, got %q", out)
	}

	// A bytes.Buffer is not a terminal, so no color codes are added.
	if strings.Contains(out, colorCyan) {
		t.Errorf("expected no color codes for non-terminal writer, got %q", out)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "ms_ecf_core", "warn", "production")

	log.Info("ignored")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("expected warn to be written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for input, expected := range tests {
		if got := parseLevel(input).Level(); got != expected {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, expected)
		}
	}
}

func TestNewWithWriter_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "ms_ecf_core", "info", "production")

	log.Info("connecting", "db_password", "hunter2", "access_token", "abc", "host", "db.local")

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, `"abc"`) {
		t.Errorf("expected credentials to be redacted, got %q", out)
	}
	if !strings.Contains(out, "db.local") {
		t.Errorf("expected non-sensitive attributes to be kept, got %q", out)
	}
}

func TestNewWithWriter_ShortSource(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "ms_ecf_core", "info", "production")

	log.Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	src, _ := entry["source"].(string)
	if !strings.HasPrefix(src, "logger_test.go:") {
		t.Errorf("expected short source location, got %v", entry["source"])
	}
}

func TestColorWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &colorWriter{writer: &buf, enabled: true}

	line := []byte("level=WARN msg=slow\n")
	n, err := cw.Write(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(line) {
		t.Errorf("expected %d bytes reported, got %d", len(line), n)
	}
	if !strings.Contains(buf.String(), colorYellow+"level=WARN"+colorReset) {
		t.Errorf("expected colored level, got %q", buf.String())
	}
}
