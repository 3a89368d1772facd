package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConfigureJSON(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	var buf bytes.Buffer
	if err := Configure(&buf, "json", "warn"); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	Op().Info("dropped")
	Op().Warn("kept", "key", "categories")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one record, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "kept" || rec["key"] != "categories" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestConfigureRejectsUnknown(t *testing.T) {
	if err := Configure(&bytes.Buffer{}, "xml", "info"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := Configure(&bytes.Buffer{}, "text", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetLevelFromString(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		if err := SetLevelFromString(in); err != nil {
			t.Fatalf("SetLevelFromString(%q): %v", in, err)
		}
		if got := logLevel.Level(); got != want {
			t.Fatalf("level for %q = %v, want %v", in, got, want)
		}
	}
}
