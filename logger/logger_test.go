package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := getLogLevel(in); got != want {
			t.Fatalf("getLogLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestNew_JSONToWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	log.Info("hidden")
	log.WithRequestID("req-1").Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected json line, got %v", err)
	}
	if entry["msg"] != "shown" || entry["request_id"] != "req-1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestNew_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cinetix.log")
	log, err := New(Options{Path: path})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	log.Info("hello", slog.Int("seats", 2))
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "msg=hello") || !strings.Contains(string(data), "seats=2") {
		t.Fatalf("unexpected log contents: %q", data)
	}
}
