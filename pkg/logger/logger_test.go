package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expect    slog.Level
		expectErr bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"default-info", "", slog.LevelInfo, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"warning-alias", "WARNING", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"invalid", "verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := levelFromString(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.input)
				}
				if !strings.Contains(err.Error(), "invalid log level") {
					t.Fatalf("unexpected error message: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, level)
			}
		})
	}
}

func TestInitAndL(t *testing.T) {
	t.Cleanup(func() {
		// reset singleton for other tests
		once = sync.Once{}
		global = nil
	})

	logger, err := Init(Config{Level: "debug", Environment: "dev", WithSource: true})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if logger == nil {
		t.Fatalf("Init returned nil logger")
	}
	if L() != logger {
		t.Fatalf("L did not return initialized logger")
	}

	logger2, err := Init(Config{Level: "info", Environment: "prod"})
	if err != nil {
		t.Fatalf("unexpected error on second init: %v", err)
	}
	if logger2 != logger {
		t.Fatalf("expected same logger instance on re-init")
	}
}

func TestLPanicsBeforeInit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when logger not initialized")
		}
	}()
	_ = L()
}

func TestNewWithWriterProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "info", Environment: "prod"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Info("merged", "segments", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "merged" {
		t.Fatalf("unexpected msg field: %v", record["msg"])
	}
}

func TestNewWithWriterAlsoWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audiomerge.log")
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "info", File: path}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Info("hello file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("log file missing record: %q", string(data))
	}
	if !strings.Contains(buf.String(), "hello file") {
		t.Fatalf("writer missing record: %q", buf.String())
	}
}

func TestLogStage(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "debug"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	LogStage(l, "fetch", "success", 2, 15, "")
	LogStage(l, "publish", "error", -1, 40, "PublishError")

	out := buf.String()
	if !strings.Contains(out, "stage=fetch") || !strings.Contains(out, "index=2") {
		t.Fatalf("missing fetch attributes: %q", out)
	}
	if !strings.Contains(out, "error_kind=PublishError") || !strings.Contains(out, "level=ERROR") {
		t.Fatalf("missing error attributes: %q", out)
	}
}
