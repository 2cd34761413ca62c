package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, zap.InfoLevel, true)
	logger.Debug("hidden")
	logger.Info("backend ready", zap.String("database", ":memory:"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["msg"] != "backend ready" || entry["database"] != ":memory:" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, zap.DebugLevel, false).Debug("exchange started")
	if !strings.Contains(buf.String(), "DEBUG") || !strings.Contains(buf.String(), "exchange started") {
		t.Errorf("got %q", buf.String())
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chat.log")
	logger, closeLog := fileLogger(path, zap.DebugLevel)
	logger.Info("exchange replied")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "exchange replied") {
		t.Errorf("log file = %q", data)
	}
}

func TestFileLogger_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	logger, closeLog := fileLogger(filepath.Join(blocker, "chat.log"), zap.DebugLevel)
	defer closeLog()
	logger.Info("dropped")
}
