package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LoggerConfig{Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	WithBatch(log, "batch-1").WithField("file", "a.pdf").Info("Compressed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	expected := map[string]string{
		"message":   "Compressed",
		"level":     "info",
		"batch_id":  "batch-1",
		"operation": "compress",
		"file":      "a.pdf",
	}
	for key, want := range expected {
		if entry[key] != want {
			t.Errorf("Expected %s=%q, got %v", key, want, entry[key])
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LoggerConfig{Level: "error", Output: &buf})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	WithOperation(log, "scan").Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at error level, got %q", buf.String())
	}

	if _, err := NewLogger(LoggerConfig{Level: "loud"}); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, err := NewLogger(LoggerConfig{Level: "info", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	WithFile(log, "report.pdf").Warn("Duplicate output name")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), `"file":"report.pdf"`) {
		t.Errorf("Expected file field in log, got %q", data)
	}
}
