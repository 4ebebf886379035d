package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"Error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_WritesJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf)

	logger.Info("session created", map[string]interface{}{"user_id": "abc"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry.Level != "INFO" {
		t.Errorf("expected level INFO, got %q", entry.Level)
	}
	if entry.Message != "session created" {
		t.Errorf("expected message, got %q", entry.Message)
	}
	if entry.Fields["user_id"] != "abc" {
		t.Errorf("expected user_id field, got %v", entry.Fields)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf).SetLevel(LevelWarn)

	logger.Info("should be dropped")
	logger.Warn("should be written")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(out, "should be written") {
		t.Error("warn entry should be written")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf).WithFields(map[string]interface{}{"component": "meetings"})

	logger.Info("created", map[string]interface{}{"id": "1"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry.Fields["component"] != "meetings" || entry.Fields["id"] != "1" {
		t.Errorf("expected merged fields, got %v", entry.Fields)
	}
}
