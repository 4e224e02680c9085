package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLoggerFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: "debug", File: logFile})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("resolver", "selected candidate", F("title", "The Matrix"), F("year", 1999))
	logger.Debug("cascade", "step returned no results")
	logger.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "[INFO] [resolver] selected candidate") {
		t.Errorf("log file missing info line, got:\n%s", content)
	}
	if !strings.Contains(content, "title=The Matrix") {
		t.Errorf("log file missing field, got:\n%s", content)
	}
	if !strings.Contains(content, "[DEBUG] [cascade]") {
		t.Errorf("log file missing debug line, got:\n%s", content)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: "warn", File: logFile})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Debug("scan", "should be filtered")
	logger.Info("scan", "should also be filtered")
	logger.Warn("scan", "should appear")
	logger.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	if strings.Contains(content, "filtered") {
		t.Errorf("filtered levels leaked into log file:\n%s", content)
	}
	if !strings.Contains(content, "should appear") {
		t.Errorf("warn line missing from log file:\n%s", content)
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := Nop()
	logger.Debug("x", "message")
	logger.Info("x", "message")
	logger.Warn("x", "message")
	logger.Error("x", "message", nil)
	if err := logger.Close(); err != nil {
		t.Errorf("Nop().Close() error: %v", err)
	}
}
