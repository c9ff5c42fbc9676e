package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		debug    string
		level    string
		expected LogLevel
	}{
		{"Debug via LOG_LEVEL", "", "debug", LevelDebug},
		{"Info via LOG_LEVEL", "", "info", LevelInfo},
		{"Warn via LOG_LEVEL", "", "warn", LevelWarn},
		{"Warning alias", "", "warning", LevelWarn},
		{"Error via LOG_LEVEL", "", "error", LevelError},
		{"Case insensitive", "", "DEBUG", LevelDebug},
		{"Unknown falls back to info", "", "verbose", LevelInfo},
		{"Empty falls back to info", "", "", LevelInfo},
		{"DEBUG=true wins", "true", "error", LevelDebug},
		{"DEBUG=1 wins", "1", "warn", LevelDebug},
		{"DEBUG=false ignored", "false", "warn", LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.debug, tt.level); got != tt.expected {
				t.Errorf("parseLevel(%q, %q) = %v, want %v", tt.debug, tt.level, got, tt.expected)
			}
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	if LevelDebug >= LevelInfo {
		t.Error("LevelDebug should be less than LevelInfo")
	}
	if LevelInfo >= LevelWarn {
		t.Error("LevelInfo should be less than LevelWarn")
	}
	if LevelWarn >= LevelError {
		t.Error("LevelWarn should be less than LevelError")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", int(tt.level), got, tt.expected)
		}
	}
}

func TestJobLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	log.SetFlags(0)
	defer log.SetFlags(log.LstdFlags)

	Job("abc-123").Error("encoder exited with code %d", 1)

	out := buf.String()
	if !strings.Contains(out, "[ERROR] job abc-123: encoder exited with code 1") {
		t.Errorf("unexpected log output: %q", out)
	}
}
