package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/waypoint/internal/config"
	"github.com/hyperengineering/waypoint/internal/roadmap"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_JSONToStdout(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	defer closeLog()

	logger.Info("dropped")
	logger.Warn("kept", "feature_id", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["feature_id"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog := newLogger(config.LogConfig{Level: "info", Format: "text"}, &buf)
	defer closeLog()

	logger.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("output = %q, want text handler output", buf.String())
	}
}

func TestNewLogger_TeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "waypoint.log")
	var buf bytes.Buffer
	logger, closeLog := newLogger(config.LogConfig{Level: "info", Format: "json", File: path}, &buf)

	logger.Info("vote recorded", "feature_id", 1)
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "vote recorded") {
		t.Errorf("log file = %q", data)
	}
	if !strings.Contains(buf.String(), "vote recorded") {
		t.Errorf("stdout = %q", buf.String())
	}
}

func TestNewService_UsesConfiguredRemote(t *testing.T) {
	cfg := &config.Config{
		Remote: config.RemoteConfig{
			URL:           "http://127.0.0.1:1/mcp",
			TokenEnv:      "WAYPOINT_TEST_UNSET_TOKEN",
			IntegrationID: "i:databases-management",
		},
	}
	t.Setenv("WAYPOINT_TEST_UNSET_TOKEN", "")

	// Without a token the service fails before dialing the unreachable URL.
	res := newService(cfg).Submit(context.Background(), roadmap.SubmitRequest{
		Title:       "Mobile app",
		Description: "Native clients.",
	})
	if res.Success || res.Failure != roadmap.FailureConfiguration {
		t.Errorf("result = %+v, want configuration failure", res)
	}
}
