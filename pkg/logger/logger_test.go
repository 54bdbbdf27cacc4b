package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"DEBUG":   LogLevelDebug,
		"debug":   LogLevelDebug,
		"WARNING": LogLevelWarning,
		"ERROR":   LogLevelError,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"TRACE":   LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, expected := range tests {
		if got := ParseLogLevel(in); got != expected {
			t.Errorf("ParseLogLevel(%q): expected %s, got %s", in, expected, got)
		}
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Options{Level: LogLevelInfo, Console: &buf}).WithComponent("relay")

	l.Debug("hidden")
	l.Info("Sending message", "sequence", 7)
	l.Critical("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug line should be filtered at INFO, got %q", out)
	}
	if !strings.Contains(out, "INFO [relay] Sending message sequence=7\n") {
		t.Errorf("Unexpected info line: %q", out)
	}
	if !strings.Contains(out, "CRITICAL [relay] boom") {
		t.Errorf("Unexpected critical line: %q", out)
	}
}

func TestConsoleGroupPrefixesKeys(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Options{Console: &buf}).WithComponent("relay").With("queue", "pingqueue")

	l.WithGroup("item").With("sequence", 7).WithGroup("retry").Info("Abandoned", "count", 2)
	l.WithGroup("empty").Info("No attrs")

	out := buf.String()
	expected := "INFO [relay] Abandoned queue=pingqueue item.sequence=7 item.retry.count=2\n"
	if !strings.Contains(out, expected) {
		t.Errorf("Expected %q in %q", expected, out)
	}
	if !strings.Contains(out, "INFO [relay] No attrs queue=pingqueue\n") {
		t.Errorf("Unexpected ungrouped line: %q", out)
	}
}

func TestConsoleGroupedComponentIsAnAttr(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newPlainHandler(&buf, slog.LevelInfo))

	l.WithGroup("peer").With("component", "listener").Info("Joined")

	if got := buf.String(); got != "INFO Joined peer.component=listener\n" {
		t.Errorf("Unexpected line: %q", got)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay.log")
	var console bytes.Buffer
	l := NewLogger(Options{Level: LogLevelDebug, Console: &console, FilePath: path})

	l.Warn("queue unavailable", "queue", "pingqueue")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "level=WARN") || !strings.Contains(string(data), "queue=pingqueue") {
		t.Errorf("Unexpected file content: %q", data)
	}
	if !strings.Contains(console.String(), "WARN queue unavailable queue=pingqueue") {
		t.Errorf("Unexpected console content: %q", console.String())
	}
}

func TestTraceLevelName(t *testing.T) {
	if levelName(LevelTrace) != "TRACE" {
		t.Errorf("Expected TRACE, got %s", levelName(LevelTrace))
	}
	if levelName(slog.LevelWarn) != "WARN" {
		t.Errorf("Expected WARN, got %s", levelName(slog.LevelWarn))
	}
}
