package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readLogLines(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "folio.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if raw == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", raw, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	op := NewOperation("AddImage", time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC))

	var console bytes.Buffer
	logger, f, err := newLogger(dir, "info", op, &console)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info().Str("project", "p-1").Msg("image added")

	lines := readLogLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}
	line := lines[0]
	if line["op_id"] != op.ID {
		t.Errorf("op_id = %v, want %q", line["op_id"], op.ID)
	}
	if line["operation"] != "AddImage" {
		t.Errorf("operation = %v, want AddImage", line["operation"])
	}
	if line["level"] != "info" {
		t.Errorf("level = %v, want info", line["level"])
	}
	if line["message"] != "image added" {
		t.Errorf("message = %v, want %q", line["message"], "image added")
	}
	if line["project"] != "p-1" {
		t.Errorf("project = %v, want p-1", line["project"])
	}

	if !strings.Contains(console.String(), "image added") {
		t.Errorf("console output missing message: %q", console.String())
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, f, err := newLogger(dir, "warn", NewOperation("Serve", time.Now()), nil)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Debug().Msg("hidden debug")
	logger.Info().Msg("hidden info")
	logger.Warn().Msg("shown warn")

	lines := readLogLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %v", len(lines), lines)
	}
	if lines[0]["message"] != "shown warn" {
		t.Errorf("message = %v, want %q", lines[0]["message"], "shown warn")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, f, err := newLogger(t.TempDir(), "loud", NewOperation("Serve", time.Now()), nil)
	if err == nil {
		f.Close()
		t.Fatal("newLogger() expected error for invalid level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "info"},
		{in: "debug", want: "debug"},
		{in: "WARN", want: "warn"},
		{in: "error", want: "error"},
		{in: "chatty", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseLevel(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLevel(%q) error = %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestZerologAdapter(t *testing.T) {
	dir := t.TempDir()
	logger, f, err := newLogger(dir, "debug", NewOperation("Invite", time.Now()), nil)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	a := &zerologAdapter{l: logger}
	a.Debug("checking access", "project", "p-1", "user", "u-1")
	a.Error("delivery failed", "attempts", 3, "dangling")

	lines := readLogLines(t, dir)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}

	if lines[0]["level"] != "debug" || lines[0]["project"] != "p-1" || lines[0]["user"] != "u-1" {
		t.Errorf("first line = %v, want debug line with project and user fields", lines[0])
	}
	if lines[1]["level"] != "error" {
		t.Errorf("second line level = %v, want error", lines[1]["level"])
	}
	if lines[1]["attempts"] != float64(3) {
		t.Errorf("attempts = %v, want 3", lines[1]["attempts"])
	}
	if lines[1]["dangling"] != "!MISSING" {
		t.Errorf("dangling = %v, want !MISSING", lines[1]["dangling"])
	}
}
