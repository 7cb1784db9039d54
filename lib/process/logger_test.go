// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var output bytes.Buffer
	logger, err := NewLogger(&output, slog.LevelWarn, "json")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "room_id", "!eng:example.org")

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("output = %q, want one record", output.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if record["msg"] != "kept" || record["room_id"] != "!eng:example.org" {
		t.Errorf("record = %v", record)
	}
	if slog.Default() != logger {
		t.Error("NewLogger did not install the default logger")
	}
}

func TestNewLoggerText(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var output bytes.Buffer
	logger, err := NewLogger(&output, slog.LevelInfo, "text")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("sync failed, retrying", "attempt", 2)
	if !strings.Contains(output.String(), `msg="sync failed, retrying" attempt=2`) {
		t.Errorf("output = %q", output.String())
	}
}

func TestNewLoggerUnknownFormat(t *testing.T) {
	if _, err := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "xml"); err == nil {
		t.Error("NewLogger accepted format xml")
	}
}
