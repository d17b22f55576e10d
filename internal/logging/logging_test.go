package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCreatesTodaysFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New("info", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	expected := filepath.Join(dir, "clankers-"+time.Now().UTC().Format("2006-01-02")+".jsonl")
	if _, err := os.Stat(expected); err != nil {
		t.Errorf("expected log file %s to exist: %v", expected, err)
	}
}

func TestShouldDrop(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("warn", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	cases := []struct {
		level LogLevel
		drop  bool
	}{
		{Debug, true},
		{Info, true},
		{Warn, false},
		{Error, false},
	}

	for _, tc := range cases {
		if got := logger.ShouldDrop(tc.level); got != tc.drop {
			t.Errorf("ShouldDrop(%s) = %v, want %v", tc.level, got, tc.drop)
		}
	}
}

func TestWriteAppendsJSONLine(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("debug", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	if err := logger.Write(LogEntry{Level: Info, Component: "daemon", Message: "hello"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	logFile := filepath.Join(dir, "clankers-"+time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if entry.Message != "hello" || entry.Component != "daemon" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Timestamp == "" {
		t.Error("expected a timestamp to be filled in")
	}
}

func TestWriteDropsBelowMinLevel(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("error", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	if err := logger.Write(LogEntry{Level: Info, Component: "daemon", Message: "should be dropped"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	logFile := filepath.Join(dir, "clankers-"+time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(data)) != "" {
		t.Errorf("expected no content written, got %q", string(data))
	}
}

func TestWriteRemoteUsesSuppliedFields(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("debug", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	if err := logger.WriteRemote("warn", "adapter-x", "disk low", "req-1", map[string]interface{}{"pct": 5}); err != nil {
		t.Fatalf("WriteRemote: %v", err)
	}

	logFile := filepath.Join(dir, "clankers-"+time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if entry.Level != Warn || entry.Component != "adapter-x" || entry.RequestID != "req-1" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestRotatesToNewFileOnDateChange(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("info", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	if err := logger.Write(LogEntry{Level: Info, Component: "daemon", Message: "yesterday"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Simulate the logger having been opened on a prior calendar date, so
	// the next Write must rotate into today's file rather than appending
	// to a file stamped with the old date.
	staleDate := "2020-01-01"
	logger.mu.Lock()
	logger.file.Close()
	staleFile, err := os.OpenFile(filepath.Join(dir, "clankers-"+staleDate+".jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	logger.file = staleFile
	logger.currentDate = staleDate
	logger.mu.Unlock()

	if err := logger.Write(LogEntry{Level: Info, Component: "daemon", Message: "today"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	todayFile := filepath.Join(dir, "clankers-"+time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(todayFile)
	if err != nil {
		t.Fatalf("expected today's log file to exist: %v", err)
	}
	if !strings.Contains(string(data), "today") {
		t.Errorf("expected today's file to contain the post-rotation entry, got %q", string(data))
	}

	staleData, err := os.ReadFile(filepath.Join(dir, "clankers-"+staleDate+".jsonl"))
	if err != nil {
		t.Fatalf("expected stale file to still exist: %v", err)
	}
	if strings.Contains(string(staleData), "today") {
		t.Error("expected the post-rotation entry not to land in the stale-dated file")
	}
}

func TestConvenienceMethods(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("debug", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	logger.Debugf("comp", "d %d", 1)
	logger.Infof("comp", "i %d", 2)
	logger.Warnf("comp", "w %d", 3)
	logger.Errorf("comp", "e %d", 4)

	logFile := filepath.Join(dir, "clankers-"+time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
}
