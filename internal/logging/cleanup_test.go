package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAgedLogFile(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	modTime := time.Now().Add(-age)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func TestCleanupOldLogsRemovesExpired(t *testing.T) {
	dir := t.TempDir()

	recent := "clankers-" + time.Now().UTC().Format("2006-01-02") + ".jsonl"

	writeAgedLogFile(t, dir, "clankers-2020-01-01.jsonl", 40*24*time.Hour)
	writeAgedLogFile(t, dir, recent, 1*time.Hour)
	writeAgedLogFile(t, dir, "not-a-log.txt", 40*24*time.Hour)

	cleanupOldLogs(dir)

	if _, err := os.Stat(filepath.Join(dir, "clankers-2020-01-01.jsonl")); !os.IsNotExist(err) {
		t.Error("expected expired log file to be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, recent)); err != nil {
		t.Error("expected recent log file to remain")
	}
	if _, err := os.Stat(filepath.Join(dir, "not-a-log.txt")); err != nil {
		t.Error("expected non-log file to be left alone")
	}
}

func TestStartCleanupJobRunsImmediatelyAndStops(t *testing.T) {
	dir := t.TempDir()
	writeAgedLogFile(t, dir, "clankers-2020-01-01.jsonl", 40*24*time.Hour)

	stop := StartCleanupJob(dir)
	defer close(stop)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(filepath.Join(dir, "clankers-2020-01-01.jsonl")); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("expected immediate cleanup run to remove the expired log file")
}
