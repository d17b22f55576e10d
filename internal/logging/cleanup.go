package logging

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const retentionDays = 30

func cleanupOldLogs(logDir string) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, "clankers-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		dateStr := strings.TrimSuffix(strings.TrimPrefix(name, "clankers-"), ".jsonl")
		fileDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if fileDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// StartCleanupJob runs the retention sweep immediately, then every 24
// hours. Send on (or close) the returned channel to stop the goroutine.
func StartCleanupJob(logDir string) chan<- struct{} {
	cleanupOldLogs(logDir)

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleanupOldLogs(logDir)
			case <-stop:
				return
			}
		}
	}()

	return stop
}
