package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldLogs removes files in dir matching pattern that are older than
// retentionDays. A retentionDays of 0 disables pruning. Removal failures are
// logged and skipped; pruning is best-effort.
func CleanupOldLogs(logger *slog.Logger, dir, pattern string, retentionDays int) []string {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if pattern != "" {
			matched, err := filepath.Match(pattern, name)
			if err != nil || !matched {
				continue
			}
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		fullPath := filepath.Join(dir, name)
		if err := os.Remove(fullPath); err != nil {
			if logger != nil {
				logger.Warn("log retention remove failed; file remains",
					String("path", fullPath), Error(err))
			}
			continue
		}
		removed = append(removed, name)
		if logger != nil {
			logger.Info("log pruned", String("path", fullPath))
		}
	}
	return removed
}
