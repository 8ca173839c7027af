package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"vink/internal/logging"
)

const cleanupStateFile = "cleanup_state.json"

// cleanupState records the last retention pass so pruning runs at most once
// per calendar day and every removal stays auditable.
type cleanupState struct {
	LastCleanup string   `json:"last_cleanup"`
	Deleted     []string `json:"deleted"`
}

func (l *Logger) maybeCleanup(now time.Time) {
	today := now.UTC().Format("2006-01-02")
	statePath := filepath.Join(l.opts.Dir, cleanupStateFile)

	state, err := loadCleanupState(statePath)
	if err == nil && state.LastCleanup == today {
		return
	}

	removed := logging.CleanupOldLogs(l.logger, l.opts.Dir, "audit-*.log", l.opts.RetentionDays)
	next := cleanupState{LastCleanup: today, Deleted: removed}
	if next.Deleted == nil {
		next.Deleted = []string{}
	}
	if err := saveCleanupState(statePath, next); err != nil {
		l.logger.Warn("audit cleanup state not persisted", logging.Error(err))
	}
	if len(removed) > 0 {
		l.logger.Info("audit retention pass complete",
			logging.Int("removed", len(removed)),
			logging.Int("retention_days", l.opts.RetentionDays))
	}
}

func loadCleanupState(path string) (cleanupState, error) {
	var state cleanupState
	data, err := os.ReadFile(path)
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, err
	}
	return state, nil
}

func saveCleanupState(path string, state cleanupState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
