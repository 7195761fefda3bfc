package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"corridor/pkg/logger"
	"corridor/pkg/models"

	"github.com/cockroachdb/pebble"
)

const (
	systemVersionKey    = "system:version"
	systemInProgressKey = "system:migration_in_progress"
)

// RunMigrations checks the persisted store version against the running
// binary and performs upgrade work when they differ. Returns (invoked,
// error): invoked is true if migration work ran.
func RunMigrations(ctx context.Context, newVersion string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("pebble not opened; call store.Open first")
	}
	stored, err := GetKey(systemVersionKey)
	if err != nil && !errors.Is(err, pebble.ErrNotFound) {
		logger.Error("migration_read_version_failed", "error", err)
	}
	logger.Info("migration_version_check", "stored", stored, "running", newVersion)
	if stored == newVersion {
		return false, nil
	}

	marker := map[string]string{
		"from":       stored,
		"to":         newVersion,
		"started_at": time.Now().UTC().Format(time.RFC3339),
	}
	mb, _ := json.Marshal(marker)
	if err := db.Set([]byte(systemInProgressKey), mb, pebble.Sync); err != nil {
		logger.Error("migration_write_marker_failed", "error", err)
		return true, fmt.Errorf("failed to write in-progress marker: %w", err)
	}

	logger.Info("migration_sync_start", "from", stored, "to", newVersion)
	if err := syncNotes(ctx); err != nil {
		logger.Error("migration_sync_failed", "from", stored, "to", newVersion, "error", err)
		return true, err
	}

	if err := db.Set([]byte(systemVersionKey), []byte(newVersion), pebble.Sync); err != nil {
		logger.Error("migration_persist_version_failed", "version", newVersion, "error", err)
		return true, fmt.Errorf("failed to persist new version: %w", err)
	}
	if err := db.Delete([]byte(systemInProgressKey), pebble.Sync); err != nil {
		logger.Error("migration_delete_marker_failed", "error", err)
	}

	logger.Info("migration_done", "from", stored, "to", newVersion)
	return true, nil
}

// syncNotes performs upgrade work on stored notes. Edit in-place for
// migration logic.
//
// Current migration: backfill UpdatedTS on notes written before the
// field existed. Idempotent and safe to run multiple times. Metas are
// rewritten directly so migrations never fabricate version history.
func syncNotes(ctx context.Context) error {
	vals, err := ListNotes()
	if err != nil {
		logger.Error("migration_list_notes_failed", "error", err)
		return err
	}
	for _, s := range vals {
		if err := ctx.Err(); err != nil {
			return err
		}
		var n models.Note
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			logger.Error("migration_unmarshal_note_failed", "error", err)
			continue
		}
		if n.UpdatedTS != 0 || n.CreatedTS == 0 {
			continue
		}
		n.UpdatedTS = n.CreatedTS
		nb, _ := json.Marshal(n)
		key := fmt.Sprintf("note:%s:meta", n.ID)
		if err := db.Set([]byte(key), nb, pebble.Sync); err != nil {
			logger.Error("migration_save_note_failed", "note", n.ID, "error", err)
			continue
		}
		logger.Info("migration_note_updated_ts_backfilled", "note", n.ID)
	}
	return nil
}
