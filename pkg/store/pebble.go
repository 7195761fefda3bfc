package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"corridor/pkg/logger"
	"corridor/pkg/models"
	"corridor/pkg/telemetry"

	"github.com/cockroachdb/pebble"
)

var db *pebble.DB

// dbPath remembers the opened directory for stats.
var dbPath string

// seq provides a small counter to reduce key collisions when multiple
// notes share the same nanosecond timestamp.
var seq uint64

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// SaveNote stores the note JSON under its meta key and appends a version
// entry with a sortable timestamp suffix so edits can be replayed in
// insertion order.
func SaveNote(noteID, data string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	key := fmt.Sprintf("note:%s:meta", noteID)
	if err := db.Set([]byte(key), []byte(data), pebble.Sync); err != nil {
		logger.Error("save_note_failed", "note", noteID, "error", err)
		return err
	}

	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&seq, 1)
	verKey := fmt.Sprintf("version:note:%s:%020d-%06d", noteID, ts, s)
	if err := db.Set([]byte(verKey), []byte(data), pebble.Sync); err != nil {
		logger.Error("save_note_version_failed", "key", verKey, "error", err)
		return err
	}
	telemetry.CountNoteSaved()
	logger.Info("note_saved", "note", noteID, "key", key)
	return nil
}

// GetNote returns the stored note JSON for a given note ID.
func GetNote(noteID string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("pebble not opened; call store.Open first")
	}
	key := []byte("note:" + noteID + ":meta")
	v, closer, err := db.Get(key)
	if err != nil {
		return "", err
	}
	if closer != nil {
		defer closer.Close()
	}
	return string(v), nil
}

// ListNotes returns all saved note values in key order. An optional limit
// caps the number of results.
func ListNotes(limit ...int) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("note:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	max := -1
	if len(limit) > 0 {
		max = limit[0]
	}
	var out []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		k := string(iter.Key())
		if strings.HasSuffix(k, ":meta") {
			v := append([]byte(nil), iter.Value()...)
			out = append(out, string(v))
			if max > 0 && len(out) >= max {
				break
			}
		}
	}
	return out, iter.Error()
}

// ListNoteVersions returns all stored versions for a given note ID in
// chronological order.
func ListNoteVersions(noteID string) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("version:note:" + noteID + ":")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		out = append(out, string(v))
	}
	return out, iter.Error()
}

// SoftDeleteNote marks the note as deleted and records a tombstone version.
func SoftDeleteNote(noteID, actor string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	s, err := GetNote(noteID)
	if err != nil {
		logger.Error("soft_delete_load_failed", "note", noteID, "error", err)
		return err
	}
	var n models.Note
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		logger.Error("soft_delete_unmarshal_failed", "note", noteID, "error", err)
		return err
	}
	n.Deleted = true
	n.DeletedTS = time.Now().UTC().UnixNano()
	nb, _ := json.Marshal(n)
	if err := SaveNote(noteID, string(nb)); err != nil {
		logger.Error("soft_delete_save_failed", "note", noteID, "error", err)
		return err
	}
	logger.Info("note_soft_deleted", "note", noteID, "actor", actor)
	return nil
}

// DeleteNote removes the note meta entry and all of its versions.
func DeleteNote(noteID string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	key := []byte("note:" + noteID + ":meta")
	if err := db.Delete(key, pebble.Sync); err != nil {
		logger.Error("delete_note_failed", "note", noteID, "error", err)
		return err
	}
	prefix := []byte("version:note:" + noteID + ":")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		if err := db.Delete(k, pebble.Sync); err != nil {
			logger.Error("delete_note_version_failed", "key", string(k), "error", err)
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	logger.Info("note_deleted", "note", noteID)
	return nil
}

// DeleteNotesBefore purges notes whose last activity predates cutoffNS.
// It returns the number of notes removed.
func DeleteNotesBefore(cutoffNS int64) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("note:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	var expired []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		k := string(iter.Key())
		if !strings.HasSuffix(k, ":meta") {
			continue
		}
		var n models.Note
		if err := json.Unmarshal(iter.Value(), &n); err != nil {
			logger.Warn("retention_skip_invalid_note", "key", k, "error", err)
			continue
		}
		ts := n.UpdatedTS
		if ts == 0 {
			ts = n.CreatedTS
		}
		if ts != 0 && ts < cutoffNS {
			expired = append(expired, n.ID)
		}
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return 0, err
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range expired {
		if err := DeleteNote(id); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		telemetry.CountNotesDeleted(deleted)
	}
	return deleted, nil
}

// ListKeys returns all keys (as strings) that start with the given prefix.
// If prefix is empty it returns all keys in the DB.
func ListKeys(prefix string) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	if prefix == "" {
		for iter.First(); iter.Valid(); iter.Next() {
			k := append([]byte(nil), iter.Key()...)
			out = append(out, string(k))
		}
	} else {
		pfx := []byte(prefix)
		for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Key(), pfx) {
				break
			}
			k := append([]byte(nil), iter.Key()...)
			out = append(out, string(k))
		}
	}
	return out, iter.Error()
}

// GetKey returns the raw value for the given key.
func GetKey(key string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		return "", err
	}
	if closer != nil {
		defer closer.Close()
	}
	return string(v), nil
}
