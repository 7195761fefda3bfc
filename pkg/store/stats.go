package store

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"
)

// Stats is a compact view of store contents for the admin endpoint.
type Stats struct {
	Notes     int    `json:"notes"`
	Versions  int    `json:"versions"`
	DiskBytes uint64 `json:"disk_bytes"`
}

// CollectStats counts live notes and versions and computes the on-disk
// size of the DB directory. Best effort; an unopened store reports zeros.
func CollectStats() Stats {
	var st Stats
	if db == nil {
		return st
	}
	iter, err := db.NewIter(nil)
	if err != nil {
		return st
	}
	defer iter.Close()
	notePrefix := []byte("note:")
	verPrefix := []byte("version:note:")
	for iter.First(); iter.Valid(); iter.Next() {
		k := iter.Key()
		switch {
		case bytes.HasPrefix(k, notePrefix) && strings.HasSuffix(string(k), ":meta"):
			st.Notes++
		case bytes.HasPrefix(k, verPrefix):
			st.Versions++
		}
	}

	if dbPath != "" {
		var total uint64
		_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return nil
			}
			total += uint64(fi.Size())
			return nil
		})
		st.DiskBytes = total
	}
	return st
}
