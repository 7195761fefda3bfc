package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"corridor/pkg/models"

	"github.com/cockroachdb/pebble"
)

func TestStore_MigrationBackfillsUpdatedTS(t *testing.T) {
	openStore(t)
	saveNote(t, models.Note{ID: "n-legacy", CreatedTS: 4242})
	saveNote(t, models.Note{ID: "n-current", CreatedTS: 100, UpdatedTS: 900})

	invoked, err := RunMigrations(context.Background(), "0.2.0")
	if err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if !invoked {
		t.Fatalf("expected migration to run on fresh store")
	}

	s, err := GetNote("n-legacy")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	var got models.Note
	if err := json.Unmarshal([]byte(s), &got); err != nil {
		t.Fatalf("unmarshal note: %v", err)
	}
	if got.UpdatedTS != 4242 {
		t.Fatalf("expected UpdatedTS backfilled from CreatedTS, got %+v", got)
	}

	s, err = GetNote("n-current")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if err := json.Unmarshal([]byte(s), &got); err != nil {
		t.Fatalf("unmarshal note: %v", err)
	}
	if got.UpdatedTS != 900 {
		t.Fatalf("migration must not touch notes with UpdatedTS set, got %+v", got)
	}

	// meta-only rewrite: no version entries fabricated
	vers, err := ListNoteVersions("n-legacy")
	if err != nil {
		t.Fatalf("ListNoteVersions: %v", err)
	}
	if len(vers) != 1 {
		t.Fatalf("expected 1 version after migration, got %d", len(vers))
	}

	v, err := GetKey(systemVersionKey)
	if err != nil {
		t.Fatalf("GetKey version: %v", err)
	}
	if v != "0.2.0" {
		t.Fatalf("expected persisted version 0.2.0, got %q", v)
	}
	if _, err := GetKey(systemInProgressKey); !errors.Is(err, pebble.ErrNotFound) {
		t.Fatalf("expected in-progress marker cleared, got %v", err)
	}
}

func TestStore_MigrationNoopOnSameVersion(t *testing.T) {
	openStore(t)
	if _, err := RunMigrations(context.Background(), "0.2.0"); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	invoked, err := RunMigrations(context.Background(), "0.2.0")
	if err != nil {
		t.Fatalf("RunMigrations second pass: %v", err)
	}
	if invoked {
		t.Fatalf("expected noop when stored version matches")
	}
}
