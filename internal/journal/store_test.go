package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})
	return store
}

func TestStoreRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := Entry{
			Target:     "/media/test.jpg",
			Mode:       "write",
			Transport:  "persistent",
			Operations: i + 1,
			Duration:   25 * time.Millisecond,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operations != 3 {
		t.Errorf("expected most recent entry first, got operations=%d", entries[0].Operations)
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID for entry recorded without one")
	}
	if entries[0].Duration != 25*time.Millisecond {
		t.Errorf("unexpected duration %v", entries[0].Duration)
	}
	if entries[0].Error != "" {
		t.Errorf("expected empty error, got %q", entries[0].Error)
	}
}

func TestStoreRecordsFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:        "req-1",
		Target:    "/media/broken.jpg",
		Mode:      "read",
		Transport: "one-shot",
		Error:     "exiftool exited before responding",
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != "req-1" {
		t.Errorf("expected preserved ID, got %q", entries[0].ID)
	}
	if entries[0].Error != "exiftool exited before responding" {
		t.Errorf("unexpected error text %q", entries[0].Error)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("expected default created_at timestamp")
	}
}

func TestStoreSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update schema version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
