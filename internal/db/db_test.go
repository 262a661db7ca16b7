package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNew_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	tables := []string{"kv", "_migrations"}
	for _, table := range tables {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestNew_WALEnabled(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	var journalMode string
	err = database.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	db1.Close()

	db2, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	var count int
	err = db2.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count)
	if err != nil {
		t.Fatalf("count migrations error = %v", err)
	}

	if count != 1 {
		t.Errorf("migration count = %d, want 1", count)
	}
}

func TestGetSet_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	_, ok, err := database.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() on missing key reported ok = true")
	}

	if err := database.Set(ctx, "video_clips", `{"a":1}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := database.Get(ctx, "video_clips")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() reported ok = false after Set()")
	}
	if value != `{"a":1}` {
		t.Errorf("value = %q, want %q", value, `{"a":1}`)
	}
}

func TestSet_ReplacesExistingValue(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	if err := database.Set(ctx, "k", "old"); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := database.Set(ctx, "k", "new"); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	value, _, err := database.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "new" {
		t.Errorf("value = %q, want %q", value, "new")
	}

	var rows int
	if err := database.Conn().QueryRow("SELECT COUNT(*) FROM kv WHERE key = 'k'").Scan(&rows); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if rows != 1 {
		t.Errorf("row count = %d, want 1", rows)
	}
}

func TestGetSet_SurvivesReopen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db1.Set(context.Background(), "video_clips", `{"vid1":{}}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	db1.Close()

	db2, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	value, ok, err := db2.Get(context.Background(), "video_clips")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || value != `{"vid1":{}}` {
		t.Errorf("value = %q (ok = %v), want persisted document", value, ok)
	}
}
