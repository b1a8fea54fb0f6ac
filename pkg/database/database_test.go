package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenCreatesSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "dir", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"users", "library_entries"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestEnsureColumnIsIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE legacy (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := ensureColumn(db, "legacy", "notes", `TEXT NOT NULL DEFAULT ''`); err != nil {
			t.Fatalf("ensureColumn run %d: %v", i, err)
		}
	}
	if _, err := db.Exec(`INSERT INTO legacy (id, notes) VALUES (1, 'x')`); err != nil {
		t.Fatalf("notes column not usable: %v", err)
	}
}

func TestOpenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	addr := mr.Addr()
	rdb, err := OpenRedis(context.Background(), addr, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("open redis: %v", err)
	}
	rdb.Close()

	mr.Close()
	if _, err := OpenRedis(context.Background(), addr, "", 0); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
