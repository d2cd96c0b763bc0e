package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSQLiteBootstrapsTables(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "traduttore.db")
	db, err := Open(context.Background(), "sqlite", dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if db.Dialect != DialectSQLite {
		t.Fatalf("dialect = %q, want sqlite", db.Dialect)
	}
	for _, table := range []string{"projects", "sync_queue", "sync_log"} {
		var name string
		if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?;", table).Scan(&name); err != nil {
			t.Fatalf("table %q missing: %v", table, err)
		}
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	t.Parallel()

	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "traduttore.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "mysql", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestRebind(t *testing.T) {
	t.Parallel()

	q := "SELECT * FROM projects WHERE slug = ? AND id = ?;"

	sqlite := &DB{Dialect: DialectSQLite}
	if got := sqlite.Rebind(q); got != q {
		t.Fatalf("sqlite Rebind changed query: %q", got)
	}

	pg := &DB{Dialect: DialectPostgres}
	want := "SELECT * FROM projects WHERE slug = $1 AND id = $2;"
	if got := pg.Rebind(q); got != want {
		t.Fatalf("postgres Rebind = %q, want %q", got, want)
	}
}
