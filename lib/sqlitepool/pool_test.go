// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/matrixbot/lib/sqlitepool"
)

func TestOpenAppliesPragmas(t *testing.T) {
	pool := openTestPool(t, sqlitepool.Config{})

	err := pool.With(context.Background(), func(conn *sqlite.Conn) error {
		var journalMode string
		err := sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				journalMode = stmt.ColumnText(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		if journalMode != "wal" {
			t.Errorf("journal_mode = %q, want wal", journalMode)
		}

		var synchronous int
		err = sqlitex.Execute(conn, "PRAGMA synchronous", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				synchronous = stmt.ColumnInt(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		if synchronous != 1 {
			t.Errorf("synchronous = %d, want 1 (NORMAL)", synchronous)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
}

func TestSchemaApplied(t *testing.T) {
	pool := openTestPool(t, sqlitepool.Config{
		Schema: `CREATE TABLE IF NOT EXISTS notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);`,
	})

	var count int
	err := pool.With(context.Background(), func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "INSERT INTO notes (body) VALUES (?)", &sqlitex.ExecOptions{
			Args: []any{"hello"},
		}); err != nil {
			return err
		}
		return sqlitex.Execute(conn, "SELECT count(*) FROM notes", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestOnConnectErrorSurfacesFromTake(t *testing.T) {
	boom := errors.New("boom")
	pool := openTestPool(t, sqlitepool.Config{
		OnConnect: func(*sqlite.Conn) error { return boom },
	})

	_, err := pool.Take(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Take error = %v, want wrapping %v", err, boom)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "bot.db")
	pool, err := sqlitepool.Open(sqlitepool.Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := pool.With(context.Background(), func(*sqlite.Conn) error { return nil }); err != nil {
		t.Fatalf("With: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if pool.Path() != path {
		t.Errorf("Path() = %q, want %q", pool.Path(), path)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := sqlitepool.Open(sqlitepool.Config{}); err == nil {
		t.Fatal("expected error for empty Path")
	}
}

func TestTakeHonorsCancellation(t *testing.T) {
	pool := openTestPool(t, sqlitepool.Config{PoolSize: 1})

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func openTestPool(t *testing.T, cfg sqlitepool.Config) *sqlitepool.Pool {
	t.Helper()
	cfg.Path = filepath.Join(t.TempDir(), "test.db")
	pool, err := sqlitepool.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}
