// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal records the bot's membership actions in SQLite and
// serves them back through the history command.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS actions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	time      INTEGER NOT NULL,
	action    TEXT    NOT NULL,
	room_id   TEXT    NOT NULL,
	user_id   TEXT    NOT NULL,
	requester TEXT    NOT NULL DEFAULT '',
	dry_run   INTEGER NOT NULL DEFAULT 0,
	performed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS actions_time ON actions (time);
`

// Entry is one invite or kick, simulated or attempted.
type Entry struct {
	Time   time.Time
	Action command.Action
	Room   ref.RoomID
	User   ref.UserID

	// Requester is zero for scheduled actions.
	Requester ref.UserID

	DryRun bool

	// Performed is true when the homeserver confirmed the action.
	// Always false for dry runs.
	Performed bool
}

// Store is the journal database.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens or creates the journal at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "journal")

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Schema: schema,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Record appends entry to the journal.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO actions (time, action, room_id, user_id, requester, dry_run, performed)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{
					entry.Time.UnixNano(),
					string(entry.Action),
					entry.Room.String(),
					entry.User.String(),
					entry.Requester.String(),
					entry.DryRun,
					entry.Performed,
				},
			})
	})
	if err != nil {
		return fmt.Errorf("journal: recording %s of %s: %w", entry.Action, entry.User, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	var entries []Entry
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT time, action, room_id, user_id, requester, dry_run, performed
			 FROM actions ORDER BY time DESC, id DESC LIMIT ?`,
			&sqlitex.ExecOptions{
				Args: []any{limit},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					entry, err := scanEntry(stmt)
					if err != nil {
						s.logger.Debug("skipping unreadable journal row", "error", err)
						return nil
					}
					entries = append(entries, entry)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("journal: reading recent entries: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than before and returns how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (count int, err error) {
	err = s.pool.With(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endTransaction(&err)

		if err := sqlitex.Execute(conn, "DELETE FROM actions WHERE time < ?", &sqlitex.ExecOptions{
			Args: []any{before.UnixNano()},
		}); err != nil {
			return err
		}
		count = conn.Changes()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("journal: pruning: %w", err)
	}
	return count, nil
}

func scanEntry(stmt *sqlite.Stmt) (Entry, error) {
	room, err := ref.ParseRoomID(stmt.ColumnText(2))
	if err != nil {
		return Entry{}, err
	}
	user, err := ref.ParseUserID(stmt.ColumnText(3))
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Time:      time.Unix(0, stmt.ColumnInt64(0)),
		Action:    command.Action(stmt.ColumnText(1)),
		Room:      room,
		User:      user,
		DryRun:    stmt.ColumnBool(5),
		Performed: stmt.ColumnBool(6),
	}
	if requester := stmt.ColumnText(4); requester != "" {
		entry.Requester, err = ref.ParseUserID(requester)
		if err != nil {
			return Entry{}, err
		}
	}
	return entry, nil
}
