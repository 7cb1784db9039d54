// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the bot's local SQLite database.
//
// The pool wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers
// [Pool.Take] a connection, do their work, and [Pool.Put] it back.
// Connections are not safe for concurrent use; [Pool.With] takes care
// of the take/put pairing for short operations.
//
// Every connection gets the same pragmas:
//
//   - journal_mode=WAL: a journal insert appends to the log instead of
//     rewriting pages, and an interrupted write never corrupts the
//     database file.
//   - synchronous=NORMAL: committed rows survive a process crash.
//   - busy_timeout=5000: wait for the write lock instead of failing.
//   - temp_store=MEMORY.
//
// [Config.Schema] is applied with sqlitex.ExecuteScript on each new
// connection, after the pragmas, so it must be idempotent
// (CREATE TABLE IF NOT EXISTS and friends).
//
// Callers write SQL and use sqlitex.Execute and
// sqlitex.ImmediateTransaction directly.
package sqlitepool
