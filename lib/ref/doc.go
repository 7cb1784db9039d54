// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated Matrix identifier types.
//
// [UserID] and [RoomID] are immutable value types that validate their
// structure at construction and implement encoding.TextMarshaler and
// encoding.TextUnmarshaler so they can appear directly in JSON
// payloads (including as map keys).
//
// Chat users address people by bare localpart ("alice") as often as by
// full user ID ("@alice:example.org"). [NormalizeUserID] converts
// either form into the fully-qualified UserID using the bot's home
// server, and is idempotent: normalizing an already-normalized ID
// returns it unchanged. Two identities are the same person iff their
// normalized UserIDs are equal.
package ref
