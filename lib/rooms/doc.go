// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rooms tracks the rooms the bot knows about and finds the
// direct (one-to-one) room for a counterpart.
//
// [Directory] is rebuilt from every /sync response. Each Ingest
// replaces the whole snapshot in one atomic swap; a room missing from
// the latest response is gone. Readers always see a complete snapshot.
//
// [Resolver] answers "which room do I use to talk privately to this
// user". Each resolution first reclaims abandoned direct rooms (two or
// fewer members, one of whom has left), then searches the remaining
// rooms for one where the bot has joined and the counterpart is joined
// or invited, and creates a new room only when none qualifies.
package rooms
