// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for the bot.
//
// [Client] is an unauthenticated Matrix client holding the homeserver
// URL and HTTP transport. [Client.Login] performs password login and
// returns an authenticated [DirectSession].
//
// [Session] is the remote operation surface the bot drives: membership
// (invite, kick, join, forget), room creation, member listing, room
// names, plain and HTML messages, and incremental /sync with
// long-polling. *DirectSession implements it against a real homeserver;
// package messagingtest provides an in-memory implementation for tests.
//
// All API errors are returned as [*MatrixError] with the standard Matrix
// error code (M_FORBIDDEN, M_NOT_FOUND, etc.) and HTTP status code.
// [IsMatrixError] tests for a specific error code. Request URLs are built
// by string concatenation rather than url.URL to avoid double-encoding of
// path segments that contain URL-encoded characters.
//
// /sync responses keep the homeserver's ordering: [RoomsSection] and
// [RoomMap] decode JSON objects into ordered sequences so consumers
// process rooms in the order the server sent them.
package messaging
