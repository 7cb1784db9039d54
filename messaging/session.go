// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"

	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// Session is the set of authenticated Matrix operations the bot
// performs. Two implementations exist:
//
//   - *DirectSession: direct homeserver connection using an access token.
//   - messagingtest.Session: in-memory homeserver for tests.
//
// Every method is a single remote call. Retrying is the caller's
// concern (see lib/invoke); implementations never retry internally.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID of the session.
	UserID() ref.UserID

	// SendMessage sends an m.room.message event. Sends that share a
	// transaction ID are stored once. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, transactionID string, content MessageContent) (string, error)

	// InviteUser invites a user to a room.
	InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error

	// KickUser removes a user from a room with an optional reason.
	KickUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error

	// GetRoomMembers returns the members of a room with their
	// membership state.
	GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]RoomMember, error)

	// CreateRoom creates a new Matrix room.
	CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error)

	// ForgetRoom forgets a room the user has left, releasing it from
	// the user's room list.
	ForgetRoom(ctx context.Context, roomID ref.RoomID) error

	// JoinRoom joins a room by room ID or alias. Returns the room ID.
	JoinRoom(ctx context.Context, roomIDOrAlias string) (ref.RoomID, error)

	// GetRoomName returns the content of the room's m.room.name state
	// event.
	GetRoomName(ctx context.Context, roomID ref.RoomID) (string, error)

	// Sync performs an incremental sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
