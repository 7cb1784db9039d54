// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package invoke

import (
	"context"

	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// Call is a remote operation returning T. The set of calls is closed:
// only this package's types implement it.
type Call[T any] interface {
	// Name is the action name used in logs ("invite_user", ...).
	Name() string

	logAttrs() []any
	invoke(ctx context.Context, session messaging.Session) (T, error)
}

// transactional is implemented by calls that send room events. Do
// assigns the transaction ID once, before the first attempt, so every
// retry of the send names the same transaction.
type transactional[T any] interface {
	Call[T]
	withTransaction() Call[T]
}

// Ack is the result of calls whose only outcome is success.
type Ack struct{}

// SendMessage posts a plain m.text message. The result is the event ID.
// An empty TxnID is filled by Do.
type SendMessage struct {
	Room  ref.RoomID
	Text  string
	TxnID string
}

func (SendMessage) Name() string { return "send_message" }

func (c SendMessage) logAttrs() []any { return []any{"room_id", c.Room, "txn_id", c.TxnID} }

func (c SendMessage) withTransaction() Call[string] {
	if c.TxnID == "" {
		c.TxnID = messaging.NewTransactionID()
	}
	return c
}

func (c SendMessage) invoke(ctx context.Context, session messaging.Session) (string, error) {
	return session.SendMessage(ctx, c.Room, c.TxnID, messaging.NewTextMessage(c.Text))
}

// SendHTML posts an HTML message with the given msgtype (m.notice when
// empty). The result is the event ID. An empty TxnID is filled by Do.
type SendHTML struct {
	Room    ref.RoomID
	HTML    string
	MsgType string
	TxnID   string
}

func (SendHTML) Name() string { return "send_html" }

func (c SendHTML) logAttrs() []any {
	return []any{"room_id", c.Room, "msgtype", c.MsgType, "txn_id", c.TxnID}
}

func (c SendHTML) withTransaction() Call[string] {
	if c.TxnID == "" {
		c.TxnID = messaging.NewTransactionID()
	}
	return c
}

func (c SendHTML) invoke(ctx context.Context, session messaging.Session) (string, error) {
	msgType := c.MsgType
	if msgType == "" {
		msgType = messaging.MsgTypeNotice
	}
	return session.SendMessage(ctx, c.Room, c.TxnID, messaging.NewHTMLMessage(c.HTML, msgType))
}

// InviteUser invites User to Room.
type InviteUser struct {
	Room ref.RoomID
	User ref.UserID
}

func (InviteUser) Name() string { return "invite_user" }

func (c InviteUser) logAttrs() []any { return []any{"room_id", c.Room, "user_id", c.User} }

func (c InviteUser) invoke(ctx context.Context, session messaging.Session) (Ack, error) {
	return Ack{}, session.InviteUser(ctx, c.Room, c.User)
}

// KickUser removes User from Room.
type KickUser struct {
	Room   ref.RoomID
	User   ref.UserID
	Reason string
}

func (KickUser) Name() string { return "kick_user" }

func (c KickUser) logAttrs() []any { return []any{"room_id", c.Room, "user_id", c.User} }

func (c KickUser) invoke(ctx context.Context, session messaging.Session) (Ack, error) {
	return Ack{}, session.KickUser(ctx, c.Room, c.User, c.Reason)
}

// GetRoomMembers fetches Room's membership list.
type GetRoomMembers struct {
	Room ref.RoomID
}

func (GetRoomMembers) Name() string { return "get_room_members" }

func (c GetRoomMembers) logAttrs() []any { return []any{"room_id", c.Room} }

func (c GetRoomMembers) invoke(ctx context.Context, session messaging.Session) ([]messaging.RoomMember, error) {
	return session.GetRoomMembers(ctx, c.Room)
}

// CreateRoom creates a private, unnamed, alias-less room with Invite
// as the only invitees. The result is the new room's ID.
type CreateRoom struct {
	Invite []ref.UserID
}

func (CreateRoom) Name() string { return "create_room" }

func (c CreateRoom) logAttrs() []any { return []any{"invite", c.Invite} }

func (c CreateRoom) invoke(ctx context.Context, session messaging.Session) (ref.RoomID, error) {
	invite := make([]string, len(c.Invite))
	for index, userID := range c.Invite {
		invite[index] = userID.String()
	}
	response, err := session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Visibility: "private",
		Preset:     "private_chat",
		Invite:     invite,
		IsDirect:   len(invite) == 1,
	})
	if err != nil {
		return ref.RoomID{}, err
	}
	return response.RoomID, nil
}

// ForgetRoom releases Room from the bot's room list. The bot must have
// left the room already.
type ForgetRoom struct {
	Room ref.RoomID
}

func (ForgetRoom) Name() string { return "forget" }

func (c ForgetRoom) logAttrs() []any { return []any{"room_id", c.Room} }

func (c ForgetRoom) invoke(ctx context.Context, session messaging.Session) (Ack, error) {
	return Ack{}, session.ForgetRoom(ctx, c.Room)
}

// JoinRoom joins a room by ID or alias. The result is the room ID.
type JoinRoom struct {
	Target string
}

func (JoinRoom) Name() string { return "join_room" }

func (c JoinRoom) logAttrs() []any { return []any{"room", c.Target} }

func (c JoinRoom) invoke(ctx context.Context, session messaging.Session) (ref.RoomID, error) {
	return session.JoinRoom(ctx, c.Target)
}

// GetRoomName fetches Room's m.room.name.
type GetRoomName struct {
	Room ref.RoomID
}

func (GetRoomName) Name() string { return "get_room_name" }

func (c GetRoomName) logAttrs() []any { return []any{"room_id", c.Room} }

func (c GetRoomName) invoke(ctx context.Context, session messaging.Session) (string, error) {
	return session.GetRoomName(ctx, c.Room)
}
