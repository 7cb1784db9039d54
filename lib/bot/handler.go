// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"

	"github.com/bureau-foundation/matrixbot/lib/invoke"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/ref"
)

var _ plugin.Handler = (*Bot)(nil)

// SendMessage sends a plain-text message to room.
func (b *Bot) SendMessage(ctx context.Context, room ref.RoomID, text string) bool {
	_, ok := invoke.Do(ctx, b.invoker, invoke.SendMessage{Room: room, Text: text}, sendAttempts)
	return ok
}

// SendHTML sends an HTML message with the given msgtype to room.
func (b *Bot) SendHTML(ctx context.Context, room ref.RoomID, html, msgType string) bool {
	_, ok := invoke.Do(ctx, b.invoker, invoke.SendHTML{Room: room, HTML: html, MsgType: msgType}, sendAttempts)
	return ok
}

// SendPrivateMessage sends text to the direct room with user, creating
// the room if needed.
func (b *Bot) SendPrivateMessage(ctx context.Context, user ref.UserID, text string) bool {
	roomID, ok := b.resolver.ResolveDirectRoom(ctx, user)
	if !ok {
		b.logger.Error("no direct room for private message", "user_id", user)
		return false
	}
	return b.SendMessage(ctx, roomID, text)
}

// ResolveRoom returns the room ID for a room ID or alias. Aliases are
// joined once and the result is remembered.
func (b *Bot) ResolveRoom(ctx context.Context, roomIDOrAlias string) (ref.RoomID, bool) {
	if roomID, err := ref.ParseRoomID(roomIDOrAlias); err == nil {
		return roomID, true
	}
	if roomID, ok := b.joined[roomIDOrAlias]; ok {
		return roomID, true
	}
	roomID, ok := invoke.Do(ctx, b.invoker, invoke.JoinRoom{Target: roomIDOrAlias}, joinAttempts)
	if !ok {
		return ref.RoomID{}, false
	}
	b.joined[roomIDOrAlias] = roomID
	return roomID, true
}

// IsCommand reports whether body addresses the bot with keyword.
func (b *Bot) IsCommand(body, keyword string) bool {
	return b.interpreter.IsCommand(body, keyword)
}
