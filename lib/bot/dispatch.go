// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"

	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/invoke"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// Command keywords in priority order.
const (
	keywordInvite     = "invite"
	keywordKick       = "kick"
	keywordList       = "list"
	keywordListRooms  = "list_rooms"
	keywordListGroups = "list_groups"
	keywordHelp       = "help"
)

// dispatch handles pending invitations, then the new messages of every
// joined room, in payload order.
func (b *Bot) dispatch(ctx context.Context, response *messaging.SyncResponse) {
	response.Rooms.Invite.Each(func(roomID ref.RoomID, room messaging.InvitedRoom) {
		if ctx.Err() != nil {
			return
		}
		b.handleInvitation(ctx, roomID, room)
	})
	response.Rooms.Join.Each(func(roomID ref.RoomID, room messaging.JoinedRoom) {
		for _, event := range room.Timeline.Events {
			if ctx.Err() != nil {
				return
			}
			b.handleEvent(ctx, roomID, event)
		}
	})
}

// handleInvitation joins roomID when one of its invite events was sent
// by a user on the bot's own domain. At most one join per room.
func (b *Bot) handleInvitation(ctx context.Context, roomID ref.RoomID, room messaging.InvitedRoom) {
	for _, event := range room.InviteState.Events {
		if event.Type != messaging.EventTypeMember {
			continue
		}
		membership, _ := event.ContentString("membership")
		if membership != messaging.MembershipInvite {
			continue
		}
		sender, err := ref.ParseUserID(event.Sender)
		if err != nil {
			b.logger.Debug("invite with unparseable sender", "room_id", roomID, "sender", event.Sender)
			continue
		}
		if sender.Server() != b.domain {
			b.logger.Info("ignoring invite from foreign domain", "room_id", roomID, "sender", sender)
			continue
		}
		b.logger.Info("accepting room invite", "room_id", roomID, "sender", sender)
		invoke.Do(ctx, b.invoker, invoke.JoinRoom{Target: roomID.String()}, joinAttempts)
		return
	}
}

// handleEvent routes an addressed m.text message to its command.
func (b *Bot) handleEvent(ctx context.Context, roomID ref.RoomID, event messaging.Event) {
	if event.Type != messaging.EventTypeMessage {
		return
	}
	if msgType, _ := event.ContentString("msgtype"); msgType != messaging.MsgTypeText {
		return
	}
	body, ok := event.ContentString("body")
	if !ok {
		b.logger.Debug("text message without body", "room_id", roomID, "event_id", event.EventID)
		return
	}
	sender, err := ref.ParseUserID(event.Sender)
	if err != nil {
		b.logger.Debug("message with unparseable sender", "room_id", roomID, "sender", event.Sender)
		return
	}
	if sender == b.self {
		return
	}

	body = b.interpreter.ExpandAlias(body)
	if !b.interpreter.IsAddressed(body) {
		return
	}
	b.logger.Info("command received", "room_id", roomID, "sender", sender, "body", body)

	switch {
	case b.interpreter.IsCommand(body, keywordInvite):
		b.runChatMembership(ctx, command.ActionInvite, sender, roomID, body)
	case b.interpreter.IsCommand(body, keywordKick):
		b.runChatMembership(ctx, command.ActionKick, sender, roomID, body)
	case b.interpreter.IsCommand(body, keywordList):
		b.doList(ctx, sender, body)
	case b.interpreter.IsCommand(body, keywordListRooms):
		b.doListRooms(ctx, sender)
	case b.interpreter.IsCommand(body, keywordListGroups):
		b.doListGroups(ctx, sender)
	case b.interpreter.IsCommand(body, keywordHelp):
		b.doHelp(ctx, sender, body)
	default:
		message := plugin.Message{Sender: sender, Room: roomID, Body: body}
		if !b.scheduler.HandleCommand(ctx, b, message) {
			b.doHelp(ctx, sender, body)
		}
	}
}
