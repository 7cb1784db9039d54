// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messagingtest

import (
	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// SyncBuilder assembles a /sync response room by room, preserving the
// order rooms are added.
type SyncBuilder struct {
	response messaging.SyncResponse
}

// NewSync starts a response whose cursor is nextBatch.
func NewSync(nextBatch string) *SyncBuilder {
	return &SyncBuilder{response: messaging.SyncResponse{NextBatch: nextBatch}}
}

// Join adds a joined room. State events go to the state section; other
// events go to the timeline.
func (b *SyncBuilder) Join(roomID string, events ...messaging.Event) *SyncBuilder {
	var room messaging.JoinedRoom
	for _, event := range events {
		if event.IsState() {
			room.State.Events = append(room.State.Events, event)
		} else {
			room.Timeline.Events = append(room.Timeline.Events, event)
		}
	}
	b.response.Rooms.Join.Set(ref.MustParseRoomID(roomID), room)
	return b
}

// Timeline adds a joined room whose events all arrive in the timeline.
func (b *SyncBuilder) Timeline(roomID string, events ...messaging.Event) *SyncBuilder {
	room := messaging.JoinedRoom{Timeline: messaging.TimelineSection{Events: events}}
	b.response.Rooms.Join.Set(ref.MustParseRoomID(roomID), room)
	return b
}

// Invite adds a room the bot is invited to.
func (b *SyncBuilder) Invite(roomID string, events ...messaging.Event) *SyncBuilder {
	room := messaging.InvitedRoom{InviteState: messaging.StateSection{Events: events}}
	b.response.Rooms.Invite.Set(ref.MustParseRoomID(roomID), room)
	return b
}

// Leave adds a room the bot has left.
func (b *SyncBuilder) Leave(roomID string, events ...messaging.Event) *SyncBuilder {
	room := messaging.LeftRoom{State: messaging.StateSection{Events: events}}
	b.response.Rooms.Leave.Set(ref.MustParseRoomID(roomID), room)
	return b
}

// Build returns the assembled response.
func (b *SyncBuilder) Build() *messaging.SyncResponse {
	response := b.response
	return &response
}

// Text returns an m.text message event.
func Text(sender, body string) messaging.Event {
	return messaging.Event{
		Type:    messaging.EventTypeMessage,
		Sender:  sender,
		Content: map[string]any{"msgtype": messaging.MsgTypeText, "body": body},
	}
}

// Notice returns an m.notice message event.
func Notice(sender, body string) messaging.Event {
	event := Text(sender, body)
	event.Content["msgtype"] = messaging.MsgTypeNotice
	return event
}

// Member returns an m.room.member state event about stateKey.
func Member(stateKey, sender, membership string) messaging.Event {
	return state(messaging.EventTypeMember, stateKey, sender, map[string]any{"membership": membership})
}

// Aliases returns an m.room.aliases state event.
func Aliases(server string, aliases ...string) messaging.Event {
	list := make([]any, 0, len(aliases))
	for _, alias := range aliases {
		list = append(list, alias)
	}
	return state(messaging.EventTypeRoomAliases, server, "", map[string]any{"aliases": list})
}

// RoomName returns an m.room.name state event.
func RoomName(name string) messaging.Event {
	return state(messaging.EventTypeRoomName, "", "", map[string]any{"name": name})
}

func state(eventType, stateKey, sender string, content map[string]any) messaging.Event {
	return messaging.Event{
		Type:     eventType,
		Sender:   sender,
		StateKey: &stateKey,
		Content:  content,
	}
}
