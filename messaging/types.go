// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"fmt"

	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// Matrix event types the bot reads or writes.
const (
	EventTypeMessage     = "m.room.message"
	EventTypeMember      = "m.room.member"
	EventTypeRoomAliases = "m.room.aliases"
	EventTypeRoomName    = "m.room.name"
)

// Message types (the msgtype field of m.room.message).
const (
	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"
)

// FormatHTML is the format value for messages carrying formatted_body.
const FormatHTML = "org.matrix.custom.html"

// Membership states of m.room.member events.
const (
	MembershipJoin   = "join"
	MembershipInvite = "invite"
	MembershipLeave  = "leave"
	MembershipBan    = "ban"
)

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string          `json:"type"`
	Identifier               *UserIdentifier `json:"identifier,omitempty"`
	Password                 string          `json:"password"`
	DeviceID                 string          `json:"device_id,omitempty"`
	InitialDeviceDisplayName string          `json:"initial_device_display_name,omitempty"`
}

// UserIdentifier identifies the account in a LoginRequest.
type UserIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// CreateRoomRequest holds parameters for creating a Matrix room.
type CreateRoomRequest struct {
	Name       string   `json:"name,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Alias      string   `json:"room_alias_name,omitempty"` // local alias without # or :server
	Visibility string   `json:"visibility,omitempty"`      // "public" or "private"
	Preset     string   `json:"preset,omitempty"`          // "private_chat", "public_chat", "trusted_private_chat"
	Invite     []string `json:"invite,omitempty"`
	IsDirect   bool     `json:"is_direct,omitempty"`
}

// CreateRoomResponse is returned by CreateRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// MessageContent is the content body of a Matrix message event (m.room.message).
// Format and FormattedBody are set for HTML messages; Body always holds
// the plain-text rendering.
type MessageContent struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: MsgTypeText,
		Body:    body,
	}
}

// NewHTMLMessage creates an HTML message of the given msgtype (m.text,
// m.notice). The plain body is derived by stripping tags.
func NewHTMLMessage(html, msgType string) MessageContent {
	if msgType == "" {
		msgType = MsgTypeText
	}
	return MessageContent{
		MsgType:       msgType,
		Body:          StripTags(html),
		Format:        FormatHTML,
		FormattedBody: html,
	}
}

// RoomNameContent is the content of an m.room.name state event.
type RoomNameContent struct {
	Name string `json:"name"`
}

// Event represents a Matrix event from the server.
//
// Sender is kept as a raw string: a malformed sender on one event must
// not fail decoding of the whole /sync response. Parse it with
// ref.ParseUserID where it matters.
type Event struct {
	EventID        string         `json:"event_id,omitempty"`
	Type           string         `json:"type"`
	Sender         string         `json:"sender,omitempty"`
	OriginServerTS int64          `json:"origin_server_ts,omitempty"`
	Content        map[string]any `json:"content"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// IsState reports whether the event is a state event (has a state_key).
func (e Event) IsState() bool {
	return e.StateKey != nil
}

// ContentString returns a string field of the event content.
func (e Event) ContentString(key string) (string, bool) {
	value, ok := e.Content[key].(string)
	return value, ok
}

// ContentStrings returns a string-list field of the event content.
// Non-string elements are dropped; a missing or non-list field returns
// nil and false.
func (e Event) ContentStrings(key string) ([]string, bool) {
	raw, ok := e.Content[key].([]any)
	if !ok {
		return nil, false
	}
	values := make([]string, 0, len(raw))
	for _, element := range raw {
		if value, ok := element.(string); ok {
			values = append(values, value)
		}
	}
	return values, true
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	FullState  bool   // include the full state of every room, not just the delta
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// InvitedRoom contains sync data for a room the user was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom contains sync data for a room the user has left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch,omitempty"`
	Limited   bool    `json:"limited,omitempty"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// InviteRequest holds the user ID to invite to a room.
type InviteRequest struct {
	UserID ref.UserID `json:"user_id"`
}

// KickRequest is the request body for kicking a user from a room.
type KickRequest struct {
	UserID ref.UserID `json:"user_id"`
	Reason string     `json:"reason,omitempty"`
}

// SendEventResponse is returned by SendMessage and SendEvent.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// RoomMember represents a member of a Matrix room.
type RoomMember struct {
	UserID      ref.UserID `json:"user_id"`
	DisplayName string     `json:"display_name,omitempty"`
	Membership  string     `json:"membership"`
}

// RoomMembersResponse is returned by the /members endpoint.
type RoomMembersResponse struct {
	Chunk []RoomMemberEvent `json:"chunk"`
}

// RoomMemberEvent is a member state event from the /members endpoint.
// Older homeservers also carry user_id and a top-level membership; both
// are accepted as fallbacks.
type RoomMemberEvent struct {
	Type       string            `json:"type"`
	StateKey   string            `json:"state_key"`
	UserID     string            `json:"user_id,omitempty"`
	Membership string            `json:"membership,omitempty"`
	Sender     string            `json:"sender,omitempty"`
	Content    RoomMemberContent `json:"content"`
}

// RoomMemberContent is the content of a m.room.member state event.
type RoomMemberContent struct {
	Membership  string `json:"membership"`
	DisplayName string `json:"displayname,omitempty"`
}

// Member converts the event into a RoomMember. The member is the
// state_key (the user the event is about), falling back to user_id.
func (e RoomMemberEvent) Member() (RoomMember, error) {
	raw := e.StateKey
	if raw == "" {
		raw = e.UserID
	}
	userID, err := ref.ParseUserID(raw)
	if err != nil {
		return RoomMember{}, fmt.Errorf("member event: %w", err)
	}
	membership := e.Content.Membership
	if membership == "" {
		membership = e.Membership
	}
	if membership == "" {
		return RoomMember{}, fmt.Errorf("member event for %s has no membership", userID)
	}
	return RoomMember{
		UserID:      userID,
		DisplayName: e.Content.DisplayName,
		Membership:  membership,
	}, nil
}
