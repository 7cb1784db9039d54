// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin runs optional bot extensions alongside the sync loop.
//
// A [Plugin] gets a tick on every sync cycle, a chance at every
// addressed message the core commands do not own, and a line in the
// help text. Ticks fire once per cycle; plugins that want a slower
// cadence gate themselves with a [Gate]. The [Scheduler] isolates
// plugins from each other and from the loop: an error or panic in one
// plugin is logged with the plugin's name and the remaining plugins
// still run.
package plugin

import (
	"context"

	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// Plugin is a bot extension.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Tick runs the plugin's background work. Called once per sync
	// cycle.
	Tick(ctx context.Context, handler Handler) error

	// HandleCommand offers an addressed message the core did not
	// recognize. handled=true stops the message from reaching later
	// plugins and the help fallback.
	HandleCommand(ctx context.Context, handler Handler, message Message) (handled bool, err error)

	// Help returns usage lines for the help command, or "".
	Help() string
}

// Message is an addressed chat message.
type Message struct {
	Sender ref.UserID
	Room   ref.RoomID
	Body   string
}

// MembershipRequest asks the bot to run a membership command as if it
// had been typed in Room.
type MembershipRequest struct {
	Action command.Action
	Room   ref.RoomID

	// Targets is a target expression in the command grammar
	// ("alice +eng but carol").
	Targets string

	// Requester receives dry-run and "no targets" reports. Zero means
	// nobody asked; reports are logged instead.
	Requester ref.UserID

	// Attempts is the retry budget per membership call.
	Attempts int
}

// Handler is the outbound surface plugins share with the core. Every
// send goes through the bot's retrying invoker; false means the send
// was not confirmed.
type Handler interface {
	SendMessage(ctx context.Context, room ref.RoomID, text string) bool
	SendHTML(ctx context.Context, room ref.RoomID, html, msgType string) bool
	SendPrivateMessage(ctx context.Context, user ref.UserID, text string) bool

	// ResolveRoom turns a room alias or ID into a room ID, joining the
	// room if needed.
	ResolveRoom(ctx context.Context, roomIDOrAlias string) (ref.RoomID, bool)

	// IsCommand reports whether body addresses the bot with keyword.
	IsCommand(body, keyword string) bool

	RunMembershipCommand(ctx context.Context, request MembershipRequest)
}
