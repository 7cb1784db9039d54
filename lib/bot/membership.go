// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/invoke"
	"github.com/bureau-foundation/matrixbot/lib/journal"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// RunMembershipCommand runs request as though "<bot>: <keyword>
// <targets>" had been typed in request.Room.
func (b *Bot) RunMembershipCommand(ctx context.Context, request plugin.MembershipRequest) {
	body := fmt.Sprintf("%s: %s %s", b.name, request.Action.Keyword(), request.Targets)
	b.runMembership(ctx, request.Action, request.Requester, request.Room, body, max(request.Attempts, 1))
}

func (b *Bot) runChatMembership(ctx context.Context, action command.Action, sender ref.UserID, roomID ref.RoomID, body string) {
	b.runMembership(ctx, action, sender, roomID, body, commandAttempts)
}

// runMembership interprets body and applies action to every selected
// user, one remote call per user with the given budget.
func (b *Bot) runMembership(ctx context.Context, action command.Action, requester ref.UserID, roomID ref.RoomID, body string, attempts int) {
	cmd, err := b.interpreter.Interpret(ctx, action, body)
	if err != nil {
		b.logger.Error("membership command failed",
			"action", action,
			"room_id", roomID,
			"requester", requester,
			"error", err,
		)
		b.report(ctx, requester, fmt.Sprintf("Could not run %s: %v", action.Keyword(), err))
		return
	}
	for _, name := range cmd.UnknownGroups {
		b.report(ctx, requester, fmt.Sprintf("group %s not found", name))
	}

	selected := cmd.Targets.Selected()
	if cmd.DryRun {
		names := make([]string, len(selected))
		for index, userID := range selected {
			names[index] = userID.String()
			b.record(ctx, journal.Entry{Action: action, Room: roomID, User: userID, Requester: requester, DryRun: true})
		}
		b.report(ctx, requester, fmt.Sprintf("Simulated '%s' action in room '%s' over: %s",
			action, roomID, strings.Join(names, " ")))
		return
	}
	if len(selected) == 0 {
		b.report(ctx, requester, "No users found")
		return
	}

	for _, userID := range selected {
		if ctx.Err() != nil {
			return
		}
		b.logger.Debug("applying membership action", "action", action, "room_id", roomID, "user_id", userID)
		var ok bool
		switch action {
		case command.ActionInvite:
			_, ok = invoke.Do(ctx, b.invoker, invoke.InviteUser{Room: roomID, User: userID}, attempts)
		case command.ActionKick:
			_, ok = invoke.Do(ctx, b.invoker, invoke.KickUser{Room: roomID, User: userID}, attempts)
		default:
			b.logger.Error("unsupported membership action", "action", action)
			return
		}
		b.record(ctx, journal.Entry{Action: action, Room: roomID, User: userID, Requester: requester, Performed: ok})
	}
}

// report tells requester about the outcome of a command. Scheduled
// commands have no requester; their reports are logged.
func (b *Bot) report(ctx context.Context, requester ref.UserID, text string) {
	if requester.IsZero() {
		b.logger.Info("scheduled command report", "text", text)
		return
	}
	b.SendPrivateMessage(ctx, requester, text)
}

func (b *Bot) record(ctx context.Context, entry journal.Entry) {
	if b.recorder == nil {
		return
	}
	entry.Time = b.clock.Now()
	if err := b.recorder.Record(ctx, entry); err != nil {
		b.logger.Error("journal write failed", "action", entry.Action, "user_id", entry.User, "error", err)
	}
}
