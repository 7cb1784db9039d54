// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/invoke"
	"github.com/bureau-foundation/matrixbot/lib/ref"
)

const unnamedRoom = "No named"

// doList answers "list": the group names with no arguments, otherwise
// one message per argument describing a group or an identity.
func (b *Bot) doList(ctx context.Context, sender ref.UserID, body string) {
	args := command.Args(body)
	if len(args) == 0 {
		names, err := b.interpreter.Groups(ctx)
		if err != nil {
			b.logger.Error("list failed", "sender", sender, "error", err)
			b.SendPrivateMessage(ctx, sender, fmt.Sprintf("Could not list groups: %v", err))
			return
		}
		var builder strings.Builder
		builder.WriteString("groups:")
		for _, name := range names {
			builder.WriteString(" " + name)
		}
		b.SendPrivateMessage(ctx, sender, builder.String())
		return
	}

	var groups map[string][]string
	for _, arg := range args {
		name, isGroup := strings.CutPrefix(arg, "+")
		if !isGroup {
			userID, ok := b.interpreter.Normalize(arg)
			if !ok {
				b.SendPrivateMessage(ctx, sender, fmt.Sprintf("user: %s is not a valid identity", arg))
				continue
			}
			b.SendPrivateMessage(ctx, sender, fmt.Sprintf("user: %s", userID))
			continue
		}

		if groups == nil {
			var err error
			groups, err = b.interpreter.GroupMembers(ctx)
			if err != nil {
				b.logger.Error("list failed", "sender", sender, "error", err)
				b.SendPrivateMessage(ctx, sender, fmt.Sprintf("Could not list groups: %v", err))
				return
			}
		}
		members, found := groups[name]
		if !found {
			b.SendPrivateMessage(ctx, sender, fmt.Sprintf("group %s not found", name))
			continue
		}
		var builder strings.Builder
		fmt.Fprintf(&builder, "group %s members:", name)
		for _, member := range members {
			if userID, ok := b.interpreter.Normalize(member); ok {
				builder.WriteString(" " + userID.String())
			}
		}
		b.SendPrivateMessage(ctx, sender, builder.String())
	}
}

// doListRooms answers "list_rooms" with the aliased rooms that have
// more than two members.
func (b *Bot) doListRooms(ctx context.Context, sender ref.UserID) {
	snapshot := b.directory.Snapshot()
	var builder strings.Builder
	builder.WriteString("Room list:\n")
	for _, roomID := range snapshot.RoomIDs() {
		room, _ := snapshot.Room(roomID)
		if len(room.Aliases) == 0 {
			continue
		}
		members, ok := invoke.Do(ctx, b.invoker, invoke.GetRoomMembers{Room: roomID}, memberListAttempts)
		if !ok || len(members) <= 2 {
			continue
		}
		fmt.Fprintf(&builder, "* %s - %s\n", b.roomName(ctx, roomID, room.Name), strings.Join(room.Aliases, " "))
	}
	b.SendPrivateMessage(ctx, sender, builder.String())
}

func (b *Bot) roomName(ctx context.Context, roomID ref.RoomID, cached string) string {
	if cached != "" {
		return cached
	}
	name, ok := invoke.Do(ctx, b.invoker, invoke.GetRoomName{Room: roomID}, roomNameAttempts)
	if !ok || name == "" {
		return unnamedRoom
	}
	return name
}

// doListGroups answers "list_groups".
func (b *Bot) doListGroups(ctx context.Context, sender ref.UserID) {
	names, err := b.interpreter.Groups(ctx)
	if err != nil {
		b.logger.Error("list_groups failed", "sender", sender, "error", err)
		b.SendPrivateMessage(ctx, sender, fmt.Sprintf("Could not list groups: %v", err))
		return
	}
	b.SendPrivateMessage(ctx, sender, fmt.Sprintf("Groups:\n\n%s\n", strings.Join(names, ", ")))
}

// doHelp answers "help", appending the plugins' help and, when the
// body asks for "extra", the alias table.
func (b *Bot) doHelp(ctx context.Context, sender ref.UserID, body string) {
	b.SendPrivateMessage(ctx, sender, b.helpText(strings.Contains(body, "extra")))
}

func (b *Bot) helpText(extra bool) string {
	usage := []string{
		"help",
		"help extra",
		"invite [dryrun] (@user|+group) ... [ but (@user|+group) ]",
		"kick [dryrun] (@user|+group) ... [ but (@user|+group) ]",
		"list [+group]",
		"list_rooms",
		"list_groups",
	}
	var builder strings.Builder
	builder.WriteString("Examples:\n")
	for _, line := range usage {
		fmt.Fprintf(&builder, "%s: %s\n", b.name, line)
	}
	for _, section := range b.scheduler.Help() {
		builder.WriteString(section)
		if !strings.HasSuffix(section, "\n") {
			builder.WriteByte('\n')
		}
	}
	if extra {
		builder.WriteString("\nAvailable command aliases:\n\n")
		for _, alias := range b.interpreter.Aliases() {
			fmt.Fprintf(&builder, "%s: %s ==> %s\n", b.name, alias.Keyword, alias.Expansion)
		}
	}
	return builder.String()
}
