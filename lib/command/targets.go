// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"slices"

	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// Action is a membership action a command performs.
type Action string

const (
	ActionInvite Action = "invite_user"
	ActionKick   Action = "kick_user"
)

// Keyword returns the chat keyword that triggers the action.
func (a Action) Keyword() string {
	switch a {
	case ActionInvite:
		return "invite"
	case ActionKick:
		return "kick"
	default:
		return string(a)
	}
}

// TargetSet is the parsed target expression of a membership command.
// Include and Exclude are each duplicate-free, in first-occurrence
// order.
type TargetSet struct {
	Include []ref.UserID
	Exclude []ref.UserID
}

// Selected returns Include minus Exclude, preserving Include order.
func (t TargetSet) Selected() []ref.UserID {
	selected := make([]ref.UserID, 0, len(t.Include))
	for _, userID := range t.Include {
		if !slices.Contains(t.Exclude, userID) {
			selected = append(selected, userID)
		}
	}
	return selected
}

// add appends userID to the include or exclude list unless it is
// already there.
func (t *TargetSet) add(userID ref.UserID, include bool) {
	list := &t.Exclude
	if include {
		list = &t.Include
	}
	if !slices.Contains(*list, userID) {
		*list = append(*list, userID)
	}
}

// Command is an interpreted membership command.
type Command struct {
	Action  Action
	Targets TargetSet
	DryRun  bool

	// UnknownGroups lists "+group" references the directory did not
	// know, in order of appearance.
	UnknownGroups []string
}
