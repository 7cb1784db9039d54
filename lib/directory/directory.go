// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory supplies group membership to the command
// interpreter. A group is a name mapped to an ordered list of member
// identities, bare ("alice") or fully qualified ("@alice:example.org");
// callers normalize them.
//
// Two sources exist: [Static], backed by the configuration file and an
// optional JSONC groups file, and [LDAP], backed by a directory server.
// Both are read-only and re-read on every call, so edits to the groups
// file or the directory take effect on the next command.
package directory

import (
	"context"
	"sort"
)

// Directory is the group lookup surface used by the bot.
type Directory interface {
	// Groups returns the group names offered to users, in display
	// order.
	Groups(ctx context.Context) ([]string, error)

	// GroupMembers returns every group's members. Member order is
	// preserved from the source.
	GroupMembers(ctx context.Context) (map[string][]string, error)
}

// sortedNames returns the keys of groups in lexical order.
func sortedNames(groups map[string][]string) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
