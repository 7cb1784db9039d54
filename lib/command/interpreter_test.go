// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/bureau-foundation/matrixbot/lib/directory"
	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// countingDirectory wraps a static directory and counts lookups.
type countingDirectory struct {
	directory.Directory
	lookups int
	err     error
}

func (d *countingDirectory) GroupMembers(ctx context.Context) (map[string][]string, error) {
	d.lookups++
	if d.err != nil {
		return nil, d.err
	}
	return d.Directory.GroupMembers(ctx)
}

func newTestInterpreter(groups map[string][]string) (*Interpreter, *countingDirectory) {
	counting := &countingDirectory{Directory: directory.NewStatic(directory.StaticConfig{Groups: groups})}
	interpreter := NewInterpreter(Config{
		Name:      "Bender",
		Server:    "dom",
		Directory: counting,
		Aliases:   map[string]string{"onboard": "invite +eng", "purge": "kick dryrun +former"},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return interpreter, counting
}

func userList(ids []ref.UserID) string {
	parts := make([]string, len(ids))
	for index, id := range ids {
		parts[index] = id.String()
	}
	return strings.Join(parts, " ")
}

func TestIsCommand(t *testing.T) {
	interpreter, _ := newTestInterpreter(nil)
	tests := []struct {
		body    string
		keyword string
		want    bool
	}{
		{"bender: invite alice", "invite", true},
		{"  BENDER: invite alice", "invite", true},
		{"bender: invite alice", "kick", false},
		{"bender: list_rooms", "list", false},
		{"bender: list_rooms", "list_rooms", true},
		{"bender:", "help", true},
		{"bender:   ", "help", true},
		{"bender:", "invite", false},
		{"bender: Invite alice", "invite", false},
		{"fry: invite alice", "invite", false},
		{"hey bender: invite alice", "invite", false},
	}
	for _, test := range tests {
		if got := interpreter.IsCommand(test.body, test.keyword); got != test.want {
			t.Errorf("IsCommand(%q, %q) = %v, want %v", test.body, test.keyword, got, test.want)
		}
	}
}

func TestInterpretGroupWithExclusion(t *testing.T) {
	interpreter, _ := newTestInterpreter(map[string][]string{"eng": {"alice", "bob"}})

	command, err := interpreter.Interpret(context.Background(), ActionInvite, "bot: invite +eng but alice")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if got := userList(command.Targets.Include); got != "@alice:dom @bob:dom" {
		t.Errorf("Include = %s", got)
	}
	if got := userList(command.Targets.Exclude); got != "@alice:dom" {
		t.Errorf("Exclude = %s", got)
	}
	if got := userList(command.Targets.Selected()); got != "@bob:dom" {
		t.Errorf("Selected = %s", got)
	}
	if command.DryRun {
		t.Error("unexpected dry run")
	}
}

func TestInterpretDryRun(t *testing.T) {
	interpreter, counting := newTestInterpreter(nil)

	command, err := interpreter.Interpret(context.Background(), ActionKick, "bot: kick dryrun bob")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !command.DryRun {
		t.Error("expected dry run")
	}
	if got := userList(command.Targets.Selected()); got != "@bob:dom" {
		t.Errorf("Selected = %s", got)
	}
	// No group token, no directory lookup.
	if counting.lookups != 0 {
		t.Errorf("directory consulted %d times, want 0", counting.lookups)
	}

	// "dryrun" only counts right after the keyword.
	command, _ = interpreter.Interpret(context.Background(), ActionKick, "bot: kick bob dryrun")
	if command.DryRun {
		t.Error("dryrun in target position must not enable dry run")
	}
	if got := userList(command.Targets.Selected()); got != "@bob:dom @dryrun:dom" {
		t.Errorf("Selected = %s", got)
	}
}

func TestInterpretDeduplicatesAndNormalizes(t *testing.T) {
	interpreter, counting := newTestInterpreter(map[string][]string{
		"eng": {"alice", "@bob:dom"},
		"ops": {"bob", "carol", "@dave:other.org"},
	})

	command, err := interpreter.Interpret(context.Background(), ActionInvite,
		"bot: invite +eng alice +ops @alice:dom but carol carol but +missing")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if got := userList(command.Targets.Include); got != "@alice:dom @bob:dom @carol:dom @dave:other.org" {
		t.Errorf("Include = %s", got)
	}
	if got := userList(command.Targets.Exclude); got != "@carol:dom" {
		t.Errorf("Exclude = %s", got)
	}
	if got := userList(command.Targets.Selected()); got != "@alice:dom @bob:dom @dave:other.org" {
		t.Errorf("Selected = %s", got)
	}
	if strings.Join(command.UnknownGroups, ",") != "missing" {
		t.Errorf("UnknownGroups = %v", command.UnknownGroups)
	}
	if counting.lookups != 1 {
		t.Errorf("directory consulted %d times, want exactly 1", counting.lookups)
	}
}

func TestInterpretNoOverlapProperty(t *testing.T) {
	interpreter, _ := newTestInterpreter(map[string][]string{
		"a": {"u1", "u2", "u3"},
		"b": {"u2", "u4"},
	})
	bodies := []string{
		"bot: invite +a but +b",
		"bot: invite +a +b but u1 u1",
		"bot: invite u1 u2 u1 but",
		"bot: kick but +a",
		"bot: kick +a u5 but +b but u5",
	}
	for _, body := range bodies {
		command, err := interpreter.Interpret(context.Background(), ActionInvite, body)
		if err != nil {
			t.Fatalf("%q: %v", body, err)
		}
		seen := map[ref.UserID]bool{}
		for _, userID := range command.Targets.Selected() {
			if seen[userID] {
				t.Errorf("%q: duplicate %s in selection", body, userID)
			}
			seen[userID] = true
			for _, excluded := range command.Targets.Exclude {
				if excluded == userID {
					t.Errorf("%q: %s both selected and excluded", body, userID)
				}
			}
		}
	}
}

func TestInterpretEmptySelection(t *testing.T) {
	interpreter, _ := newTestInterpreter(nil)
	command, err := interpreter.Interpret(context.Background(), ActionInvite, "bot: invite alice but alice")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(command.Targets.Selected()) != 0 {
		t.Errorf("Selected = %v, want empty", command.Targets.Selected())
	}
}

func TestInterpretDirectoryFailure(t *testing.T) {
	interpreter, counting := newTestInterpreter(nil)
	counting.err = errors.New("ldap down")
	if _, err := interpreter.Interpret(context.Background(), ActionInvite, "bot: invite +eng"); err == nil {
		t.Fatal("expected error when the directory fails")
	}
}

func TestInterpretSkipsInvalidIdentities(t *testing.T) {
	interpreter, _ := newTestInterpreter(nil)
	command, _ := interpreter.Interpret(context.Background(), ActionInvite, "bot: invite @:dom alice")
	if got := userList(command.Targets.Selected()); got != "@alice:dom" {
		t.Errorf("Selected = %s", got)
	}
}

func TestExpandAlias(t *testing.T) {
	interpreter, _ := newTestInterpreter(nil)
	tests := []struct{ body, want string }{
		{"bender: onboard dave", "bender: invite +eng dave"},
		{"bender: onboard", "bender: invite +eng"},
		{"bender: purge", "bender: kick dryrun +former"},
		{"bender: invite dave", "bender: invite dave"},
		{"fry: onboard dave", "fry: onboard dave"},
		{"bender:", "bender:"},
	}
	for _, test := range tests {
		if got := interpreter.ExpandAlias(test.body); got != test.want {
			t.Errorf("ExpandAlias(%q) = %q, want %q", test.body, got, test.want)
		}
	}

	aliases := interpreter.Aliases()
	if len(aliases) != 2 || aliases[0].Keyword != "onboard" || aliases[1].Keyword != "purge" {
		t.Errorf("Aliases = %+v", aliases)
	}
}
