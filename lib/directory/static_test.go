// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseGroupsJSONC(t *testing.T) {
	groups, err := ParseGroups([]byte(`{
		// release engineering
		"eng": ["alice", "@bob:example.org",],
		/* leaving soon */
		"former": ["carol"],
	}`))
	if err != nil {
		t.Fatalf("ParseGroups: %v", err)
	}
	if got := strings.Join(groups["eng"], ","); got != "alice,@bob:example.org" {
		t.Errorf("eng = %s", got)
	}
	if got := strings.Join(groups["former"], ","); got != "carol" {
		t.Errorf("former = %s", got)
	}
}

func TestParseGroupsRejectsWrongShape(t *testing.T) {
	if _, err := ParseGroups([]byte(`["eng"]`)); err == nil {
		t.Fatal("expected error for a list")
	}
}

func TestStaticMergesFileOverInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.jsonc")
	if err := os.WriteFile(path, []byte(`{"eng": ["dave"], "ops": ["erin"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	directory := NewStatic(StaticConfig{
		Groups:     map[string][]string{"eng": {"alice", "bob"}, "qa": {"frank"}},
		GroupsFile: path,
	})

	members, err := directory.GroupMembers(context.Background())
	if err != nil {
		t.Fatalf("GroupMembers: %v", err)
	}
	if got := strings.Join(members["eng"], ","); got != "dave" {
		t.Errorf("eng = %s, want the file's definition", got)
	}
	if len(members["qa"]) != 1 || len(members["ops"]) != 1 {
		t.Errorf("members = %v", members)
	}

	names, err := directory.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if got := strings.Join(names, ","); got != "eng,ops,qa" {
		t.Errorf("Groups = %s, want lexical order", got)
	}
}

func TestStaticConfiguredNames(t *testing.T) {
	directory := NewStatic(StaticConfig{
		Groups: map[string][]string{"eng": {"alice"}},
		Names:  []string{"eng", "ops"},
	})
	names, _ := directory.Groups(context.Background())
	if got := strings.Join(names, ","); got != "eng,ops" {
		t.Errorf("Groups = %s", got)
	}
}

func TestStaticMissingFile(t *testing.T) {
	directory := NewStatic(StaticConfig{GroupsFile: filepath.Join(t.TempDir(), "absent.jsonc")})
	if _, err := directory.GroupMembers(context.Background()); err == nil {
		t.Fatal("expected error for missing groups file")
	}
}
