// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"github.com/tidwall/jsonc"
)

// StaticConfig configures a Static directory.
type StaticConfig struct {
	// Groups are inline group definitions.
	Groups map[string][]string

	// GroupsFile is an optional JSONC file holding an object of group
	// name to member list. Its groups override inline groups of the
	// same name.
	GroupsFile string

	// Names, when set, is the list Groups reports. Otherwise every
	// defined group is reported in lexical order.
	Names []string
}

// Static serves groups from configuration.
type Static struct {
	config StaticConfig
}

// NewStatic creates a static directory.
func NewStatic(config StaticConfig) *Static {
	return &Static{config: config}
}

func (s *Static) Groups(ctx context.Context) ([]string, error) {
	if len(s.config.Names) > 0 {
		return append([]string(nil), s.config.Names...), nil
	}
	groups, err := s.GroupMembers(ctx)
	if err != nil {
		return nil, err
	}
	return sortedNames(groups), nil
}

func (s *Static) GroupMembers(ctx context.Context) (map[string][]string, error) {
	groups := make(map[string][]string, len(s.config.Groups))
	maps.Copy(groups, s.config.Groups)
	if s.config.GroupsFile == "" {
		return groups, nil
	}
	fromFile, err := ReadGroupsFile(s.config.GroupsFile)
	if err != nil {
		return nil, err
	}
	maps.Copy(groups, fromFile)
	return groups, nil
}

// ParseGroups parses JSONC (JSON with comments and trailing commas)
// holding an object of group name to member list.
func ParseGroups(data []byte) (map[string][]string, error) {
	var groups map[string][]string
	if err := json.Unmarshal(jsonc.ToJSON(data), &groups); err != nil {
		return nil, fmt.Errorf("parsing groups: %w", err)
	}
	if groups == nil {
		groups = map[string][]string{}
	}
	return groups, nil
}

// ReadGroupsFile reads and parses a JSONC groups file.
func ReadGroupsFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	groups, err := ParseGroups(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return groups, nil
}
