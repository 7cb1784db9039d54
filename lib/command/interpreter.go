// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bureau-foundation/matrixbot/lib/directory"
	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// Reserved words of the target grammar.
const (
	tokenDryRun  = "dryrun"
	tokenBut     = "but"
	groupSigil   = "+"
	keywordHelp  = "help"
	addressColon = ":"
)

// Config configures an Interpreter.
type Config struct {
	// Name is the bot's username, the addressing prefix of commands.
	Name string

	// Server completes bare identities.
	Server string

	// Directory resolves "+group" tokens. May be nil when no groups
	// are configured; every group is then unknown.
	Directory directory.Directory

	// Aliases maps a keyword to its expansion.
	Aliases map[string]string

	Logger *slog.Logger
}

// Interpreter classifies and parses addressed messages.
type Interpreter struct {
	prefix    string
	server    string
	directory directory.Directory
	aliases   map[string]string
	logger    *slog.Logger
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(config Config) *Interpreter {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		prefix:    strings.ToLower(config.Name) + addressColon,
		server:    config.Server,
		directory: config.Directory,
		aliases:   config.Aliases,
		logger:    logger.With("component", "command"),
	}
}

// IsAddressed reports whether body is addressed to the bot.
func (i *Interpreter) IsAddressed(body string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(body)), i.prefix)
}

// IsCommand reports whether body is addressed to the bot with keyword
// as its command. An addressed body with no command at all matches
// only "help".
func (i *Interpreter) IsCommand(body, keyword string) bool {
	if !i.IsAddressed(body) {
		return false
	}
	fields := strings.Fields(body)[1:]
	if len(fields) == 0 {
		return keyword == keywordHelp
	}
	return fields[0] == keyword
}

// Args returns the words after the addressing prefix and keyword.
func Args(body string) []string {
	fields := strings.Fields(body)
	if len(fields) <= 2 {
		return nil
	}
	return fields[2:]
}

// Normalize returns the fully qualified form of an identity, or false
// if it cannot be one.
func (i *Interpreter) Normalize(raw string) (ref.UserID, bool) {
	userID, err := ref.NormalizeUserID(raw, i.server)
	if err != nil {
		i.logger.Debug("ignoring invalid identity", "identity", raw, "error", err)
		return ref.UserID{}, false
	}
	return userID, true
}

// Interpret parses the target expression of a membership command. The
// directory is consulted at most once, and only when the expression
// references a group. A directory failure fails the whole command:
// acting on a partial target set is worse than not acting.
func (i *Interpreter) Interpret(ctx context.Context, action Action, body string) (Command, error) {
	command := Command{Action: action}
	tokens := Args(body)
	if len(tokens) > 0 && tokens[0] == tokenDryRun {
		command.DryRun = true
		tokens = tokens[1:]
	}

	var groups map[string][]string
	if hasGroupReference(tokens) {
		var err error
		groups, err = i.GroupMembers(ctx)
		if err != nil {
			return Command{}, err
		}
	}

	include := true
	for _, token := range tokens {
		switch {
		case token == tokenBut:
			include = false
		case strings.HasPrefix(token, groupSigil):
			name := strings.TrimPrefix(token, groupSigil)
			members, found := groups[name]
			if !found {
				command.UnknownGroups = append(command.UnknownGroups, name)
				continue
			}
			for _, member := range members {
				if userID, ok := i.Normalize(member); ok {
					command.Targets.add(userID, include)
				}
			}
		default:
			if userID, ok := i.Normalize(token); ok {
				command.Targets.add(userID, include)
			}
		}
	}
	return command, nil
}

// GroupMembers fetches the group table from the directory. A nil
// directory has no groups.
func (i *Interpreter) GroupMembers(ctx context.Context) (map[string][]string, error) {
	if i.directory == nil {
		return map[string][]string{}, nil
	}
	groups, err := i.directory.GroupMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("looking up groups: %w", err)
	}
	return groups, nil
}

// Groups returns the directory's group names. A nil directory has
// none.
func (i *Interpreter) Groups(ctx context.Context) ([]string, error) {
	if i.directory == nil {
		return nil, nil
	}
	names, err := i.directory.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return names, nil
}

func hasGroupReference(tokens []string) bool {
	for _, token := range tokens {
		if strings.HasPrefix(token, groupSigil) {
			return true
		}
	}
	return false
}

// ExpandAlias rewrites an addressed body whose keyword is an alias.
// Other bodies are returned unchanged.
func (i *Interpreter) ExpandAlias(body string) string {
	if len(i.aliases) == 0 || !i.IsAddressed(body) {
		return body
	}
	fields := strings.Fields(body)
	if len(fields) < 2 {
		return body
	}
	expansion, ok := i.aliases[fields[1]]
	if !ok {
		return body
	}
	expanded := append([]string{fields[0]}, strings.Fields(expansion)...)
	expanded = append(expanded, fields[2:]...)
	return strings.Join(expanded, " ")
}

// Alias is one configured command alias.
type Alias struct {
	Keyword   string
	Expansion string
}

// Aliases returns the configured aliases sorted by keyword.
func (i *Interpreter) Aliases() []Alias {
	aliases := make([]Alias, 0, len(i.aliases))
	for keyword, expansion := range i.aliases {
		aliases = append(aliases, Alias{Keyword: keyword, Expansion: expansion})
	}
	sort.Slice(aliases, func(a, b int) bool { return aliases[a].Keyword < aliases[b].Keyword })
	return aliases
}
