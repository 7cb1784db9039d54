// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// History answers "<bot>: history [n]" with the last n journal
// entries, sent privately to whoever asked.
type History struct {
	store   *Store
	botName string
}

// NewHistory creates the history plugin. botName is only used in the
// help text.
func NewHistory(store *Store, botName string) *History {
	return &History{store: store, botName: botName}
}

func (h *History) Name() string { return "history" }

func (h *History) Tick(context.Context, plugin.Handler) error { return nil }

func (h *History) Help() string {
	return fmt.Sprintf("%s: history [n]", h.botName)
}

func (h *History) HandleCommand(ctx context.Context, handler plugin.Handler, message plugin.Message) (bool, error) {
	if !handler.IsCommand(message.Body, "history") {
		return false, nil
	}

	limit := DefaultHistoryLimit
	if args := command.Args(message.Body); len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			handler.SendPrivateMessage(ctx, message.Sender,
				fmt.Sprintf("history: expected a positive count, got %q", args[0]))
			return true, nil
		}
		limit = min(parsed, MaxHistoryLimit)
	}

	entries, err := h.store.Recent(ctx, limit)
	if err != nil {
		handler.SendPrivateMessage(ctx, message.Sender, "history: journal unavailable")
		return true, err
	}
	handler.SendPrivateMessage(ctx, message.Sender, FormatEntries(entries))
	return true, nil
}

// FormatEntries renders entries one per line, in the order given.
func FormatEntries(entries []Entry) string {
	if len(entries) == 0 {
		return "No recorded actions"
	}
	var builder strings.Builder
	builder.WriteString("Recent actions:\n")
	for _, entry := range entries {
		builder.WriteString(FormatEntry(entry))
		builder.WriteByte('\n')
	}
	return builder.String()
}

// FormatEntry renders a single entry:
//
//	2026-10-19 09:30:00 invite @alice:example.org in !abc:example.org by @bob:example.org
func FormatEntry(entry Entry) string {
	line := fmt.Sprintf("%s %s %s in %s",
		entry.Time.UTC().Format("2006-01-02 15:04:05"),
		entry.Action.Keyword(),
		entry.User,
		entry.Room,
	)
	if entry.Requester.IsZero() {
		line += " (scheduled)"
	} else {
		line += " by " + entry.Requester.String()
	}
	switch {
	case entry.DryRun:
		line += " [dry run]"
	case !entry.Performed:
		line += " [failed]"
	}
	return line
}
