// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Scheduler owns the registered plugins. Like the rest of the bot it is
// driven from the sync loop's goroutine only.
type Scheduler struct {
	plugins []Plugin
	logger  *slog.Logger
}

// NewScheduler creates a scheduler with the given plugins, in
// registration order.
func NewScheduler(logger *slog.Logger, plugins ...Plugin) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	scheduler := &Scheduler{logger: logger.With("component", "plugins")}
	for _, plugin := range plugins {
		scheduler.Register(plugin)
	}
	return scheduler
}

// Register appends a plugin. Nil plugins are ignored.
func (s *Scheduler) Register(plugin Plugin) {
	if plugin == nil {
		return
	}
	s.plugins = append(s.plugins, plugin)
	s.logger.Info("plugin registered", "plugin", plugin.Name())
}

// registered returns the registered plugins.
func (s *Scheduler) registered() []Plugin {
	return append([]Plugin(nil), s.plugins...)
}

// Tick gives every plugin its tick. Failures are logged and do not
// stop later plugins.
func (s *Scheduler) Tick(ctx context.Context, handler Handler) {
	for _, plugin := range s.plugins {
		if ctx.Err() != nil {
			return
		}
		err := s.isolate(plugin, "tick", func() error {
			return plugin.Tick(ctx, handler)
		})
		if err != nil {
			s.logger.Error("plugin tick failed", "plugin", plugin.Name(), "error", err)
		}
	}
}

// HandleCommand offers message to each plugin in order and reports
// whether one handled it. A plugin that fails is treated as declining.
func (s *Scheduler) HandleCommand(ctx context.Context, handler Handler, message Message) bool {
	for _, plugin := range s.plugins {
		var handled bool
		err := s.isolate(plugin, "command", func() error {
			var err error
			handled, err = plugin.HandleCommand(ctx, handler, message)
			return err
		})
		if err != nil {
			s.logger.Error("plugin command failed",
				"plugin", plugin.Name(),
				"sender", message.Sender,
				"room_id", message.Room,
				"error", err,
			)
			continue
		}
		if handled {
			return true
		}
	}
	return false
}

// Help collects the non-empty help contributions in registration
// order.
func (s *Scheduler) Help() []string {
	var sections []string
	for _, plugin := range s.plugins {
		var text string
		err := s.isolate(plugin, "help", func() error {
			text = plugin.Help()
			return nil
		})
		if err != nil {
			s.logger.Error("plugin help failed", "plugin", plugin.Name(), "error", err)
			continue
		}
		if text != "" {
			sections = append(sections, text)
		}
	}
	return sections
}

// isolate runs fn, converting a panic into an error.
func (s *Scheduler) isolate(plugin Plugin, entry string, fn func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Debug("plugin panic stack", "plugin", plugin.Name(), "stack", string(debug.Stack()))
			err = fmt.Errorf("panic in %s: %v", entry, recovered)
		}
	}()
	return fn()
}
