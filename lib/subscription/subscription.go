// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package subscription runs scheduled membership rules: subscriptions
// invite a target expression into a room on a cron schedule,
// revocations kick one out.
//
// A due rule behaves like "<bot>: invite <targets>" typed in the rule's
// room, with a single attempt per user and no requester, so "no
// targets" and dry-run reports go to the log.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bureau-foundation/matrixbot/lib/clock"
	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/cron"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
)

// scheduledAttempts is the retry budget for scheduled membership calls.
const scheduledAttempts = 1

// Rule is one scheduled membership rule.
type Rule struct {
	// Room is a room ID or alias. A value without a server part
	// ("#eng") is completed with the bot's domain.
	Room string

	// Targets is a target expression ("alice +eng but carol").
	Targets string

	// Schedule is a cron expression.
	Schedule string
}

// Config configures a Plugin.
type Config struct {
	// Name identifies the plugin in logs ("subscriptions",
	// "revocations").
	Name   string
	Action command.Action
	Rules  []Rule
	Domain string
	Clock  clock.Clock
	Logger *slog.Logger
}

// Plugin applies its rules when their schedules come due.
type Plugin struct {
	name   string
	action command.Action
	rules  []*scheduledRule
	clock  clock.Clock
	logger *slog.Logger
}

type scheduledRule struct {
	rule     Rule
	room     string
	schedule cron.Schedule
	next     time.Time
}

// New parses every rule's schedule. The first occurrence of each rule
// is computed from the current time, so nothing fires at startup.
func New(config Config) (*Plugin, error) {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := config.Name
	if name == "" {
		name = "subscriptions"
	}

	now := clk.Now()
	scheduler := &Plugin{
		name:   name,
		action: config.Action,
		clock:  clk,
		logger: logger.With("component", name),
	}
	for index, rule := range config.Rules {
		schedule, err := cron.Parse(rule.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%s rule %d (%s): %w", name, index, rule.Room, err)
		}
		next, err := schedule.Next(now)
		if err != nil {
			return nil, fmt.Errorf("%s rule %d (%s): %w", name, index, rule.Room, err)
		}
		scheduler.rules = append(scheduler.rules, &scheduledRule{
			rule:     rule,
			room:     CompleteRoom(rule.Room, config.Domain),
			schedule: schedule,
			next:     next,
		})
	}
	return scheduler, nil
}

// CompleteRoom appends ":domain" to a room alias or ID that lacks a
// server part.
func CompleteRoom(room, domain string) string {
	if room == "" || domain == "" || strings.Contains(room, ":") {
		return room
	}
	return room + ":" + domain
}

func (p *Plugin) Name() string { return p.name }

func (p *Plugin) Help() string { return "" }

func (p *Plugin) HandleCommand(context.Context, plugin.Handler, plugin.Message) (bool, error) {
	return false, nil
}

// Tick runs every rule whose next occurrence has passed. A rule that
// missed several occurrences runs once.
func (p *Plugin) Tick(ctx context.Context, handler plugin.Handler) error {
	now := p.clock.Now()
	for _, scheduled := range p.rules {
		if now.Before(scheduled.next) {
			continue
		}
		next, err := scheduled.schedule.Next(now)
		if err != nil {
			return err
		}
		scheduled.next = next

		roomID, ok := handler.ResolveRoom(ctx, scheduled.room)
		if !ok {
			p.logger.Error("scheduled rule room unavailable", "room", scheduled.room, "next", next)
			continue
		}
		p.logger.Info("running scheduled rule",
			"action", p.action,
			"room_id", roomID,
			"targets", scheduled.rule.Targets,
			"next", next,
		)
		handler.RunMembershipCommand(ctx, plugin.MembershipRequest{
			Action:   p.action,
			Room:     roomID,
			Targets:  scheduled.rule.Targets,
			Attempts: scheduledAttempts,
		})
	}
	return nil
}

// nextOccurrences returns the next occurrence of every rule, in rule
// order.
func (p *Plugin) nextOccurrences() []time.Time {
	times := make([]time.Time, len(p.rules))
	for index, scheduled := range p.rules {
		times[index] = scheduled.next
	}
	return times
}
