// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
)

var parser = robfig.NewParser(
	robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow | robfig.Descriptor,
)

// Schedule is a parsed cron expression.
type Schedule struct {
	expression string
	parsed     robfig.Schedule
}

// Parse parses a 5-field cron expression or descriptor.
func Parse(expression string) (Schedule, error) {
	parsed, err := parser.Parse(expression)
	if err != nil {
		return Schedule{}, fmt.Errorf("cron: %q: %w", expression, err)
	}
	return Schedule{expression: expression, parsed: parsed}, nil
}

// String returns the expression the schedule was parsed from.
func (s Schedule) String() string { return s.expression }

// Next returns the earliest time strictly after t that matches the
// schedule, in UTC. It fails when no such time exists within the
// parser's five-year search window (for example "0 0 30 2 *").
func (s Schedule) Next(t time.Time) (time.Time, error) {
	if s.parsed == nil {
		return time.Time{}, fmt.Errorf("cron: schedule not parsed")
	}
	next := s.parsed.Next(t.UTC())
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("cron: %q never fires after %s", s.expression, t.UTC().Format(time.RFC3339))
	}
	return next.UTC(), nil
}
