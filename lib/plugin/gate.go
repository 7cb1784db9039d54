// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"time"

	"github.com/bureau-foundation/matrixbot/lib/clock"
)

// Gate limits work to once per period. The first opening is one full
// period after the gate is created.
type Gate struct {
	clock  clock.Clock
	period time.Duration
	last   time.Time
}

// NewGate creates a gate starting now.
func NewGate(clk clock.Clock, period time.Duration) *Gate {
	return &Gate{clock: clk, period: period, last: clk.Now()}
}

// Ready reports whether a period has passed since the gate last
// opened, and if so opens it.
func (g *Gate) Ready() bool {
	now := g.clock.Now()
	if now.Before(g.last.Add(g.period)) {
		return false
	}
	g.last = now
	return true
}

// Period returns the gate's period.
func (g *Gate) Period() time.Duration { return g.period }
