// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package invoke

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bureau-foundation/matrixbot/lib/clock"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// DefaultDelay is the wait between a failed attempt and the next one.
const DefaultDelay = 5 * time.Second

// Config holds the dependencies of an Invoker.
type Config struct {
	Session messaging.Session

	// Clock drives the inter-attempt delay. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives one Error record per failed attempt. Nil means
	// slog.Default().
	Logger *slog.Logger

	// Delay overrides DefaultDelay when positive.
	Delay time.Duration
}

// Invoker runs typed calls against a session with bounded retries.
type Invoker struct {
	session messaging.Session
	clock   clock.Clock
	logger  *slog.Logger
	delay   time.Duration
}

// New creates an Invoker.
func New(config Config) *Invoker {
	invoker := &Invoker{
		session: config.Session,
		clock:   config.Clock,
		logger:  config.Logger,
		delay:   config.Delay,
	}
	if invoker.clock == nil {
		invoker.clock = clock.Real()
	}
	if invoker.logger == nil {
		invoker.logger = slog.Default()
	}
	invoker.logger = invoker.logger.With("component", "invoke")
	if invoker.delay <= 0 {
		invoker.delay = DefaultDelay
	}
	return invoker
}

// Session returns the session calls run against.
func (inv *Invoker) Session() messaging.Session {
	return inv.session
}

// Do runs call up to maxAttempts times (at least once) and returns the
// first successful result. After a failure it waits the invoker's
// delay before the next attempt; there is no wait after the final
// attempt. ok is false when every attempt failed or ctx was cancelled
// during a wait.
//
// The remote side effect may happen on any attempt, including one whose
// response was lost, so calls must be safe to repeat. Sends get one
// transaction ID shared by all attempts; the homeserver deduplicates
// on it.
func Do[T any](ctx context.Context, inv *Invoker, call Call[T], maxAttempts int) (result T, ok bool) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sender, isSend := call.(transactional[T]); isSend {
		call = sender.withTransaction()
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, err := call.invoke(ctx, inv.session)
		if err == nil {
			return value, true
		}

		attrs := append([]any{
			"action", call.Name(),
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		}, call.logAttrs()...)
		var matrixErr *messaging.MatrixError
		if errors.As(err, &matrixErr) {
			attrs = append(attrs, "errcode", matrixErr.Code, "status", matrixErr.StatusCode)
		}
		inv.logger.Error("remote call failed", attrs...)

		if attempt == maxAttempts {
			break
		}
		if clock.SleepContext(ctx, inv.clock, inv.delay) != nil {
			inv.logger.Info("retry abandoned", "action", call.Name(), "reason", ctx.Err())
			break
		}
	}
	var zero T
	return zero, false
}
