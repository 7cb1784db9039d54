// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/matrixbot/lib/clock"
	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/directory"
	"github.com/bureau-foundation/matrixbot/lib/invoke"
	"github.com/bureau-foundation/matrixbot/lib/journal"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/lib/rooms"
	"github.com/bureau-foundation/matrixbot/messaging"
)

const (
	DefaultPeriod      = 10 * time.Second
	DefaultSyncTimeout = 30 * time.Second
)

// Retry budgets per remote call.
const (
	commandAttempts     = 3
	joinAttempts        = 3
	startupJoinAttempts = 1
	sendAttempts        = 3
	memberListAttempts  = 3
	roomNameAttempts    = 1
)

// Recorder receives every membership action the bot simulates or
// attempts. *journal.Store implements it.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Config configures a Bot. Session and Name are required.
type Config struct {
	Session messaging.Session

	// Name is the bot's username, used as the command prefix.
	Name string

	// Domain is the homeserver domain. Bare identities are completed
	// with it and only invitations from it are accepted. Defaults to
	// the session user's server.
	Domain string

	// Period is the sleep between sync cycles.
	Period time.Duration

	// SyncTimeout is the server-side long-poll wait.
	SyncTimeout time.Duration

	// SkipBacklog suppresses dispatch for the first successful sync,
	// so a restart does not replay commands from the initial state.
	SkipBacklog bool

	// Rooms are joined by JoinConfiguredRooms.
	Rooms []string

	Directory directory.Directory
	Aliases   map[string]string
	Scheduler *plugin.Scheduler

	// Recorder may be nil.
	Recorder Recorder

	Clock  clock.Clock
	Logger *slog.Logger

	// RetryDelay overrides invoke.DefaultDelay.
	RetryDelay time.Duration
}

// Bot owns the session state and runs the sync loop. All of its
// methods run on the loop's goroutine; nothing in Bot is safe for
// concurrent use.
type Bot struct {
	session     messaging.Session
	self        ref.UserID
	domain      string
	period      time.Duration
	syncTimeout time.Duration
	skipBacklog bool
	rooms       []string

	invoker     *invoke.Invoker
	directory   *rooms.Directory
	resolver    *rooms.Resolver
	interpreter *command.Interpreter
	scheduler   *plugin.Scheduler
	recorder    Recorder

	name   string
	clock  clock.Clock
	logger *slog.Logger

	cursor string
	joined map[string]ref.RoomID
}

// New creates a Bot.
func New(config Config) (*Bot, error) {
	if config.Session == nil {
		return nil, errors.New("bot: Session is required")
	}
	if config.Name == "" {
		return nil, errors.New("bot: Name is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	self := config.Session.UserID()
	domain := config.Domain
	if domain == "" {
		domain = self.Server()
	}
	period := config.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	syncTimeout := config.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = DefaultSyncTimeout
	}
	scheduler := config.Scheduler
	if scheduler == nil {
		scheduler = plugin.NewScheduler(logger)
	}

	invoker := invoke.New(invoke.Config{
		Session: config.Session,
		Clock:   clk,
		Logger:  logger,
		Delay:   config.RetryDelay,
	})
	roomDirectory := rooms.NewDirectory(logger)

	return &Bot{
		session:     config.Session,
		self:        self,
		domain:      domain,
		period:      period,
		syncTimeout: syncTimeout,
		skipBacklog: config.SkipBacklog,
		rooms:       config.Rooms,
		invoker:     invoker,
		directory:   roomDirectory,
		resolver:    rooms.NewResolver(invoker, roomDirectory, self, logger),
		interpreter: command.NewInterpreter(command.Config{
			Name:      config.Name,
			Server:    domain,
			Directory: config.Directory,
			Aliases:   config.Aliases,
			Logger:    logger,
		}),
		scheduler: scheduler,
		recorder:  config.Recorder,
		name:      config.Name,
		clock:     clk,
		logger:    logger.With("component", "bot"),
		joined:    make(map[string]ref.RoomID),
	}, nil
}

// Cursor returns the continuation token of the last completed sync.
func (b *Bot) Cursor() string { return b.cursor }

// Rooms returns the room directory.
func (b *Bot) Rooms() *rooms.Directory { return b.directory }

// Run drives the sync loop until ctx is cancelled. Each iteration
// syncs, dispatches, ticks the plugins, then sleeps for the period. A
// failed sync is logged and retried on the next iteration with the
// same cursor. Run returns nil on cancellation.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("sync loop starting",
		"user_id", b.self,
		"period", b.period,
		"skip_backlog", b.skipBacklog,
	)
	suppress := b.skipBacklog
	for {
		if ctx.Err() != nil {
			break
		}
		if err := b.SyncOnce(ctx, suppress); err != nil {
			if ctx.Err() != nil {
				break
			}
			b.logger.Error("sync failed, retrying", "error", err, "since", b.cursor)
		} else {
			suppress = false
		}

		b.scheduler.Tick(ctx, b)

		if err := clock.SleepContext(ctx, b.clock, b.period); err != nil {
			break
		}
	}
	b.logger.Info("sync loop stopped", "since", b.cursor)
	return nil
}

// SyncOnce performs one fetch, ingests the response, and dispatches
// it unless suppress is set. The cursor advances whenever the fetch
// succeeds, before dispatch runs, so events are never replayed.
func (b *Bot) SyncOnce(ctx context.Context, suppress bool) error {
	response, err := b.session.Sync(ctx, messaging.SyncOptions{
		Since:      b.cursor,
		Timeout:    int(b.syncTimeout / time.Millisecond),
		SetTimeout: true,
		FullState:  true,
	})
	if err != nil {
		return fmt.Errorf("sync since %q: %w", b.cursor, err)
	}

	b.directory.Ingest(response)
	b.cursor = response.NextBatch
	b.logger.Debug("sync completed",
		"next_batch", b.cursor,
		"rooms", len(b.directory.Rooms()),
		"suppressed", suppress,
	)

	if !suppress {
		b.dispatch(ctx, response)
	}
	return nil
}

// JoinConfiguredRooms joins every configured room once. Failures are
// logged and the bot carries on.
func (b *Bot) JoinConfiguredRooms(ctx context.Context) {
	for _, target := range b.rooms {
		roomID, ok := invoke.Do(ctx, b.invoker, invoke.JoinRoom{Target: target}, startupJoinAttempts)
		if !ok {
			b.logger.Error("could not join configured room", "room", target)
			continue
		}
		b.joined[target] = roomID
		b.logger.Info("joined configured room", "room", target, "room_id", roomID)
	}
}
