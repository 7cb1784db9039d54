// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixbot/lib/bot"
	"github.com/bureau-foundation/matrixbot/lib/config"
	"github.com/bureau-foundation/matrixbot/lib/journal"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/process"
	"github.com/bureau-foundation/matrixbot/lib/version"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// syncSlack is added to the long-poll timeout to get the HTTP client
// timeout, so a healthy /sync never trips it.
const syncSlack = 30 * time.Second

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		logLevel    string
		logFormat   string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("matrixbot", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML config file (default: $"+config.EnvConfig+")")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log.level)")
	flagSet.StringVar(&logFormat, "log-format", "", "log format: text or json (overrides log.format)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		fmt.Printf("matrixbot %s\n", version.Full())
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	logger, err := process.NewLogger(os.Stderr, level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger.Info("matrixbot starting", "version", version.Info(), "homeserver", cfg.Matrix.URI)

	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	return serve(ctx, cfg, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// serve logs in, wires the plugins and runs the sync loop until ctx is
// cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.URI,
		HTTPClient:    &http.Client{Timeout: cfg.SyncTimeout + syncSlack},
		Logger:        logger.With("component", "messaging"),
	})
	if err != nil {
		return err
	}
	session, err := client.Login(ctx, cfg.Matrix.Username, cfg.Matrix.Password)
	if err != nil {
		return loginError(cfg.Matrix.Username, err)
	}
	defer session.CloseIdleConnections()
	logger.Info("logged in", "user_id", session.UserID(), "device_id", session.DeviceID())

	var recorder bot.Recorder
	scheduler := plugin.NewScheduler(logger)
	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if retention := cfg.Journal.Retention; retention > 0 {
			removed, err := store.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				return fmt.Errorf("pruning journal: %w", err)
			}
			logger.Info("journal pruned", "removed", removed, "retention", retention)
		}
		recorder = store
		scheduler.Register(journal.NewHistory(store, cfg.Matrix.Username))
	}
	plugins, err := newPlugins(cfg, nil, logger)
	if err != nil {
		return err
	}
	for _, extension := range plugins {
		scheduler.Register(extension)
	}

	matrixBot, err := bot.New(bot.Config{
		Session:     session,
		Name:        cfg.Matrix.Username,
		Domain:      cfg.Matrix.Domain,
		Period:      cfg.Period,
		SyncTimeout: cfg.SyncTimeout,
		SkipBacklog: cfg.SkipBacklog,
		Rooms:       cfg.Matrix.Rooms,
		Directory:   newDirectory(cfg, logger),
		Aliases:     cfg.Aliases,
		Scheduler:   scheduler,
		Recorder:    recorder,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	matrixBot.JoinConfiguredRooms(ctx)
	if err := matrixBot.Run(ctx); err != nil {
		return err
	}
	logger.Info("matrixbot stopped")
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `matrixbot: Matrix membership bot.

Logs in to the configured homeserver and answers commands addressed to
it by name ("bot: invite +eng but alice"). The config file is read
from --config or, when the flag is absent, $%s.

Usage:
  matrixbot [flags]

Flags:
%s`, config.EnvConfig, flagSet.FlagUsages())
}
