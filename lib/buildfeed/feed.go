// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildfeed posts buildbot results into chat rooms.
//
// Once per period the plugin fetches each builder's builds document,
// reads the last completed build, and posts an m.notice entry to every
// feed room when the build number is new. Builders configured for
// failures only stay quiet about passing builds.
package buildfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bureau-foundation/matrixbot/lib/clock"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
)

// DefaultPeriod is how often the feed polls when Config.Period is zero.
const DefaultPeriod = 60 * time.Second

// defaultRequestTimeout bounds one builds fetch.
const defaultRequestTimeout = 20 * time.Second

// noticeType is the message type feed entries are posted with.
const noticeType = "m.notice"

// Builder is one feed source. Empty URL templates inherit the feed's.
type Builder struct {
	Name string

	// OnlyFailures overrides Config.OnlyFailures when non-nil.
	OnlyFailures *bool

	BuildsURL    string
	LastBuildURL string
}

// Config configures a Plugin.
type Config struct {
	Period time.Duration

	// Rooms are the room aliases or IDs entries are posted to.
	Rooms []string

	OnlyFailures bool

	// BuildsURL and LastBuildURL are templates with {builder_name}
	// and (for LastBuildURL) {last_buildjob} placeholders.
	BuildsURL    string
	LastBuildURL string

	Builders []Builder

	HTTPClient *http.Client
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Plugin is the build feed.
type Plugin struct {
	gate     *plugin.Gate
	rooms    []string
	builders []*builderState
	client   *http.Client
	logger   *slog.Logger
}

type builderState struct {
	name         string
	onlyFailures bool
	buildsURL    string
	lastBuildURL string

	// lastNumber is the newest build seen, or -1 before the first
	// successful fetch.
	lastNumber int64
	lastFailed bool
}

// New validates the configuration and creates the plugin.
func New(config Config) (*Plugin, error) {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	period := config.Period
	if period <= 0 {
		period = DefaultPeriod
	}

	feed := &Plugin{
		gate:   plugin.NewGate(clk, period),
		rooms:  append([]string(nil), config.Rooms...),
		client: client,
		logger: logger.With("component", "buildfeed"),
	}
	var errs []error
	for _, builder := range config.Builders {
		state := &builderState{
			name:         builder.Name,
			onlyFailures: config.OnlyFailures,
			buildsURL:    config.BuildsURL,
			lastBuildURL: config.LastBuildURL,
			lastNumber:   -1,
		}
		if builder.OnlyFailures != nil {
			state.onlyFailures = *builder.OnlyFailures
		}
		if builder.BuildsURL != "" {
			state.buildsURL = builder.BuildsURL
		}
		if builder.LastBuildURL != "" {
			state.lastBuildURL = builder.LastBuildURL
		}
		switch {
		case state.name == "":
			errs = append(errs, errors.New("builder name is empty"))
		case state.buildsURL == "":
			errs = append(errs, fmt.Errorf("builder %s: builds URL is empty", state.name))
		case state.lastBuildURL == "":
			errs = append(errs, fmt.Errorf("builder %s: last build URL is empty", state.name))
		}
		feed.builders = append(feed.builders, state)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("buildfeed: %w", err)
	}
	return feed, nil
}

func (p *Plugin) Name() string { return "buildfeed" }

func (p *Plugin) Help() string { return "" }

func (p *Plugin) HandleCommand(context.Context, plugin.Handler, plugin.Message) (bool, error) {
	return false, nil
}

// Tick polls every builder once the period has elapsed. A builder that
// fails to fetch keeps its state and is retried next period.
func (p *Plugin) Tick(ctx context.Context, handler plugin.Handler) error {
	if !p.gate.Ready() {
		return nil
	}
	var errs []error
	for _, builder := range p.builders {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.poll(ctx, handler, builder); err != nil {
			errs = append(errs, fmt.Errorf("builder %s: %w", builder.name, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Plugin) poll(ctx context.Context, handler plugin.Handler, builder *builderState) error {
	build, err := fetchBuild(ctx, p.client, expandURL(builder.buildsURL, builder.name, 0))
	if err != nil {
		return err
	}
	if build.Number <= builder.lastNumber {
		return nil
	}
	builder.lastNumber = build.Number
	builder.lastFailed = build.Failed

	if builder.onlyFailures && !build.Failed {
		p.logger.Debug("skipping passing build", "builder", builder.name, "number", build.Number)
		return nil
	}
	entry, err := FormatEntry(builder.name, expandURL(builder.lastBuildURL, builder.name, build.Number), build)
	if err != nil {
		return err
	}
	p.logger.Info("posting build result",
		"builder", builder.name,
		"number", build.Number,
		"failed", build.Failed,
		"comment", build.Comment,
	)
	for _, room := range p.rooms {
		roomID, ok := handler.ResolveRoom(ctx, room)
		if !ok {
			p.logger.Error("feed room unavailable", "room", room)
			continue
		}
		if !handler.SendHTML(ctx, roomID, entry, noticeType) {
			p.logger.Error("feed entry not delivered", "room_id", roomID, "builder", builder.name)
		}
	}
	return nil
}

// observedBuild is a builder's last observed build.
type observedBuild struct {
	number int64
	failed bool
}

// lastBuild returns the last observed build for the named builder. ok
// is false when the builder is unknown or has not been fetched yet.
func (p *Plugin) lastBuild(name string) (build observedBuild, ok bool) {
	for _, builder := range p.builders {
		if builder.name == name && builder.lastNumber >= 0 {
			return observedBuild{number: builder.lastNumber, failed: builder.lastFailed}, true
		}
	}
	return observedBuild{}, false
}

var _ plugin.Plugin = (*Plugin)(nil)
