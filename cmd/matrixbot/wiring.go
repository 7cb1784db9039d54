// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/matrixbot/lib/buildfeed"
	"github.com/bureau-foundation/matrixbot/lib/clock"
	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/config"
	"github.com/bureau-foundation/matrixbot/lib/directory"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/subscription"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// loginError wraps a failed login. M_FORBIDDEN means the homeserver
// rejected the configured credentials.
func loginError(username string, err error) error {
	if messaging.IsMatrixError(err, messaging.ErrCodeForbidden) {
		return fmt.Errorf("logging in as %s: check matrix.username and matrix.password: %w", username, err)
	}
	return fmt.Errorf("logging in as %s: %w", username, err)
}

func newDirectory(cfg *config.Config, logger *slog.Logger) directory.Directory {
	if cfg.Directory.Kind == config.DirectoryLDAP {
		ldapConfig := cfg.Directory.LDAP
		return directory.NewLDAP(directory.LDAPConfig{
			URL:             ldapConfig.URL,
			BindDN:          ldapConfig.BindDN,
			BindPassword:    ldapConfig.BindPassword,
			BaseDN:          ldapConfig.BaseDN,
			GroupFilter:     ldapConfig.GroupFilter,
			MemberAttribute: ldapConfig.MemberAttribute,
			Groups:          ldapConfig.Groups,
			Timeout:         ldapConfig.Timeout,
			Logger:          logger,
		})
	}
	return directory.NewStatic(directory.StaticConfig{
		Groups:     cfg.Directory.Groups,
		GroupsFile: cfg.Directory.GroupsFile,
		Names:      cfg.Directory.Names,
	})
}

// newPlugins builds the configured schedule and feed plugins in
// registration order. A nil clock means the real one.
func newPlugins(cfg *config.Config, clk clock.Clock, logger *slog.Logger) ([]plugin.Plugin, error) {
	var plugins []plugin.Plugin

	for _, scheduled := range []struct {
		name   string
		action command.Action
		rules  []config.RuleConfig
	}{
		{"subscriptions", command.ActionInvite, cfg.Subscriptions},
		{"revocations", command.ActionKick, cfg.Revocations},
	} {
		if len(scheduled.rules) == 0 {
			continue
		}
		extension, err := subscription.New(subscription.Config{
			Name:   scheduled.name,
			Action: scheduled.action,
			Rules:  subscriptionRules(scheduled.rules),
			Domain: cfg.Matrix.Domain,
			Clock:  clk,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, extension)
	}

	if len(cfg.BuildFeed.Builders) > 0 {
		feedConfig := buildFeedConfig(cfg.BuildFeed)
		feedConfig.Clock = clk
		feedConfig.Logger = logger
		feed, err := buildfeed.New(feedConfig)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, feed)
	}
	return plugins, nil
}

func subscriptionRules(rules []config.RuleConfig) []subscription.Rule {
	converted := make([]subscription.Rule, len(rules))
	for index, rule := range rules {
		converted[index] = subscription.Rule{
			Room:     rule.Room,
			Targets:  rule.Targets,
			Schedule: rule.Schedule,
		}
	}
	return converted
}

// buildFeedConfig converts the feed section. Builders are ordered by
// name so the feed polls them in a stable order.
func buildFeedConfig(feed config.BuildFeedConfig) buildfeed.Config {
	converted := buildfeed.Config{
		Period:       feed.Period,
		Rooms:        feed.Rooms,
		OnlyFailures: feed.OnlyFailures,
		BuildsURL:    feed.BuildsURL,
		LastBuildURL: feed.LastBuildURL,
	}
	for _, name := range feed.BuilderNames() {
		builder := feed.Builders[name]
		converted.Builders = append(converted.Builders, buildfeed.Builder{
			Name:         name,
			OnlyFailures: builder.OnlyFailures,
			BuildsURL:    builder.BuildsURL,
			LastBuildURL: builder.LastBuildURL,
		})
	}
	return converted
}
