// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func restoreVariables(t *testing.T) {
	commit, dirty, buildTime := GitCommit, GitDirty, BuildTime
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime = commit, dirty, buildTime
	})
}

func TestInfo(t *testing.T) {
	restoreVariables(t)
	GitCommit = "abc1234"
	GitDirty = "true"
	BuildTime = "2026-10-19T09:00:00Z"

	want := Version + " (abc1234-dirty, 2026-10-19T09:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if full := Full(); !strings.HasPrefix(full, want+"\n  Go: ") {
		t.Errorf("Full() = %q", full)
	}
	if Commit() != "abc1234" {
		t.Errorf("Commit() = %q", Commit())
	}
}

func TestApplyBuildSettings(t *testing.T) {
	restoreVariables(t)
	GitCommit, GitDirty, BuildTime = "unknown", "false", "unknown"

	applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef0123456789abcdef01234567"},
		{Key: "vcs.time", Value: "2026-10-18T12:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})

	if GitCommit != "0123456" {
		t.Errorf("GitCommit = %q, want the abbreviated revision", GitCommit)
	}
	if GitDirty != "true" {
		t.Errorf("GitDirty = %q", GitDirty)
	}
	if BuildTime != "2026-10-18T12:00:00Z" {
		t.Errorf("BuildTime = %q", BuildTime)
	}
}
