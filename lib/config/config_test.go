// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Period != 10*time.Second {
		t.Errorf("expected period=10s, got %s", cfg.Period)
	}
	if cfg.SyncTimeout != 30*time.Second {
		t.Errorf("expected sync_timeout=30s, got %s", cfg.SyncTimeout)
	}
	if !cfg.SkipBacklog {
		t.Error("expected skip_backlog=true")
	}
	if cfg.Directory.Kind != DirectoryStatic {
		t.Errorf("expected directory.kind=static, got %s", cfg.Directory.Kind)
	}
	if cfg.BuildFeed.Period != time.Minute {
		t.Errorf("expected buildfeed.period=60s, got %s", cfg.BuildFeed.Period)
	}
}

func TestLoad_RequiresMatrixbotConfig(t *testing.T) {
	t.Setenv(EnvConfig, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when MATRIXBOT_CONFIG not set, got nil")
	}
	expectedMsg := "MATRIXBOT_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithMatrixbotConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "matrixbot.yaml")
	configContent := `
matrix:
  uri: https://matrix.example.org
  username: bot
  password: secret
  domain: example.org
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvConfig, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Matrix.Username != "bot" {
		t.Errorf("expected matrix.username=bot, got %s", cfg.Matrix.Username)
	}
	// Unset fields keep their defaults.
	if cfg.Period != 10*time.Second {
		t.Errorf("expected default period, got %s", cfg.Period)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "matrixbot.yaml")

	// Variables set by the test are restored by t.Setenv; the one only
	// the .env file sets is removed explicitly.
	t.Setenv("MATRIXBOT_TEST_LDAP_PASSWORD", "from-environment")
	t.Cleanup(func() { os.Unsetenv("MATRIXBOT_TEST_PASSWORD") })

	dotenv := "MATRIXBOT_TEST_PASSWORD=from-dotenv\nMATRIXBOT_TEST_LDAP_PASSWORD=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(dotenv), 0600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	configContent := `
period: 5s
sync_timeout: 20s
skip_backlog: false
matrix:
  uri: https://matrix.example.org
  username: bot
  password: ${MATRIXBOT_TEST_PASSWORD}
  domain: example.org
  rooms: ["#general:example.org"]
aliases:
  onboard: invite +eng
subscriptions:
  - room: "#eng"
    targets: "+eng but carol"
    schedule: "*/30 * * * *"
revocations:
  - room: "#eng"
    targets: "+former"
    schedule: "0 * * * *"
directory:
  kind: ldap
  ldap:
    url: ldaps://ldap.example.org
    bind_dn: cn=bot,dc=example,dc=org
    bind_password: ${MATRIXBOT_TEST_LDAP_PASSWORD}
    base_dn: ou=groups,dc=example,dc=org
    groups: [eng, ops]
journal:
  path: ${MATRIXBOT_TEST_STATE:-/var/lib/matrixbot}/journal.db
  retention: 720h
buildfeed:
  period: 2m
  rooms: ["#ci:example.org"]
  builds_url: "https://ci/json/builders/{builder_name}/builds?select=-2"
  last_build_url: "https://ci/builders/{builder_name}/builds/{last_buildjob}"
  builders:
    mac-debug: {only_failures: true}
    linux-release: {}
log: {level: debug, format: json}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	if cfg.Period != 5*time.Second || cfg.SyncTimeout != 20*time.Second || cfg.SkipBacklog {
		t.Errorf("loop settings = %s %s %v", cfg.Period, cfg.SyncTimeout, cfg.SkipBacklog)
	}
	if cfg.Matrix.Password != "from-dotenv" {
		t.Errorf("expected password from .env, got %q", cfg.Matrix.Password)
	}
	if cfg.Directory.LDAP.BindPassword != "from-environment" {
		t.Errorf("expected .env not to override the environment, got %q", cfg.Directory.LDAP.BindPassword)
	}
	if cfg.Journal.Path != "/var/lib/matrixbot/journal.db" {
		t.Errorf("expected default-expanded journal path, got %q", cfg.Journal.Path)
	}
	if cfg.Journal.Retention != 30*24*time.Hour {
		t.Errorf("expected journal retention 720h, got %s", cfg.Journal.Retention)
	}
	if cfg.Aliases["onboard"] != "invite +eng" {
		t.Errorf("aliases = %v", cfg.Aliases)
	}
	if len(cfg.Subscriptions) != 1 || cfg.Subscriptions[0].Targets != "+eng but carol" {
		t.Errorf("subscriptions = %+v", cfg.Subscriptions)
	}
	if len(cfg.Revocations) != 1 || cfg.Revocations[0].Schedule != "0 * * * *" {
		t.Errorf("revocations = %+v", cfg.Revocations)
	}
	if names := cfg.BuildFeed.BuilderNames(); strings.Join(names, ",") != "linux-release,mac-debug" {
		t.Errorf("builder names = %v", names)
	}
	if only := cfg.BuildFeed.Builders["mac-debug"].OnlyFailures; only == nil || !*only {
		t.Errorf("mac-debug only_failures = %v", only)
	}
	if cfg.BuildFeed.Builders["linux-release"].OnlyFailures != nil {
		t.Error("linux-release only_failures should inherit")
	}
	if level, err := cfg.Log.SlogLevel(); err != nil || level != slog.LevelDebug {
		t.Errorf("log level = %v, %v", level, err)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("matrix:\n  homeserver: https://matrix.example.org\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "homeserver") {
		t.Errorf("error %q does not name the unknown key", err)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) = %v", err)
	}
	if cfg.Period != Default().Period {
		t.Errorf("expected defaults, got period %s", cfg.Period)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/matrixbot",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/matrixbot",
		},
		{
			input:    "${MATRIXBOT_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Matrix = MatrixConfig{
		URI:      "https://matrix.example.org",
		Username: "bot",
		Password: "secret",
		Domain:   "example.org",
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "default config lacks matrix settings",
			modify:  func(c *Config) { *c = *Default() },
			wantErr: "matrix.uri is required",
		},
		{
			name:    "uri without scheme",
			modify:  func(c *Config) { c.Matrix.URI = "matrix.example.org" },
			wantErr: "matrix.uri must be an http(s) URL",
		},
		{
			name:    "zero period",
			modify:  func(c *Config) { c.Period = 0 },
			wantErr: "period must be positive",
		},
		{
			name: "bad schedule",
			modify: func(c *Config) {
				c.Subscriptions = []RuleConfig{{Room: "#eng", Targets: "+eng", Schedule: "whenever"}}
			},
			wantErr: "subscriptions[0].schedule",
		},
		{
			name: "revocation without targets",
			modify: func(c *Config) {
				c.Revocations = []RuleConfig{{Room: "#eng", Schedule: "@hourly"}}
			},
			wantErr: "revocations[0].targets is required",
		},
		{
			name:    "unknown directory kind",
			modify:  func(c *Config) { c.Directory.Kind = "nis" },
			wantErr: "directory.kind must be one of",
		},
		{
			name:    "ldap without url",
			modify:  func(c *Config) { c.Directory = DirectoryConfig{Kind: DirectoryLDAP, LDAP: LDAPConfig{BaseDN: "dc=x", Groups: []string{"eng"}}} },
			wantErr: "directory.ldap.url is required",
		},
		{
			name: "builder without templates",
			modify: func(c *Config) {
				c.BuildFeed.Rooms = []string{"#ci"}
				c.BuildFeed.Builders = map[string]BuilderConfig{"linux": {}}
			},
			wantErr: "buildfeed.builders.linux: no builds_url",
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "multi-word alias",
			modify:  func(c *Config) { c.Aliases = map[string]string{"on board": "invite +eng"} },
			wantErr: "must be a single word",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Period = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	for _, want := range []string{"period", "matrix.uri", "matrix.username", "matrix.password", "matrix.domain"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q lacks %q", err, want)
		}
	}
}
