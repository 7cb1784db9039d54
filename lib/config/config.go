// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/matrixbot/lib/cron"
)

// EnvConfig names the environment variable Load reads the config path
// from.
const EnvConfig = "MATRIXBOT_CONFIG"

// Directory kinds.
const (
	DirectoryStatic = "static"
	DirectoryLDAP   = "ldap"
)

// Config is the bot's configuration.
type Config struct {
	// Period is the sleep between sync cycles.
	Period time.Duration `yaml:"period"`

	// SyncTimeout is the server-side long-poll wait.
	SyncTimeout time.Duration `yaml:"sync_timeout"`

	// SkipBacklog makes the first sync cycle ingest without
	// dispatching.
	SkipBacklog bool `yaml:"skip_backlog"`

	Matrix MatrixConfig `yaml:"matrix"`

	// Aliases maps a command keyword to its expansion
	// ("onboard" -> "invite +eng").
	Aliases map[string]string `yaml:"aliases"`

	Subscriptions []RuleConfig `yaml:"subscriptions"`
	Revocations   []RuleConfig `yaml:"revocations"`

	Directory DirectoryConfig `yaml:"directory"`
	Journal   JournalConfig   `yaml:"journal"`
	BuildFeed BuildFeedConfig `yaml:"buildfeed"`
	Log       LogConfig       `yaml:"log"`
}

// MatrixConfig configures the homeserver session.
type MatrixConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`

	// Password is usually ${MATRIXBOT_PASSWORD}, supplied through the
	// environment or a .env file.
	Password string `yaml:"password"`

	Domain string `yaml:"domain"`

	// Rooms are joined at startup.
	Rooms []string `yaml:"rooms"`
}

// RuleConfig is one scheduled subscription or revocation.
type RuleConfig struct {
	// Room is a room ID or alias. A local alias ("#eng") is completed
	// with matrix.domain.
	Room     string `yaml:"room"`
	Targets  string `yaml:"targets"`
	Schedule string `yaml:"schedule"`
}

// DirectoryConfig selects and configures the group directory.
type DirectoryConfig struct {
	Kind string `yaml:"kind"`

	// GroupsFile is a JSONC file of group name to members (static).
	GroupsFile string `yaml:"groups_file"`

	// Groups are inline group definitions (static).
	Groups map[string][]string `yaml:"groups"`

	// Names is the group list list_groups reports (static). Empty
	// means every defined group.
	Names []string `yaml:"names"`

	LDAP LDAPConfig `yaml:"ldap"`
}

// LDAPConfig configures the LDAP directory.
type LDAPConfig struct {
	URL             string        `yaml:"url"`
	BindDN          string        `yaml:"bind_dn"`
	BindPassword    string        `yaml:"bind_password"`
	BaseDN          string        `yaml:"base_dn"`
	GroupFilter     string        `yaml:"group_filter"`
	MemberAttribute string        `yaml:"member_attribute"`
	Groups          []string      `yaml:"groups"`
	Timeout         time.Duration `yaml:"timeout"`
}

// JournalConfig configures the action journal.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `yaml:"path"`

	// Retention drops entries older than this at startup. Zero keeps
	// everything.
	Retention time.Duration `yaml:"retention"`
}

// BuildFeedConfig configures the build feed plugin.
type BuildFeedConfig struct {
	Period       time.Duration            `yaml:"period"`
	Rooms        []string                 `yaml:"rooms"`
	OnlyFailures bool                     `yaml:"only_failures"`
	BuildsURL    string                   `yaml:"builds_url"`
	LastBuildURL string                   `yaml:"last_build_url"`
	Builders     map[string]BuilderConfig `yaml:"builders"`
}

// BuilderConfig overrides feed settings for one builder.
type BuilderConfig struct {
	OnlyFailures *bool  `yaml:"only_failures"`
	BuildsURL    string `yaml:"builds_url"`
	LastBuildURL string `yaml:"last_build_url"`
}

// BuilderNames returns the configured builders in lexical order.
func (b BuildFeedConfig) BuilderNames() []string {
	names := make([]string, 0, len(b.Builders))
	for name := range b.Builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LogConfig configures the default log handler. Command-line flags
// override it.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration values used for fields the file
// leaves unset.
func Default() *Config {
	return &Config{
		Period:      10 * time.Second,
		SyncTimeout: 30 * time.Second,
		SkipBacklog: true,
		Directory: DirectoryConfig{
			Kind: DirectoryStatic,
		},
		BuildFeed: BuildFeedConfig{
			Period: 60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the file named by MATRIXBOT_CONFIG.
// There is no discovery: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your matrixbot.yaml config file, or use --config flag", EnvConfig)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path. A .env file next to the
// config file is loaded into the environment first, without overriding
// variables that are already set, so secrets can stay out of the YAML.
func LoadFile(path string) (*Config, error) {
	if err := LoadEnvFiles(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and expands
// variables. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// LoadEnvFiles loads each existing dotenv file into the environment.
// Missing files are skipped and variables already set win.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		for key, value := range values {
			if _, set := os.LookupEnv(key); set {
				continue
			}
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("loading %s: setting %s: %w", path, key, err)
			}
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in secrets and
// file paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Matrix.Password = expandVars(c.Matrix.Password, vars)
	c.Directory.LDAP.BindPassword = expandVars(c.Directory.LDAP.BindPassword, vars)
	c.Directory.GroupsFile = expandVars(c.Directory.GroupsFile, vars)
	c.Journal.Path = expandVars(c.Journal.Path, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Period <= 0 {
		errs = append(errs, fmt.Errorf("period must be positive, got %s", c.Period))
	}
	if c.SyncTimeout <= 0 {
		errs = append(errs, fmt.Errorf("sync_timeout must be positive, got %s", c.SyncTimeout))
	}

	if c.Matrix.URI == "" {
		errs = append(errs, errors.New("matrix.uri is required"))
	} else if parsed, err := url.Parse(c.Matrix.URI); err != nil {
		errs = append(errs, fmt.Errorf("matrix.uri: %w", err))
	} else if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("matrix.uri must be an http(s) URL, got %q", c.Matrix.URI))
	}
	if c.Matrix.Username == "" {
		errs = append(errs, errors.New("matrix.username is required"))
	}
	if c.Matrix.Password == "" {
		errs = append(errs, errors.New("matrix.password is required"))
	}
	if c.Matrix.Domain == "" {
		errs = append(errs, errors.New("matrix.domain is required"))
	}

	for keyword, expansion := range c.Aliases {
		if strings.ContainsAny(keyword, " \t\n") || keyword == "" {
			errs = append(errs, fmt.Errorf("aliases: keyword %q must be a single word", keyword))
		}
		if strings.TrimSpace(expansion) == "" {
			errs = append(errs, fmt.Errorf("aliases.%s: expansion is empty", keyword))
		}
	}

	if c.Journal.Retention < 0 {
		errs = append(errs, fmt.Errorf("journal.retention must not be negative, got %s", c.Journal.Retention))
	}

	errs = append(errs, validateRules("subscriptions", c.Subscriptions)...)
	errs = append(errs, validateRules("revocations", c.Revocations)...)

	switch c.Directory.Kind {
	case DirectoryStatic:
	case DirectoryLDAP:
		ldapConfig := c.Directory.LDAP
		if ldapConfig.URL == "" {
			errs = append(errs, errors.New("directory.ldap.url is required"))
		}
		if ldapConfig.BaseDN == "" {
			errs = append(errs, errors.New("directory.ldap.base_dn is required"))
		}
		if len(ldapConfig.Groups) == 0 {
			errs = append(errs, errors.New("directory.ldap.groups must list at least one group"))
		}
		if ldapConfig.GroupFilter != "" && strings.Count(ldapConfig.GroupFilter, "%s") != 1 {
			errs = append(errs, fmt.Errorf("directory.ldap.group_filter must contain exactly one %%s, got %q", ldapConfig.GroupFilter))
		}
	default:
		errs = append(errs, fmt.Errorf("directory.kind must be one of: %v", []string{DirectoryStatic, DirectoryLDAP}))
	}

	if feed := c.BuildFeed; len(feed.Builders) > 0 {
		if feed.Period <= 0 {
			errs = append(errs, fmt.Errorf("buildfeed.period must be positive, got %s", feed.Period))
		}
		if len(feed.Rooms) == 0 {
			errs = append(errs, errors.New("buildfeed.rooms must list at least one room"))
		}
		for _, name := range feed.BuilderNames() {
			builder := feed.Builders[name]
			if feed.BuildsURL == "" && builder.BuildsURL == "" {
				errs = append(errs, fmt.Errorf("buildfeed.builders.%s: no builds_url", name))
			}
			if feed.LastBuildURL == "" && builder.LastBuildURL == "" {
				errs = append(errs, fmt.Errorf("buildfeed.builders.%s: no last_build_url", name))
			}
		}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: [text json], got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func validateRules(section string, rules []RuleConfig) []error {
	var errs []error
	for index, rule := range rules {
		if rule.Room == "" {
			errs = append(errs, fmt.Errorf("%s[%d].room is required", section, index))
		}
		if strings.TrimSpace(rule.Targets) == "" {
			errs = append(errs, fmt.Errorf("%s[%d].targets is required", section, index))
		}
		if _, err := cron.Parse(rule.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d].schedule: %w", section, index, err))
		}
	}
	return errs
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
