// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	appDir         = "phone-a-friend"
	userConfigName = "config.toml"
	repoConfigName = ".phone-a-friend.toml"
	envPrefix      = "PHONE_A_FRIEND"
)

// AppConfig holds all application configuration.
// It is instantiated by Load() and passed to the components that need it.
type AppConfig struct {
	Defaults DefaultsConfig           `mapstructure:"defaults"`
	Backends map[string]BackendConfig `mapstructure:"backends"`
	Log      LogConfig                `mapstructure:"log"`

	v *viper.Viper
}

// DefaultsConfig holds the relay defaults applied when a flag is not given.
type DefaultsConfig struct {
	Backend     string `mapstructure:"backend"`
	Sandbox     string `mapstructure:"sandbox"`
	Timeout     int    `mapstructure:"timeout"` // seconds
	IncludeDiff bool   `mapstructure:"include_diff"`
}

// BackendConfig holds per-backend overrides.
type BackendConfig struct {
	Model string `mapstructure:"model"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	Output   []LogOutputConfig `mapstructure:"output"`
	Levels   map[string]string `mapstructure:"levels"`
	Context  LogContextConfig  `mapstructure:"context"`
	Sampling LogSamplingConfig `mapstructure:"sampling"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file" or "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`
	Rotate  LogRotateConfig `mapstructure:"rotate"`
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller    bool `mapstructure:"include_caller"`
	IncludeTimestamp bool `mapstructure:"include_timestamp"`
}

// LogSamplingConfig defines log sampling settings
type LogSamplingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Initial    uint32        `mapstructure:"initial"`
	Thereafter uint32        `mapstructure:"thereafter"`
	Tick       time.Duration `mapstructure:"tick"`
}

// Paths locates the two configuration layers. Repo is empty when no
// repository root is known.
type Paths struct {
	User string
	Repo string
}

// ResolvePaths returns the config file locations for repoRoot using the
// process environment.
func ResolvePaths(repoRoot string) Paths {
	home, _ := os.UserHomeDir()
	return PathsFor(repoRoot, os.Getenv("XDG_CONFIG_HOME"), home)
}

// PathsFor computes config file locations without consulting the environment.
func PathsFor(repoRoot, xdgConfigHome, homeDir string) Paths {
	base := xdgConfigHome
	if base == "" {
		base = filepath.Join(homeDir, ".config")
	}
	p := Paths{User: filepath.Join(base, appDir, userConfigName)}
	if repoRoot != "" {
		p.Repo = filepath.Join(repoRoot, repoConfigName)
	}
	return p
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"defaults.backend":      envPrefix + "_BACKEND",
	"defaults.sandbox":      envPrefix + "_SANDBOX",
	"defaults.timeout":      envPrefix + "_TIMEOUT",
	"defaults.include_diff": envPrefix + "_INCLUDE_DIFF",
	"log.level":             envPrefix + "_LOG_LEVEL",
	"log.format":            envPrefix + "_LOG_FORMAT",
}

// Load builds an AppConfig from defaults, the user config file, the repo
// config file and environment variables, in increasing order of precedence.
// Missing files are not an error; malformed ones are.
func Load(paths Paths) (*AppConfig, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigType("toml")

	if paths.User != "" && fileExists(paths.User) {
		v.SetConfigFile(paths.User)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", paths.User, err)
		}
	}
	if paths.Repo != "" && fileExists(paths.Repo) {
		v.SetConfigFile(paths.Repo)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", paths.Repo, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Values found in files or env overwrite the defaults already in cfg.
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.v = v
	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values.
func defaultConfig() AppConfig {
	return AppConfig{
		Defaults: DefaultsConfig{
			Backend:     "codex",
			Sandbox:     "read-only",
			Timeout:     600,
			IncludeDiff: false,
		},
		Backends: map[string]BackendConfig{},
		Log: LogConfig{
			Level:  "WARN",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "console",
					Enabled: true,
				},
				{
					Type:    "file",
					Enabled: false,
					Path:    "~/.local/state/phone-a-friend/phone-a-friend.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  10,
						MaxBackups: 3,
						MaxAgeDays: 14,
						Compress:   true,
					},
				},
			},
			Levels: map[string]string{},
			Context: LogContextConfig{
				IncludeTimestamp: true,
			},
			Sampling: LogSamplingConfig{
				Initial:    100,
				Thereafter: 100,
				Tick:       time.Second,
			},
		},
	}
}

// ModelFor returns the configured model override for a backend, if any.
func (c *AppConfig) ModelFor(backend string) string {
	if c.Backends == nil {
		return ""
	}
	return c.Backends[backend].Model
}

// Lookup returns the effective value of a dotted key (e.g. "defaults.timeout").
func (c *AppConfig) Lookup(key string) (any, bool) {
	if c.v != nil && c.v.IsSet(key) {
		return c.v.Get(key), true
	}
	value, ok := lookupPath(c.Settings(), strings.Split(key, "."))
	return value, ok
}

// Settings returns the effective configuration as a nested map.
func (c *AppConfig) Settings() map[string]any {
	backends := make(map[string]any, len(c.Backends))
	for name, b := range c.Backends {
		backends[name] = map[string]any{"model": b.Model}
	}
	return map[string]any{
		"defaults": map[string]any{
			"backend":      c.Defaults.Backend,
			"sandbox":      c.Defaults.Sandbox,
			"timeout":      c.Defaults.Timeout,
			"include_diff": c.Defaults.IncludeDiff,
		},
		"backends": backends,
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	}
}

func lookupPath(m map[string]any, parts []string) (any, bool) {
	var current any = m
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// expandPaths expands ~ and environment variables in log file paths
func (c *AppConfig) expandPaths() {
	for i := range c.Log.Output {
		if c.Log.Output[i].Path != "" {
			c.Log.Output[i].Path = expandPath(c.Log.Output[i].Path)
		}
	}
}

// expandPath expands ~ to home directory and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	if c.Defaults.Backend == "" {
		return errors.New("defaults.backend is required")
	}

	validLogLevels := map[string]bool{
		"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "WARNING": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'console' or 'json', got: %s", c.Log.Format)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
