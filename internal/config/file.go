// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

var integerValue = regexp.MustCompile(`^\d+$`)

// Init writes the default configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	v := newFileViper()
	seedDefaults(v)

	return writeFile(v, path)
}

// Set stores a single dotted key in the config file at path, creating the
// file from defaults when it does not exist. A malformed existing file is an
// error rather than being silently replaced.
func Set(path, key, rawValue string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return fmt.Errorf("invalid config key: %q", key)
	}

	v := newFileViper()
	if fileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		seedDefaults(v)
	}

	v.Set(key, ParseValue(rawValue))
	return writeFile(v, path)
}

// ParseValue infers a scalar type for a raw command-line value: booleans,
// non-negative integers, otherwise the string itself.
func ParseValue(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if integerValue.MatchString(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return raw
}

func seedDefaults(v *viper.Viper) {
	d := defaultConfig().Defaults
	v.Set("defaults.backend", d.Backend)
	v.Set("defaults.sandbox", d.Sandbox)
	v.Set("defaults.timeout", d.Timeout)
	v.Set("defaults.include_diff", d.IncludeDiff)
}

func newFileViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	return v
}

func writeFile(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
