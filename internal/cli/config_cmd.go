// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/noldarim/phone-a-friend/internal/config"
	"github.com/noldarim/phone-a-friend/internal/logger"
)

func (a *App) configCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("config requires a subcommand: init, show, get, set, path")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "init":
		return a.configInit(rest)
	case "show":
		return a.configShow(rest)
	case "get":
		return a.configGet(rest)
	case "set":
		return a.configSet(rest)
	case "path":
		return a.configPath(rest)
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

func (a *App) configInit(args []string) error {
	var force bool
	fs := a.newFlagSet("config init")
	fs.BoolVar(&force, "force", false, "Overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejectExtraArgs(fs); err != nil {
		return err
	}

	path := a.ConfigPaths("").User
	if err := config.Init(path, force); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Wrote default config to %s\n", path)
	return nil
}

// configShow prints the effective configuration, with every layer applied,
// as YAML.
func (a *App) configShow(args []string) error {
	fs := a.newFlagSet("config show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejectExtraArgs(fs); err != nil {
		return err
	}

	cfg, _, err := a.loadConfig(a.workDir())
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg.Settings())
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	_, err = a.Stdout.Write(out)
	return err
}

func (a *App) configGet(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s config get <key>", appName)
	}
	key := args[0]

	cfg, _, err := a.loadConfig(a.workDir())
	if err != nil {
		return err
	}

	value, ok := cfg.Lookup(key)
	if !ok {
		return fmt.Errorf("config key not found: %s", key)
	}

	if nested, isMap := value.(map[string]any); isMap {
		out, err := yaml.Marshal(nested)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", key, err)
		}
		_, err = a.Stdout.Write(out)
		return err
	}
	fmt.Fprintln(a.Stdout, value)
	return nil
}

func (a *App) configSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s config set <key> <value>", appName)
	}
	key, value := args[0], args[1]

	path := a.ConfigPaths("").User
	if err := config.Set(path, key, value); err != nil {
		return err
	}
	l := logger.GetConfigLogger()
	l.Debug().Str("path", path).Str("key", key).Msg("Config value set")
	fmt.Fprintf(a.Stdout, "Set %s = %v in %s\n", key, config.ParseValue(value), path)
	return nil
}

func (a *App) configPath(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: %s config path", appName)
	}
	fmt.Fprintln(a.Stdout, a.ConfigPaths("").User)
	return nil
}
