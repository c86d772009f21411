// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the phone-a-friend command surface.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/noldarim/phone-a-friend/internal/config"
	"github.com/noldarim/phone-a-friend/internal/installer"
	"github.com/noldarim/phone-a-friend/internal/logger"
	"github.com/noldarim/phone-a-friend/internal/relay"
)

const appName = "phone-a-friend"

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/noldarim/phone-a-friend/internal/cli.Version=...".
var Version = "0.4.0"

// ExitError asks main to exit with Code. Err, when set, is printed first.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Relayer is the part of relay.Relayer the relay command needs.
type Relayer interface {
	Relay(ctx context.Context, req relay.Request) (string, error)
}

// App holds the collaborators of every subcommand. Tests swap them out.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	Getwd       func() (string, error)
	ConfigPaths func(repoRoot string) config.Paths
	NewRelayer  func(depth int) Relayer
	Depth       func() int
	Installer   *installer.Installer
	ClaudeHome  string // empty means ~/.claude
}

// NewApp returns an App wired to the real process environment.
func NewApp() *App {
	return &App{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getwd:       os.Getwd,
		ConfigPaths: config.ResolvePaths,
		NewRelayer:  func(depth int) Relayer { return relay.New(depth) },
		Depth:       relay.DepthFromEnv,
		Installer:   installer.New(),
	}
}

// Execute runs the CLI application with the process arguments. SIGINT and
// SIGTERM cancel the running command, which kills any backend process.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer logger.CloseGlobal()

	return NewApp().Run(ctx, os.Args[1:])
}

// Run dispatches args to a subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	args = normalizeArgs(args)
	if len(args) == 0 {
		a.printUsage(a.Stdout)
		return nil
	}

	command, rest := args[0], args[1:]

	var err error
	switch command {
	case "relay":
		err = a.relayCommand(ctx, rest)
	case "install":
		err = a.installCommand(ctx, rest)
	case "update":
		err = a.updateCommand(ctx, rest)
	case "uninstall":
		err = a.uninstallCommand(rest)
	case "doctor":
		err = a.doctorCommand(rest)
	case "config":
		err = a.configCommand(rest)
	case "version", "--version":
		fmt.Fprintf(a.Stdout, "%s %s\n", appName, Version)
	case "help", "-h", "--help":
		a.printUsage(a.Stdout)
	default:
		a.printUsage(a.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}

	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// normalizeArgs keeps the historical form where relay flags are given
// without a subcommand.
func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	switch first := args[0]; first {
	case "relay", "install", "update", "uninstall", "-h", "--help", "--version":
		return args
	default:
		if strings.HasPrefix(first, "-") {
			return append([]string{"relay"}, args...)
		}
		return args
	}
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	// Parse errors are returned and printed once by the caller; only usage
	// goes to stderr here.
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		fmt.Fprintf(a.Stderr, "Usage of %s %s:\n", appName, name)
		fs.SetOutput(a.Stderr)
		fs.PrintDefaults()
		fs.SetOutput(io.Discard)
	}
	return fs
}

// setFlags returns the names of flags given explicitly on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func rejectExtraArgs(fs *flag.FlagSet) error {
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return nil
}

func (a *App) workDir() string {
	if a.Getwd != nil {
		if wd, err := a.Getwd(); err == nil {
			return wd
		}
	}
	return "."
}

// loadConfig reads the layered configuration for repoRoot and starts
// logging with it.
func (a *App) loadConfig(repoRoot string) (*config.AppConfig, config.Paths, error) {
	paths := a.ConfigPaths(repoRoot)
	cfg, err := config.Load(paths)
	if err != nil {
		return nil, paths, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Initialize(&cfg.Log); err != nil {
		return nil, paths, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.ApplyLevels(cfg.Log.Levels)

	l := logger.GetConfigLogger()
	l.Debug().
		Str("user", paths.User).
		Str("repo", paths.Repo).
		Str("backend", cfg.Defaults.Backend).
		Msg("Config loaded")
	return cfg, paths, nil
}

func (a *App) printUsage(w io.Writer) {
	fmt.Fprintf(w, `%s - relay prompts and repository context to coding backends

Usage:
  %s <command> [arguments]
  %s --to <backend> --prompt <text> [relay flags]

Commands:
  relay       Relay a prompt to codex or gemini and print the response
  install     Install the Claude plugin (symlink or copy)
  update      Reinstall the Claude plugin (install --force)
  uninstall   Remove the Claude plugin
  doctor      Check backend availability and configuration
  config      Manage configuration (init, show, get, set, path)
  version     Print version information
  help        Show this help message

Examples:
  %s relay --to codex --prompt "Review the error handling in main.go"
  %s relay --to gemini --include-diff --prompt "Any risks in this change?"
  %s install --claude
  %s doctor --json
  %s config set defaults.backend gemini

`, appName, appName, appName, appName, appName, appName, appName, appName)
}
