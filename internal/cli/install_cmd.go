// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/noldarim/phone-a-friend/internal/installer"
)

type installOptions struct {
	claude          bool
	all             bool
	mode            string
	force           bool
	repoRoot        string
	noClaudeCLISync bool
}

func (a *App) installFlags(name string, opts *installOptions, withTargets bool) *flag.FlagSet {
	fs := a.newFlagSet(name)
	if withTargets {
		fs.BoolVar(&opts.claude, "claude", false, "Install for Claude")
		fs.BoolVar(&opts.all, "all", false, "Alias for --claude")
		fs.BoolVar(&opts.force, "force", false, "Replace an existing install target")
	}
	fs.StringVar(&opts.mode, "mode", string(installer.ModeSymlink), "Installation mode: symlink or copy")
	fs.StringVar(&opts.repoRoot, "repo-root", "", "Plugin repository root (default: detected from the executable)")
	fs.BoolVar(&opts.noClaudeCLISync, "no-claude-cli-sync", false, "Skip Claude plugin marketplace/install/enable sync")
	return fs
}

func (a *App) installCommand(ctx context.Context, args []string) error {
	opts := &installOptions{}
	fs := a.installFlags("install", opts, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejectExtraArgs(fs); err != nil {
		return err
	}
	return a.runInstall(ctx, opts)
}

// updateCommand reinstalls over an existing target.
func (a *App) updateCommand(ctx context.Context, args []string) error {
	opts := &installOptions{}
	fs := a.installFlags("update", opts, false)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejectExtraArgs(fs); err != nil {
		return err
	}
	opts.claude = true
	opts.force = true
	return a.runInstall(ctx, opts)
}

func (a *App) runInstall(ctx context.Context, opts *installOptions) error {
	if _, _, err := a.loadConfig(a.workDir()); err != nil {
		return err
	}

	repoRoot := opts.repoRoot
	if repoRoot == "" {
		repoRoot = installer.DefaultRepoRoot()
	}

	lines, err := a.Installer.Install(ctx, installer.Options{
		RepoRoot:      repoRoot,
		Target:        target(opts.all),
		Mode:          installer.Mode(opts.mode),
		Force:         opts.force,
		ClaudeHome:    a.ClaudeHome,
		SyncClaudeCLI: !opts.noClaudeCLISync,
	})
	if err != nil {
		return err
	}

	a.printLines(lines)
	printBackendAvailability(a.Stdout, a.Installer.Verify())
	return nil
}

func (a *App) uninstallCommand(args []string) error {
	var claude, all bool
	fs := a.newFlagSet("uninstall")
	fs.BoolVar(&claude, "claude", false, "Uninstall for Claude")
	fs.BoolVar(&all, "all", false, "Alias for --claude")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejectExtraArgs(fs); err != nil {
		return err
	}

	if _, _, err := a.loadConfig(a.workDir()); err != nil {
		return err
	}

	lines, err := a.Installer.Uninstall(target(all), a.ClaudeHome)
	if err != nil {
		return err
	}
	a.printLines(lines)
	return nil
}

// target maps the --claude/--all flags. Claude is the only host, so --claude
// is accepted for compatibility and changes nothing.
func target(all bool) installer.Target {
	if all {
		return installer.TargetAll
	}
	return installer.TargetClaude
}

func (a *App) printLines(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(a.Stdout, line)
	}
}
