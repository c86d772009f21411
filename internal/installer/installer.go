// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package installer links or copies the plugin into Claude's plugin
// directory and keeps Claude's own plugin registry in sync.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noldarim/phone-a-friend/internal/backends"
	"github.com/noldarim/phone-a-friend/internal/logger"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetInstallerLogger()
		log = &l
	})
	return log
}

const (
	PluginName      = "phone-a-friend"
	MarketplaceName = "phone-a-friend-dev"
)

// Target selects which host to install into. Claude is the only host, "all"
// is kept as an alias.
type Target string

const (
	TargetClaude Target = "claude"
	TargetAll    Target = "all"
)

// Mode selects how the plugin lands in the target directory.
type Mode string

const (
	ModeSymlink Mode = "symlink"
	ModeCopy    Mode = "copy"
)

// Install statuses reported in result lines.
const (
	StatusInstalled        = "installed"
	StatusAlreadyInstalled = "already-installed"
	StatusRemoved          = "removed"
	StatusNotInstalled     = "not-installed"
)

// Options configures Install.
type Options struct {
	RepoRoot      string
	Target        Target
	Mode          Mode
	Force         bool
	ClaudeHome    string // empty means ~/.claude
	SyncClaudeCLI bool
}

// Installer performs plugin installation. Runner and LookPath drive the
// claude CLI during registration sync.
type Installer struct {
	Runner   backends.Runner
	LookPath backends.LookPathFunc
}

// New returns an Installer that runs the real claude CLI.
func New() *Installer {
	return &Installer{Runner: backends.ExecRunner{}, LookPath: exec.LookPath}
}

// Install places the plugin for the requested target and returns the
// human-readable result lines.
func (i *Installer) Install(ctx context.Context, opts Options) ([]string, error) {
	if err := validateTarget(opts.Target); err != nil {
		return nil, err
	}
	if opts.Mode != ModeSymlink && opts.Mode != ModeCopy {
		return nil, fmt.Errorf("invalid mode: %s", opts.Mode)
	}

	repoRoot, err := resolvePath(opts.RepoRoot)
	if err != nil {
		return nil, err
	}
	if !IsValidRepoRoot(repoRoot) {
		return nil, fmt.Errorf("invalid repo root: %s", repoRoot)
	}

	target, err := ClaudeTarget(opts.ClaudeHome)
	if err != nil {
		return nil, err
	}

	lines := []string{
		"phone-a-friend installer",
		"- repo_root: " + repoRoot,
		"- mode: " + string(opts.Mode),
	}

	status, err := installPath(repoRoot, target, opts.Mode, opts.Force)
	if err != nil {
		return nil, err
	}
	getLog().Info().Str("target", target).Str("mode", string(opts.Mode)).Str("status", status).Msg("Plugin install")
	lines = append(lines, fmt.Sprintf("- claude: %s -> %s", status, target))

	if opts.SyncClaudeCLI {
		lines = append(lines, i.syncClaudeRegistration(ctx, repoRoot)...)
	}
	return lines, nil
}

// Uninstall removes the plugin from the target directory.
func (i *Installer) Uninstall(target Target, claudeHome string) ([]string, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	path, err := ClaudeTarget(claudeHome)
	if err != nil {
		return nil, err
	}

	status := StatusNotInstalled
	if _, err := os.Lstat(path); err == nil {
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		status = StatusRemoved
	}
	getLog().Info().Str("target", path).Str("status", status).Msg("Plugin uninstall")

	return []string{
		"phone-a-friend uninstaller",
		fmt.Sprintf("- claude: %s -> %s", status, path),
	}, nil
}

// ClaudeTarget returns the plugin directory under claudeHome, defaulting to
// ~/.claude.
func ClaudeTarget(claudeHome string) (string, error) {
	if claudeHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		claudeHome = filepath.Join(home, ".claude")
	}
	return filepath.Join(claudeHome, "plugins", PluginName), nil
}

// IsValidRepoRoot reports whether root contains a plugin manifest.
func IsValidRepoRoot(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".claude-plugin", "plugin.json"))
	return err == nil
}

// DefaultRepoRoot guesses the plugin checkout from the executable location
// (its directory or that directory's parent), falling back to the working
// directory.
func DefaultRepoRoot() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dir := filepath.Dir(exe)
		for _, candidate := range []string{dir, filepath.Dir(dir)} {
			if IsValidRepoRoot(candidate) {
				return candidate
			}
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Verify reports which backend CLIs are on PATH.
func (i *Installer) Verify() []backends.Status {
	return backends.Detect(i.LookPath)
}

func validateTarget(t Target) error {
	if t != TargetClaude && t != TargetAll {
		return fmt.Errorf("invalid target: %s", t)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid repo root: %s", path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func installPath(src, dst string, mode Mode, force bool) (string, error) {
	if info, err := os.Lstat(dst); err == nil {
		if info.Mode()&fs.ModeSymlink != 0 && sameFile(dst, src) {
			return StatusAlreadyInstalled, nil
		}
		if !force {
			return "", fmt.Errorf("destination already exists: %s", dst)
		}
		if err := os.RemoveAll(dst); err != nil {
			return "", fmt.Errorf("failed to remove %s: %w", dst, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to inspect %s: %w", dst, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}

	if mode == ModeSymlink {
		if err := os.Symlink(src, dst); err != nil {
			return "", fmt.Errorf("failed to link %s: %w", dst, err)
		}
	} else if err := copyTree(src, dst); err != nil {
		return "", fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return StatusInstalled, nil
}

// sameFile reports whether the link at dst resolves to src.
func sameFile(dst, src string) bool {
	resolvedDst, err := filepath.EvalSymlinks(dst)
	if err != nil {
		return false
	}
	resolvedSrc, err := filepath.EvalSymlinks(src)
	if err != nil {
		return false
	}
	return resolvedDst == resolvedSrc
}
