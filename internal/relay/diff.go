// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/noldarim/phone-a-friend/internal/backends"
	"github.com/noldarim/phone-a-friend/internal/logger"
)

// gitTimeout bounds a single git invocation so a wedged repository cannot
// hang the relay.
const gitTimeout = 30 * time.Second

// DiffCollector returns the working-tree diff of a repository.
type DiffCollector interface {
	Collect(ctx context.Context, repoPath string) (string, error)
}

// GitDiff collects `git -C <repo> diff --`.
type GitDiff struct {
	Runner  backends.Runner
	GitPath string
}

// NewGitDiff returns a collector that runs the git found on PATH.
func NewGitDiff() *GitDiff {
	return &GitDiff{Runner: backends.ExecRunner{}, GitPath: "git"}
}

// Collect implements DiffCollector.
func (g *GitDiff) Collect(ctx context.Context, repoPath string) (string, error) {
	args := []string{"-C", repoPath, "diff", "--"}

	gitLog := logger.GetGitLogger()
	gitLog.Debug().Strs("args", args).Str("work_dir", repoPath).Msg("Git operation")

	result, err := g.Runner.Run(ctx, backends.Command{
		Path:    g.GitPath,
		Args:    args,
		Env:     gitEnvironment(),
		Timeout: gitTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to collect git diff: %w", err)
	}
	if result.TimedOut {
		return "", fmt.Errorf("failed to collect git diff: git diff timed out after %s", gitTimeout)
	}
	if result.ExitCode != 0 {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(result.Stdout)
		}
		if detail == "" {
			detail = "git diff failed"
		}
		return "", fmt.Errorf("failed to collect git diff: %s", detail)
	}

	gitLog.Debug().Int("bytes", len(result.Stdout)).Msg("Collected git diff")
	return result.Stdout, nil
}

// gitEnvironment keeps the caller's environment but disables interactive
// credential prompts.
func gitEnvironment() []string {
	return append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=")
}
