// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package installer

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/noldarim/phone-a-friend/internal/backends"
)

const claudeCommandTimeout = 2 * time.Minute

// alreadyDoneMarkers are substrings of claude CLI output that mean the step
// was a no-op rather than a failure.
var alreadyDoneMarkers = []string{
	"already configured",
	"already added",
	"already installed",
	"already enabled",
	"already up to date",
}

type claudeStep struct {
	label string
	args  []string
}

func claudeSyncSteps(repoRoot string) []claudeStep {
	pluginRef := PluginName + "@" + MarketplaceName
	return []claudeStep{
		{"marketplace_add", []string{"plugin", "marketplace", "add", repoRoot}},
		{"marketplace_update", []string{"plugin", "marketplace", "update", MarketplaceName}},
		{"install", []string{"plugin", "install", pluginRef, "-s", "user"}},
		{"enable", []string{"plugin", "enable", pluginRef, "-s", "user"}},
		{"update", []string{"plugin", "update", pluginRef}},
	}
}

// syncClaudeRegistration registers, installs, enables and updates the plugin
// through the claude CLI, one result line per step.
func (i *Installer) syncClaudeRegistration(ctx context.Context, repoRoot string) []string {
	claudeBin, err := i.LookPath("claude")
	if err != nil || claudeBin == "" {
		return []string{"- claude_cli: skipped (claude binary not found)"}
	}

	var lines []string
	for _, step := range claudeSyncSteps(repoRoot) {
		code, output := i.runClaude(ctx, claudeBin, step.args)
		if code == 0 || looksAlreadyDone(output) {
			lines = append(lines, "- claude_cli_"+step.label+": ok")
			continue
		}

		getLog().Info().Str("step", step.label).Int("exit_code", code).Str("output", output).Msg("Claude CLI sync step failed")
		lines = append(lines, "- claude_cli_"+step.label+": failed")
		if output != "" {
			lines = append(lines, "  output: "+output)
		}
	}
	return lines
}

// runClaude returns the exit code and combined trimmed output. A process that
// could not run reports exit code -1 with the error as output.
func (i *Installer) runClaude(ctx context.Context, bin string, args []string) (int, string) {
	result, err := i.Runner.Run(ctx, backends.Command{
		Path:    bin,
		Args:    args,
		Timeout: claudeCommandTimeout,
	})
	if err != nil {
		return -1, err.Error()
	}
	if result.TimedOut {
		return -1, "timed out after " + claudeCommandTimeout.String()
	}
	return result.ExitCode, strings.TrimSpace(result.Stdout + result.Stderr)
}

func looksAlreadyDone(output string) bool {
	text := strings.ToLower(output)
	return lo.SomeBy(alreadyDoneMarkers, func(marker string) bool {
		return strings.Contains(text, marker)
	})
}
