// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/noldarim/phone-a-friend/internal/backends"
	"github.com/noldarim/phone-a-friend/internal/logger"
	"github.com/noldarim/phone-a-friend/internal/relay"
)

type relayOptions struct {
	to          string
	repo        string
	prompt      string
	contextFile string
	contextText string
	includeDiff bool
	timeout     int
	model       string
	sandbox     string
}

func (a *App) relayCommand(ctx context.Context, args []string) error {
	opts := &relayOptions{}
	fs := a.newFlagSet("relay")
	fs.StringVar(&opts.to, "to", relay.DefaultBackend, "Target backend (codex or gemini)")
	fs.StringVar(&opts.repo, "repo", "", "Repository path sent to the backend (default: current directory)")
	fs.StringVar(&opts.prompt, "prompt", "", "Prompt to relay (required)")
	fs.StringVar(&opts.contextFile, "context-file", "", "File with additional context appended to the prompt")
	fs.StringVar(&opts.contextText, "context-text", "", "Inline context text appended to the prompt")
	fs.BoolVar(&opts.includeDiff, "include-diff", false, "Append the git diff of --repo to the prompt")
	fs.IntVar(&opts.timeout, "timeout", relay.DefaultTimeoutSeconds, "Max relay runtime in seconds")
	fs.StringVar(&opts.model, "model", "", "Model override")
	fs.StringVar(&opts.sandbox, "sandbox", string(relay.DefaultSandbox), "Sandbox mode (read-only, workspace-write, danger-full-access)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejectExtraArgs(fs); err != nil {
		return err
	}

	set := setFlags(fs)
	if !set["prompt"] {
		return fmt.Errorf("--prompt is required")
	}
	if opts.repo == "" {
		opts.repo = a.workDir()
	}

	cfg, _, err := a.loadConfig(opts.repo)
	if err != nil {
		return err
	}

	// Config supplies whatever the command line left out.
	if !set["to"] {
		opts.to = cfg.Defaults.Backend
	}
	if !set["sandbox"] {
		opts.sandbox = cfg.Defaults.Sandbox
	}
	if !set["timeout"] {
		opts.timeout = cfg.Defaults.Timeout
	}
	if !set["include-diff"] {
		opts.includeDiff = cfg.Defaults.IncludeDiff
	}
	if !set["model"] {
		opts.model = cfg.ModelFor(opts.to)
	}

	cliLog := logger.GetCLILogger()
	cliLog.Debug().
		Str("backend", opts.to).
		Str("repo", opts.repo).
		Str("sandbox", opts.sandbox).
		Int("timeout", opts.timeout).
		Msg("Relay command")

	relayer := a.NewRelayer(a.Depth())
	feedback, err := relayer.Relay(ctx, relay.Request{
		Prompt:         opts.prompt,
		RepoPath:       opts.repo,
		Backend:        opts.to,
		ContextFile:    opts.contextFile,
		ContextText:    opts.contextText,
		IncludeDiff:    opts.includeDiff,
		TimeoutSeconds: opts.timeout,
		Model:          opts.model,
		Sandbox:        backends.Sandbox(opts.sandbox),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Stdout, feedback)
	return nil
}
