// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backends

import (
	"context"
	"strings"
)

const geminiLabel = "gemini"

// Gemini runs Google's gemini CLI headless and returns its stdout.
//
// Its sandbox is a boolean: read-only and workspace-write both enable
// --sandbox, danger-full-access disables it. --yolo is always passed so tool
// actions are auto-approved in headless mode.
type Gemini struct {
	cliBackend
}

var _ Backend = (*Gemini)(nil)

// NewGemini creates the Gemini adapter.
func NewGemini(opts ...Option) *Gemini {
	return &Gemini{cliBackend: newCLIBackend("gemini", opts)}
}

// BuildArgs returns the gemini argument list (without the executable).
func (g *Gemini) BuildArgs(opts RunOptions) []string {
	var args []string
	if opts.Sandbox != SandboxFullAccess {
		args = append(args, "--sandbox")
	}
	args = append(args,
		"--yolo",
		"--include-directories", opts.RepoPath,
		"--output-format", "text",
	)
	if opts.Model != "" {
		args = append(args, "-m", opts.Model)
	}
	return append(args, "--prompt", opts.Prompt)
}

// Run implements Backend.
func (g *Gemini) Run(ctx context.Context, opts RunOptions) (string, error) {
	binary, err := g.resolveBinary()
	if err != nil {
		return "", err
	}

	result, err := g.run(ctx, geminiLabel, Command{
		Path:    binary,
		Args:    g.BuildArgs(opts),
		Dir:     opts.RepoPath,
		Env:     opts.Env,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return "", err
	}

	if result.ExitCode != 0 {
		return "", g.exitError(geminiLabel, result.ExitCode, result.Stderr, result.Stdout)
	}

	if out := strings.TrimSpace(result.Stdout); out != "" {
		return out, nil
	}

	return "", newError(g.name, KindEmptyOutput, "%s completed without producing output", geminiLabel)
}
