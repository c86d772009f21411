// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backends

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	codexLabel          = "codex exec"
	codexLastMessageTxt = "codex-last-message.txt"
	tempDirPattern      = "phone-a-friend-"
)

// Codex runs `codex exec` and reads the final agent message from the file
// named by --output-last-message, falling back to stdout.
type Codex struct {
	cliBackend
}

var _ Backend = (*Codex)(nil)

// NewCodex creates the Codex adapter.
func NewCodex(opts ...Option) *Codex {
	return &Codex{cliBackend: newCLIBackend("codex", opts)}
}

// BuildArgs returns the codex argument list (without the executable).
// The prompt is always the final positional argument.
func (c *Codex) BuildArgs(opts RunOptions, outputPath string) []string {
	args := []string{
		"exec",
		"-C", opts.RepoPath,
		"--skip-git-repo-check",
		"--sandbox", string(opts.Sandbox),
		"--output-last-message", outputPath,
	}
	if opts.Model != "" {
		args = append(args, "-m", opts.Model)
	}
	return append(args, opts.Prompt)
}

// Run implements Backend.
func (c *Codex) Run(ctx context.Context, opts RunOptions) (string, error) {
	binary, err := c.resolveBinary()
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		e := newError(c.name, KindStart, "failed to create temporary directory: %v", err)
		e.Err = err
		return "", e
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			getLog().Warn().Err(rmErr).Str("dir", tmpDir).Msg("Failed to remove codex temp dir")
		}
	}()
	outputPath := filepath.Join(tmpDir, codexLastMessageTxt)

	result, err := c.run(ctx, codexLabel, Command{
		Path:    binary,
		Args:    c.BuildArgs(opts, outputPath),
		Env:     opts.Env,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return "", err
	}

	lastMessage, err := c.readOutputFile(outputPath)
	if err != nil {
		return "", err
	}

	if result.ExitCode != 0 {
		return "", c.exitError(codexLabel, result.ExitCode, result.Stderr, result.Stdout, lastMessage)
	}

	if lastMessage != "" {
		return lastMessage, nil
	}
	if out := strings.TrimSpace(result.Stdout); out != "" {
		return out, nil
	}

	return "", newError(c.name, KindEmptyOutput, "%s completed without producing feedback", codexLabel)
}

// readOutputFile returns the trimmed last message, or "" if codex never
// wrote the file.
func (c *Codex) readOutputFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		e := newError(c.name, KindOutputFile, "failed reading codex output file: %v", err)
		e.Err = err
		return "", e
	}
	return strings.TrimSpace(string(data)), nil
}
