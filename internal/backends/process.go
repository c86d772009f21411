// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backends

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps reading pipes after the process was
// killed, in case grandchildren still hold them open.
const waitDelay = 5 * time.Second

// LookPathFunc resolves an executable name to a path, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Command is one external process invocation.
type Command struct {
	Path    string
	Args    []string // excluding Path
	Dir     string
	Env     []string
	Timeout time.Duration // zero means no deadline beyond ctx
}

// Result is the captured outcome of a process that ran.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Runner executes a Command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts cmd, waits for it and captures its output. A process killed
// because cmd.Timeout elapsed yields a Result with TimedOut set and no error;
// an error is returned only when the process could not run or ctx itself was
// cancelled.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.WaitDelay = waitDelay
	configureProcessGroup(c)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	getLog().Debug().
		Str("command", formatCommandForLogging(append([]string{cmd.Path}, cmd.Args...))).
		Str("dir", cmd.Dir).
		Dur("timeout", cmd.Timeout).
		Msg("Starting process")

	start := time.Now()
	runErr := c.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runErr == nil {
		return result, nil
	}

	// Parent cancellation is not a timeout of this command.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("command cancelled: %w", ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return nil, fmt.Errorf("command execution failed: %w", runErr)
}

// formatCommandForLogging creates a short preview of the command for logging
func formatCommandForLogging(command []string) string {
	if len(command) == 0 {
		return "<empty>"
	}

	preview := command[0]
	for i := 1; i < len(command) && i < 8; i++ {
		arg := command[i]
		if len(arg) > 50 {
			arg = arg[:50] + "..."
		}
		preview += " " + arg
	}
	if len(command) > 8 {
		preview += fmt.Sprintf(" [+%d more args]", len(command)-8)
	}

	return truncateString(preview, 300)
}

// truncateString truncates a string to maxLen bytes, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
