// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backends

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// cliBackend holds what every CLI adapter needs to locate and run its
// executable. Adapters embed it.
type cliBackend struct {
	name     string
	lookPath LookPathFunc
	runner   Runner
}

// Option configures an adapter at construction time.
type Option func(*cliBackend)

// WithRunner overrides how processes are executed.
func WithRunner(r Runner) Option {
	return func(b *cliBackend) {
		if r != nil {
			b.runner = r
		}
	}
}

// WithLookPath overrides executable resolution.
func WithLookPath(f LookPathFunc) Option {
	return func(b *cliBackend) {
		if f != nil {
			b.lookPath = f
		}
	}
}

func newCLIBackend(name string, opts []Option) cliBackend {
	b := cliBackend{
		name:     name,
		lookPath: exec.LookPath,
		runner:   ExecRunner{},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *cliBackend) Name() string {
	return b.name
}

func (b *cliBackend) AllowedSandboxes() []Sandbox {
	return AllSandboxes
}

func (b *cliBackend) resolveBinary() (string, error) {
	path, err := b.lookPath(b.name)
	if err != nil || path == "" {
		return "", notFoundError(b.name)
	}
	return path, nil
}

// run executes cmd and turns "could not run" conditions into BackendErrors.
// label names the command in timeout messages ("codex exec", "gemini").
func (b *cliBackend) run(ctx context.Context, label string, cmd Command) (*Result, error) {
	result, err := b.runner.Run(ctx, cmd)
	if err != nil {
		e := newError(b.name, KindStart, "%s failed: %v", label, err)
		e.Err = err
		return nil, e
	}
	if result.TimedOut {
		return nil, newError(b.name, KindTimeout, "%s timed out after %s", label, formatSeconds(cmd.Timeout))
	}

	getLog().Debug().
		Str("backend", b.name).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Int("stdout_len", len(result.Stdout)).
		Int("stderr_len", len(result.Stderr)).
		Msg("Process finished")

	return result, nil
}

// exitError reports a non-zero exit using the first non-blank detail.
func (b *cliBackend) exitError(label string, exitCode int, details ...string) *BackendError {
	detail := firstNonBlank(details...)
	if detail == "" {
		detail = fmt.Sprintf("%s exited with code %d", label, exitCode)
	}
	e := newError(b.name, KindExitStatus, "%s", detail)
	e.ExitCode = exitCode
	return e
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%ds", int(d/time.Second))
}
