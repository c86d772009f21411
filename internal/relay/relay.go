// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay validates a relay request, assembles the prompt sent to a
// backend and dispatches it with a bounded recursion depth.
package relay

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
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
		l := logger.GetRelayLogger()
		log = &l
	})
	return log
}

const (
	DefaultTimeoutSeconds = 600
	DefaultBackend        = "codex"
	DefaultSandbox        = backends.SandboxReadOnly

	// MaxRelayDepth is how many relays may be nested. A backend launched by a
	// relay sees depth 1 and cannot relay again.
	MaxRelayDepth = 1

	MaxContextBytes = 200_000
	MaxDiffBytes    = 300_000
	MaxPromptBytes  = 500_000

	// MaxTimeoutSeconds is the largest timeout that fits in a time.Duration.
	MaxTimeoutSeconds int64 = math.MaxInt64 / int64(time.Second)
)

// Request is one relay invocation.
type Request struct {
	Prompt         string
	RepoPath       string
	Backend        string
	ContextFile    string // mutually exclusive with ContextText
	ContextText    string
	IncludeDiff    bool
	TimeoutSeconds int
	Model          string
	Sandbox        backends.Sandbox
}

// BackendLookup resolves a backend by name. backends.Registry implements it.
type BackendLookup interface {
	Get(name string) (backends.Backend, error)
}

// Relayer runs relay requests. Depth is the nesting level of the current
// process; Environ supplies the environment handed to the backend, with the
// depth variable overwritten.
type Relayer struct {
	Backends BackendLookup
	Diff     DiffCollector
	Depth    int
	Environ  func() []string
}

// New returns a Relayer wired to the default backends, git and the process
// environment.
func New(depth int) *Relayer {
	return &Relayer{
		Backends: backends.Default(),
		Diff:     NewGitDiff(),
		Depth:    depth,
		Environ:  os.Environ,
	}
}

// Relay sends req to its backend and returns the backend's response.
// Every failure is a *Error.
func (r *Relayer) Relay(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errorf("prompt is required")
	}
	if req.TimeoutSeconds <= 0 {
		return "", errorf("timeout must be greater than zero")
	}
	if int64(req.TimeoutSeconds) > MaxTimeoutSeconds {
		return "", errorf("timeout is too large (%d seconds; max %d seconds)", req.TimeoutSeconds, MaxTimeoutSeconds)
	}

	repoPath, err := resolveRepoPath(req.RepoPath)
	if err != nil {
		return "", err
	}

	backend, err := r.Backends.Get(req.Backend)
	if err != nil {
		return "", wrap(err)
	}

	if !backends.SupportsSandbox(backend, req.Sandbox) {
		return "", errorf("invalid sandbox mode: %s (allowed values: %s)",
			req.Sandbox, strings.Join(backends.SandboxNames(backend), ", "))
	}

	contextText, err := resolveContext(req.ContextFile, req.ContextText)
	if err != nil {
		return "", err
	}

	var diffText string
	if req.IncludeDiff {
		if diffText, err = r.collectDiff(ctx, repoPath); err != nil {
			return "", err
		}
	}

	prompt := BuildPrompt(req.Prompt, repoPath, contextText, diffText)
	if err := checkSize("relay prompt", prompt, MaxPromptBytes); err != nil {
		return "", err
	}

	env, err := r.childEnv()
	if err != nil {
		return "", err
	}

	requestID := uuid.NewString()
	l := getLog().With().
		Str("request_id", requestID).
		Str("backend", backend.Name()).
		Str("sandbox", string(req.Sandbox)).
		Logger()
	l.Info().
		Str("repo", repoPath).
		Int("prompt_bytes", len(prompt)).
		Bool("include_diff", req.IncludeDiff).
		Int("depth", r.Depth).
		Msg("Relay started")

	start := time.Now()
	out, err := backend.Run(ctx, backends.RunOptions{
		Prompt:   prompt,
		RepoPath: repoPath,
		Timeout:  time.Duration(req.TimeoutSeconds) * time.Second,
		Sandbox:  req.Sandbox,
		Model:    req.Model,
		Env:      env,
	})
	if err != nil {
		ev := l.Info().Err(err).Dur("duration", time.Since(start))
		var be *backends.BackendError
		if errors.As(err, &be) {
			ev = ev.Stringer("kind", be.Kind)
		}
		ev.Msg("Relay failed")
		return "", wrap(err)
	}

	l.Info().Dur("duration", time.Since(start)).Int("response_bytes", len(out)).Msg("Relay finished")
	return out, nil
}

func (r *Relayer) collectDiff(ctx context.Context, repoPath string) (string, error) {
	diff, err := r.Diff.Collect(ctx, repoPath)
	if err != nil {
		return "", wrap(err)
	}
	diff = strings.TrimSpace(diff)
	if err := checkSize("git diff", diff, MaxDiffBytes); err != nil {
		return "", err
	}
	return diff, nil
}

// resolveRepoPath returns the absolute, symlink-free form of path, which must
// be an existing directory.
func resolveRepoPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errorf("repository path does not exist or is not a directory: %s", path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errorf("repository path does not exist or is not a directory: %s", abs)
	}
	return abs, nil
}

func checkSize(label, text string, maxBytes int) error {
	if size := len(text); size > maxBytes {
		return errorf("%s is too large (%d bytes; max %d bytes)", label, size, maxBytes)
	}
	return nil
}
