// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backends runs external coding-assistant CLIs in non-interactive
// mode and returns their final text response.
package backends

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noldarim/phone-a-friend/internal/logger"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetBackendLogger()
		log = &l
	})
	return log
}

// Sandbox restricts what a backend may do to the filesystem during a run.
type Sandbox string

const (
	SandboxReadOnly       Sandbox = "read-only"
	SandboxWorkspaceWrite Sandbox = "workspace-write"
	SandboxFullAccess     Sandbox = "danger-full-access"
)

// AllSandboxes lists every sandbox mode in increasing order of privilege.
var AllSandboxes = []Sandbox{SandboxReadOnly, SandboxWorkspaceWrite, SandboxFullAccess}

// RunOptions describes a single backend invocation.
type RunOptions struct {
	Prompt   string
	RepoPath string
	Timeout  time.Duration
	Sandbox  Sandbox
	Model    string   // empty means the backend's own default
	Env      []string // full child environment, KEY=VALUE
}

// Backend is implemented by every relay target.
type Backend interface {
	// Name is the registry key, also used as the executable name.
	Name() string
	// AllowedSandboxes lists the sandbox modes Run accepts.
	AllowedSandboxes() []Sandbox
	// Run invokes the backend and returns its non-empty response. Failures
	// are reported as *BackendError.
	Run(ctx context.Context, opts RunOptions) (string, error)
}

// InstallHints tells users how to get a missing backend CLI.
var InstallHints = map[string]string{
	"codex":  "npm install -g @openai/codex",
	"gemini": "npm install -g @google/gemini-cli",
}

// SupportsSandbox reports whether b accepts sandbox s.
func SupportsSandbox(b Backend, s Sandbox) bool {
	return lo.Contains(b.AllowedSandboxes(), s)
}

// SandboxNames returns the sorted string form of b's allowed sandboxes.
func SandboxNames(b Backend) []string {
	names := lo.Map(b.AllowedSandboxes(), func(s Sandbox, _ int) string { return string(s) })
	sort.Strings(names)
	return names
}

// Registry is a fixed name-to-backend table.
type Registry map[string]Backend

// NewRegistry builds a registry keyed by each backend's Name.
func NewRegistry(backends ...Backend) Registry {
	r := make(Registry, len(backends))
	for _, b := range backends {
		r[b.Name()] = b
	}
	return r
}

// Default returns the registry of supported backends.
func Default() Registry {
	return NewRegistry(NewCodex(), NewGemini())
}

// Get returns the backend registered under name.
func (r Registry) Get(name string) (Backend, error) {
	if b, ok := r[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unsupported relay backend: %s (supported: %s)", name, strings.Join(r.Names(), ", "))
}

// Names returns the registered backend names, sorted.
func (r Registry) Names() []string {
	names := lo.Keys(map[string]Backend(r))
	sort.Strings(names)
	return names
}
