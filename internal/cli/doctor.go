// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"

	"github.com/noldarim/phone-a-friend/internal/backends"
	"github.com/noldarim/phone-a-friend/internal/installer"
)

// Doctor exit codes.
const (
	doctorHealthy     = 0
	doctorDegraded    = 1
	doctorUnavailable = 2
)

type doctorReport struct {
	Version        string            `json:"version"`
	Config         doctorConfig      `json:"config"`
	DefaultBackend string            `json:"default_backend"`
	Backends       []backends.Status `json:"backends"`
	Plugin         doctorPlugin      `json:"plugin"`
	Available      int               `json:"available"`
	Total          int               `json:"total"`
	ExitCode       int               `json:"exit_code"`
}

type doctorConfig struct {
	User      string `json:"user"`
	UserFound bool   `json:"user_found"`
	Repo      string `json:"repo,omitempty"`
	RepoFound bool   `json:"repo_found"`
}

type doctorPlugin struct {
	Path      string `json:"path"`
	Installed bool   `json:"installed"`
}

// doctorCommand reports backend availability and configuration. Exit code 0
// means every backend is available, 1 some, 2 none.
func (a *App) doctorCommand(args []string) error {
	var asJSON bool
	fs := a.newFlagSet("doctor")
	fs.BoolVar(&asJSON, "json", false, "Output the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejectExtraArgs(fs); err != nil {
		return err
	}

	cfg, paths, err := a.loadConfig(a.workDir())
	if err != nil {
		return err
	}

	report := doctorReport{
		Version: Version,
		Config: doctorConfig{
			User:      paths.User,
			UserFound: exists(paths.User),
			Repo:      paths.Repo,
			RepoFound: paths.Repo != "" && exists(paths.Repo),
		},
		DefaultBackend: cfg.Defaults.Backend,
		Backends:       a.Installer.Verify(),
	}

	if target, err := installer.ClaudeTarget(a.ClaudeHome); err == nil {
		report.Plugin = doctorPlugin{Path: target, Installed: lexists(target)}
	}

	report.Total = len(report.Backends)
	report.Available = lo.CountBy(report.Backends, func(s backends.Status) bool { return s.Available })
	switch {
	case report.Available == report.Total:
		report.ExitCode = doctorHealthy
	case report.Available == 0:
		report.ExitCode = doctorUnavailable
	default:
		report.ExitCode = doctorDegraded
	}

	if asJSON {
		enc := json.NewEncoder(a.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		a.printDoctorReport(report)
	}

	if report.ExitCode != doctorHealthy {
		return &ExitError{Code: report.ExitCode}
	}
	return nil
}

func (a *App) printDoctorReport(r doctorReport) {
	s := newStyles(a.Stdout)
	w := a.Stdout

	fmt.Fprintf(w, "%s %s: %s\n", appName, r.Version, s.bold.Render("Health Check"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config:")
	fmt.Fprintf(w, "  %s user: %s\n", s.mark(r.Config.UserFound), foundLabel(r.Config.User, r.Config.UserFound))
	if r.Config.Repo != "" {
		fmt.Fprintf(w, "  %s repo: %s\n", s.mark(r.Config.RepoFound), foundLabel(r.Config.Repo, r.Config.RepoFound))
	}

	printBackendAvailability(w, r.Backends)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Claude plugin:")
	state := installer.StatusNotInstalled
	if r.Plugin.Installed {
		state = installer.StatusInstalled
	}
	fmt.Fprintf(w, "  %s %s -> %s\n", s.mark(r.Plugin.Installed), state, r.Plugin.Path)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Default backend: %s\n", r.DefaultBackend)
	fmt.Fprintf(w, "%d of %d relay backends ready\n", r.Available, r.Total)
}

func foundLabel(path string, found bool) string {
	if found {
		return path
	}
	return path + " (not found, using defaults)"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func lexists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
