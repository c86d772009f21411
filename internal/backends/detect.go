// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backends

import (
	"os/exec"
	"sort"

	"github.com/samber/lo"
)

// Status describes whether a backend CLI can be found.
type Status struct {
	Name        string `json:"name"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	InstallHint string `json:"install_hint,omitempty"`
}

// Detect checks every known backend CLI against PATH. A nil lookPath uses
// exec.LookPath.
func Detect(lookPath LookPathFunc) []Status {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	names := lo.Keys(InstallHints)
	sort.Strings(names)

	return lo.Map(names, func(name string, _ int) Status {
		s := Status{Name: name, InstallHint: InstallHints[name]}
		if path, err := lookPath(name); err == nil && path != "" {
			s.Available = true
			s.Path = path
		}
		return s
	})
}
