// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/noldarim/phone-a-friend/internal/backends"
)

// styles renders status marks for one output stream. Colors are dropped
// automatically when w is not a terminal.
type styles struct {
	ok   lipgloss.Style
	fail lipgloss.Style
	hint lipgloss.Style
	bold lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		ok:   r.NewStyle().Foreground(lipgloss.Color("35")),
		fail: r.NewStyle().Foreground(lipgloss.Color("196")),
		hint: r.NewStyle().Foreground(lipgloss.Color("226")),
		bold: r.NewStyle().Bold(true),
	}
}

func (s styles) mark(ok bool) string {
	if ok {
		return s.ok.Render("✓")
	}
	return s.fail.Render("✗")
}

// printBackendAvailability writes one line per backend CLI, plus an install
// hint for the missing ones.
func printBackendAvailability(w io.Writer, statuses []backends.Status) {
	s := newStyles(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Backend availability:")
	for _, st := range statuses {
		status := "not found"
		if st.Available {
			status = "available"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", s.mark(st.Available), st.Name, status)
		if !st.Available && st.InstallHint != "" {
			fmt.Fprintf(w, "    %s\n", s.hint.Render("Install: "+st.InstallHint))
		}
	}
}
