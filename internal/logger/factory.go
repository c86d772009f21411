// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to the log.levels config keys.
// These ensure consistent logger names across the codebase.

// GetRelayLogger returns a logger for relay requests
func GetRelayLogger() zerolog.Logger {
	return GetLogger("relay")
}

// GetBackendLogger returns a logger for backend adapters
func GetBackendLogger() zerolog.Logger {
	return GetLogger("backend")
}

// GetInstallerLogger returns a logger for plugin install operations
func GetInstallerLogger() zerolog.Logger {
	return GetLogger("installer")
}

// GetCLILogger returns a logger for the command layer
func GetCLILogger() zerolog.Logger {
	return GetLogger("cli")
}

// GetGitLogger returns a logger for git operations
func GetGitLogger() zerolog.Logger {
	return GetLogger("git")
}

// GetConfigLogger returns a logger for configuration loading and edits
func GetConfigLogger() zerolog.Logger {
	return GetLogger("config")
}
