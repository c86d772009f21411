// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noldarim/phone-a-friend/internal/config"
)

func TestNewManager(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.LogConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "minimal_config",
			config: &config.LogConfig{
				Level:  "info",
				Format: "json",
				Output: []config.LogOutputConfig{
					{Type: "console", Enabled: true},
				},
			},
		},
		{
			name: "file_output_config",
			config: &config.LogConfig{
				Level:  "debug",
				Format: "json",
				Output: []config.LogOutputConfig{
					{Type: "file", Enabled: true, Path: filepath.Join(t.TempDir(), "test.log")},
				},
				Context: config.LogContextConfig{IncludeTimestamp: true, IncludeCaller: true},
			},
		},
		{
			name: "rotating_file_config",
			config: &config.LogConfig{
				Level:  "error",
				Format: "console",
				Output: []config.LogOutputConfig{
					{
						Type:    "file",
						Enabled: true,
						Path:    filepath.Join(t.TempDir(), "rotating.log"),
						Rotate: config.LogRotateConfig{
							MaxSizeMB:  1,
							MaxBackups: 3,
							MaxAgeDays: 7,
							Compress:   true,
						},
					},
				},
			},
		},
		{
			name: "invalid_output_type",
			config: &config.LogConfig{
				Level:  "info",
				Format: "json",
				Output: []config.LogOutputConfig{{Type: "syslog", Enabled: true}},
			},
			expectError: true,
			errorMsg:    "unsupported output type: syslog",
		},
		{
			name: "file_output_without_path",
			config: &config.LogConfig{
				Level:  "info",
				Format: "json",
				Output: []config.LogOutputConfig{{Type: "file", Enabled: true}},
			},
			expectError: true,
			errorMsg:    "file output requires a path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewManager(tt.config)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, manager)
			assert.NoError(t, manager.Close())
		})
	}
}

func TestManager_NoOutputsDiscards(t *testing.T) {
	manager, err := NewManager(&config.LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	defer manager.Close()

	assert.Empty(t, manager.writers)
	l := manager.GetLogger("relay")
	l.Info().Msg("goes nowhere")
}

func TestManager_GetLogger(t *testing.T) {
	var buf bytes.Buffer
	manager, err := newManager(&config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
		Levels: map[string]string{"relay": "debug", "installer": "error"},
	}, &buf)
	require.NoError(t, err)
	defer manager.Close()

	relayLog := manager.GetLogger("relay")
	assert.Equal(t, zerolog.DebugLevel, relayLog.GetLevel())

	installerLog := manager.GetLogger("installer")
	assert.Equal(t, zerolog.ErrorLevel, installerLog.GetLevel())

	other := manager.GetLogger("cli")
	assert.Equal(t, zerolog.InfoLevel, other.GetLevel())

	relayLog.Debug().Str("backend", "codex").Msg("relay start")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "relay", entry["pkg"])
	assert.Equal(t, "codex", entry["backend"])
	assert.Equal(t, "relay start", entry["message"])
}

func TestManager_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	manager, err := newManager(&config.LogConfig{
		Level:  "warn",
		Format: "console",
		Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
	}, &buf)
	require.NoError(t, err)

	l := manager.GetLogger("backend")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "| WARN")
}

func TestManager_SetPackageLevel(t *testing.T) {
	manager, err := newManager(&config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	before := manager.GetLogger("relay")
	assert.Equal(t, zerolog.InfoLevel, before.GetLevel())

	manager.SetPackageLevel("relay", "trace")
	after := manager.GetLogger("relay")
	assert.Equal(t, zerolog.TraceLevel, after.GetLevel())
	assert.Equal(t, "trace", manager.config.Levels["relay"])
}

func TestManager_ThreadSafety(t *testing.T) {
	manager, err := newManager(&config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	const numGoroutines = 50
	const numPackages = 5

	var wg sync.WaitGroup
	wg.Add(numGoroutines * 2)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			manager.GetLogger(fmt.Sprintf("pkg%d", i%numPackages))
		}(i)
		go func(i int) {
			defer wg.Done()
			manager.SetPackageLevel(fmt.Sprintf("pkg%d", i%numPackages), []string{"debug", "info", "warn"}[i%3])
		}(i)
	}
	wg.Wait()

	manager.mu.RLock()
	defer manager.mu.RUnlock()
	assert.LessOrEqual(t, len(manager.packageLoggers), numPackages)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"Error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestManager_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "relay.log")

	manager, err := NewManager(&config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: []config.LogOutputConfig{
			{Type: "console", Enabled: false},
			{Type: "file", Enabled: true, Path: logPath},
		},
	})
	require.NoError(t, err)
	assert.Len(t, manager.writers, 1)

	l := manager.GetLogger("installer")
	l.Info().Str("mode", "symlink").Msg("installed")
	require.NoError(t, manager.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), `"mode":"symlink"`))
}

func TestGlobalLoggerFunctions(t *testing.T) {
	// Uninitialized global logger discards
	l := GetLogger("test")
	l.Info().Msg("this should be discarded")

	cfg := &config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
	}
	require.NoError(t, Initialize(cfg))
	defer func() { globalManager = nil }()

	// Second initialization is a no-op
	require.NoError(t, Initialize(cfg))

	var buf bytes.Buffer
	out := GetLogger("global-test").Output(&buf)
	out.Info().Msg("global test message")
	assert.NotZero(t, buf.Len())

	assert.NoError(t, CloseGlobal())
}
