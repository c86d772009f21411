// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noldarim/phone-a-friend/internal/backends"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, cmd backends.Command) (*backends.Result, error) {
	args := m.Called(ctx, cmd)
	var result *backends.Result
	if r := args.Get(0); r != nil {
		result = r.(*backends.Result)
	}
	return result, args.Error(1)
}

func makeRepo(t *testing.T) string {
	t.Helper()
	repo, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".claude-plugin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".claude-plugin", "plugin.json"), []byte(`{"name":"phone-a-friend"}`), 0o644))
	return repo
}

func noClaude(string) (string, error) { return "", errors.New("not found") }

func newTestInstaller() *Installer {
	return &Installer{Runner: &mockRunner{}, LookPath: noClaude}
}

func installOpts(repo, home string, mode Mode) Options {
	return Options{RepoRoot: repo, Target: TargetClaude, Mode: mode, ClaudeHome: home}
}

func TestInstall_Symlink(t *testing.T) {
	repo := makeRepo(t)
	home := t.TempDir()

	lines, err := newTestInstaller().Install(context.Background(), installOpts(repo, home, ModeSymlink))
	require.NoError(t, err)

	target := filepath.Join(home, "plugins", "phone-a-friend")
	info, err := os.Lstat(target)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	resolved, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, repo, resolved)

	assert.Equal(t, []string{
		"phone-a-friend installer",
		"- repo_root: " + repo,
		"- mode: symlink",
		"- claude: installed -> " + target,
	}, lines)
}

func TestInstall_Copy(t *testing.T) {
	repo := makeRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "skills", "relay"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "skills", "relay", "SKILL.md"), []byte("# relay"), 0o644))
	require.NoError(t, os.Symlink("SKILL.md", filepath.Join(repo, "skills", "relay", "README.md")))
	home := t.TempDir()

	lines, err := newTestInstaller().Install(context.Background(), installOpts(repo, home, ModeCopy))
	require.NoError(t, err)

	target := filepath.Join(home, "plugins", "phone-a-friend")
	info, err := os.Lstat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.FileExists(t, filepath.Join(target, ".claude-plugin", "plugin.json"))

	data, err := os.ReadFile(filepath.Join(target, "skills", "relay", "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "# relay", string(data))

	link, err := os.Readlink(filepath.Join(target, "skills", "relay", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "SKILL.md", link)

	assert.Contains(t, lines, "- mode: copy")
	assert.Contains(t, lines, "- claude: installed -> "+target)
}

func TestInstall_AlreadyInstalled(t *testing.T) {
	repo := makeRepo(t)
	home := t.TempDir()
	inst := newTestInstaller()

	_, err := inst.Install(context.Background(), installOpts(repo, home, ModeSymlink))
	require.NoError(t, err)

	lines, err := inst.Install(context.Background(), installOpts(repo, home, ModeSymlink))
	require.NoError(t, err)
	assert.Contains(t, lines, "- claude: already-installed -> "+filepath.Join(home, "plugins", "phone-a-friend"))
}

func TestInstall_ExistingDestination(t *testing.T) {
	repo := makeRepo(t)
	home := t.TempDir()
	target := filepath.Join(home, "plugins", "phone-a-friend")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "stale.txt"), []byte("old"), 0o644))
	inst := newTestInstaller()

	_, err := inst.Install(context.Background(), installOpts(repo, home, ModeSymlink))
	require.Error(t, err)
	assert.Equal(t, "destination already exists: "+target, err.Error())

	opts := installOpts(repo, home, ModeSymlink)
	opts.Force = true
	lines, err := inst.Install(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, lines, "- claude: installed -> "+target)

	resolved, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, repo, resolved)
}

func TestInstall_ExistingLinkToSameCheckout(t *testing.T) {
	repo := makeRepo(t)
	home := t.TempDir()
	inst := newTestInstaller()

	_, err := inst.Install(context.Background(), installOpts(repo, home, ModeSymlink))
	require.NoError(t, err)

	opts := installOpts(repo, home, ModeCopy)
	opts.Force = true
	// A link to the same checkout counts as installed regardless of mode.
	lines, err := inst.Install(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, lines[len(lines)-1], "already-installed")

	// The checkout behind the link is untouched.
	assert.FileExists(t, filepath.Join(repo, ".claude-plugin", "plugin.json"))
}

func TestInstall_InvalidInputs(t *testing.T) {
	repo := makeRepo(t)
	invalid, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"invalid repo root", Options{RepoRoot: invalid, Target: TargetClaude, Mode: ModeSymlink}, "invalid repo root: " + invalid},
		{"invalid target", Options{RepoRoot: repo, Target: "codex", Mode: ModeSymlink}, "invalid target: codex"},
		{"invalid mode", Options{RepoRoot: repo, Target: TargetClaude, Mode: "hardlink"}, "invalid mode: hardlink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.ClaudeHome = t.TempDir()
			_, err := newTestInstaller().Install(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestInstall_AllTargetAlias(t *testing.T) {
	repo := makeRepo(t)
	home := t.TempDir()
	opts := installOpts(repo, home, ModeSymlink)
	opts.Target = TargetAll

	_, err := newTestInstaller().Install(context.Background(), opts)
	require.NoError(t, err)

	target := filepath.Join(home, "plugins", "phone-a-friend")
	info, err := os.Lstat(target)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	resolved, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, repo, resolved)
}

func TestUninstall(t *testing.T) {
	repo := makeRepo(t)
	home := t.TempDir()
	inst := newTestInstaller()
	target := filepath.Join(home, "plugins", "phone-a-friend")

	_, err := inst.Install(context.Background(), installOpts(repo, home, ModeSymlink))
	require.NoError(t, err)

	lines, err := inst.Uninstall(TargetClaude, home)
	require.NoError(t, err)
	assert.Equal(t, []string{"phone-a-friend uninstaller", "- claude: removed -> " + target}, lines)

	_, err = os.Lstat(target)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(repo, ".claude-plugin", "plugin.json"))

	lines, err = inst.Uninstall(TargetClaude, home)
	require.NoError(t, err)
	assert.Equal(t, "- claude: not-installed -> "+target, lines[1])

	_, err = inst.Uninstall("vscode", home)
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	inst := &Installer{LookPath: func(name string) (string, error) {
		if name == "codex" {
			return "/usr/bin/codex", nil
		}
		return "", errors.New("not found")
	}}

	byName := map[string]backends.Status{}
	for _, s := range inst.Verify() {
		byName[s.Name] = s
	}
	assert.True(t, byName["codex"].Available)
	assert.False(t, byName["gemini"].Available)
	assert.Contains(t, byName["gemini"].InstallHint, "npm")
}

func TestSync_SkipsWhenClaudeMissing(t *testing.T) {
	repo := makeRepo(t)
	runner := &mockRunner{}
	inst := &Installer{Runner: runner, LookPath: noClaude}

	lines := inst.syncClaudeRegistration(context.Background(), repo)
	assert.Equal(t, []string{"- claude_cli: skipped (claude binary not found)"}, lines)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestSync_RunsAllSteps(t *testing.T) {
	repo := makeRepo(t)
	home := t.TempDir()
	runner := &mockRunner{}
	isStep := func(sub string) any {
		return mock.MatchedBy(func(cmd backends.Command) bool {
			return strings.Join(cmd.Args, " ") == sub
		})
	}

	runner.On("Run", mock.Anything, isStep("plugin marketplace add "+repo)).
		Return(&backends.Result{ExitCode: 1, Stderr: "Marketplace 'phone-a-friend-dev' is already added"}, nil)
	runner.On("Run", mock.Anything, isStep("plugin marketplace update phone-a-friend-dev")).
		Return(&backends.Result{Stdout: "Updated"}, nil)
	runner.On("Run", mock.Anything, isStep("plugin install phone-a-friend@phone-a-friend-dev -s user")).
		Return(&backends.Result{ExitCode: 1, Stderr: "network unreachable\n"}, nil)
	runner.On("Run", mock.Anything, isStep("plugin enable phone-a-friend@phone-a-friend-dev -s user")).
		Return(&backends.Result{ExitCode: 1}, nil)
	runner.On("Run", mock.Anything, isStep("plugin update phone-a-friend@phone-a-friend-dev")).
		Return(nil, errors.New("command execution failed: permission denied"))

	inst := &Installer{Runner: runner, LookPath: func(string) (string, error) { return "/opt/bin/claude", nil }}
	opts := installOpts(repo, home, ModeSymlink)
	opts.SyncClaudeCLI = true

	lines, err := inst.Install(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"- claude_cli_marketplace_add: ok",
		"- claude_cli_marketplace_update: ok",
		"- claude_cli_install: failed",
		"  output: network unreachable",
		"- claude_cli_enable: failed",
		"- claude_cli_update: failed",
		"  output: command execution failed: permission denied",
	}, lines[4:])
	runner.AssertExpectations(t)

	for _, call := range runner.Calls {
		assert.Equal(t, "/opt/bin/claude", call.Arguments.Get(1).(backends.Command).Path)
	}
}

func TestLooksAlreadyDone(t *testing.T) {
	assert.True(t, looksAlreadyDone("Plugin is ALREADY INSTALLED"))
	assert.True(t, looksAlreadyDone("marketplace already up to date"))
	assert.False(t, looksAlreadyDone("error: not found"))
	assert.False(t, looksAlreadyDone(""))
}

func TestClaudeTarget(t *testing.T) {
	got, err := ClaudeTarget("/tmp/claude-home")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/claude-home", "plugins", "phone-a-friend"), got)

	t.Setenv("HOME", "/home/dev")
	got, err = ClaudeTarget("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/dev", ".claude", "plugins", "phone-a-friend"), got)
}
