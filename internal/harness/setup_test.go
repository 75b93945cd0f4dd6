package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pkltask/internal/config"
	"github.com/dkoosis/pkltask/internal/procexec"
)

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	touch(t, filepath.Join(root, "go.mod"))
	return root
}

func TestSetup_OnlyCreatesPackagesDir_When_BuildDisabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	runner := &recordingRunner{}

	steps, err := Setup(context.Background(), cfg, SetupOptions{Runner: runner})

	require.NoError(t, err)
	assert.Empty(t, steps)
	assert.DirExists(t, cfg.LocalPackagesDir)
	assert.Empty(t, runner.Calls())
}

func TestSetup_CrossCompilesTaskBinary_When_BuildEnabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.BuildPackages = true
	cfg.RuntimeSuffix = "osx-arm64"
	root := setupRoot(t)
	runner := &recordingRunner{}

	steps, err := Setup(context.Background(), cfg, SetupOptions{SourceRoot: root, Runner: runner})

	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "pkltask-1.0.0-test-osx-arm64", steps[0].Package)
	assert.False(t, steps[0].Skipped)
	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "go", calls[0].Name)
	assert.Equal(t, root, calls[0].Dir)
	assert.Equal(t, []string{
		"build",
		"-trimpath",
		"-ldflags", "-s -w -X github.com/dkoosis/pkltask/internal/version.Version=1.0.0-test" +
			" -X github.com/dkoosis/pkltask/internal/version.InterpreterVersion=0.29.1",
		"-o", filepath.Join(cfg.LocalPackagesDir, "pkltask-1.0.0-test-osx-arm64"),
		TaskPackage,
	}, calls[0].Args)
	assert.Equal(t, []string{"GOOS=darwin", "GOARCH=arm64", "CGO_ENABLED=0"}, calls[0].Env)
}

func TestSetup_UsesSourceRootFromConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.BuildPackages = true
	cfg.SourceRoot = setupRoot(t)
	runner := &recordingRunner{}

	_, err := Setup(context.Background(), cfg, SetupOptions{Runner: runner, GoTool: "/opt/go/bin/go"})

	require.NoError(t, err)
	require.Len(t, runner.Calls(), 1)
	assert.Equal(t, cfg.SourceRoot, runner.Calls()[0].Dir)
	assert.Equal(t, "/opt/go/bin/go", runner.Calls()[0].Name)
}

func TestSetup_SkipsBinaryAlreadyBuilt(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.BuildPackages = true
	touch(t, filepath.Join(cfg.LocalPackagesDir, "pkltask-1.0.0-test-linux-x64"))
	runner := &recordingRunner{}

	steps, err := Setup(context.Background(), cfg, SetupOptions{SourceRoot: t.TempDir(), Runner: runner})

	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.True(t, steps[0].Skipped)
	assert.Empty(t, runner.Calls())
}

func TestSetup_Fails_When_BuildFails(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.BuildPackages = true
	runner := &recordingRunner{handle: func(context.Context, procexec.Command) (*procexec.Result, error) {
		return &procexec.Result{ExitCode: 1, Stderr: "cmd/pkltask/main.go:3:1: syntax error"}, nil
	}}

	steps, err := Setup(context.Background(), cfg, SetupOptions{SourceRoot: setupRoot(t), Runner: runner})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "building pkltask-1.0.0-test-linux-x64")
	assert.Contains(t, err.Error(), "syntax error")
	require.Len(t, steps, 1)
	assert.Equal(t, 1, steps[0].Result.ExitCode)
}

func TestSetup_Fails_When_ModuleMissing(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.BuildPackages = true
	runner := &recordingRunner{}

	_, err := Setup(context.Background(), cfg, SetupOptions{SourceRoot: t.TempDir(), Runner: runner})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "task module not found")
	assert.Empty(t, runner.Calls())
}

func TestSetup_RejectsUnknownRuntime(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.BuildPackages = true
	cfg.RuntimeSuffix = "solaris-sparc"

	_, err := Setup(context.Background(), cfg, SetupOptions{SourceRoot: setupRoot(t), Runner: &recordingRunner{}})

	assert.ErrorIs(t, err, ErrUnsupportedRuntime)
}

func TestSetup_RequiresRuntimeSuffix(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.BuildPackages = true
	cfg.RuntimeSuffix = ""

	_, err := Setup(context.Background(), cfg, SetupOptions{SourceRoot: setupRoot(t), Runner: &recordingRunner{}})

	assert.ErrorIs(t, err, config.ErrMissingConfiguration)
}

func TestTaskBinaryName_AddsExeForWindows(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pkltask-2.0.0-win-x64.exe", TaskBinaryName("2.0.0", "win-x64"))
	assert.Equal(t, "pkltask-2.0.0-linux-x64", TaskBinaryName("2.0.0", "linux-x64"))
}
