package harness

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pkltask/internal/config"
	"github.com/dkoosis/pkltask/internal/procexec"
)

func TestNewExample_Fails_When_ProjectDirMissing(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	_, err := NewExample(cfg, "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProjectDirMissing)
}

func TestOrchestratorCommand_BuildsArgvInOrder(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	dir := writeFixture(t, cfg, "basicUsage", "config.json")
	e, err := NewExample(cfg, "basicUsage")
	require.NoError(t, err)

	cmd, err := e.OrchestratorCommand(VerbPublish, "net472")

	require.NoError(t, err)
	assert.Equal(t, cfg.Orchestrator, cmd.Name)
	assert.Equal(t, []string{
		"publish",
		"--configuration", "Debug",
		"/p:PackageVersion=1.0.0-test",
		"/p:RuntimeSuffix=linux-x64",
		"/p:TargetFramework=net472",
		filepath.Join(dir, "basicUsage.proj"),
	}, cmd.Args)
	assert.Equal(t, dir, cmd.Dir)
	assert.Equal(t, []string{"DOTNET_NOLOGO=true"}, cmd.Env)
}

func TestOrchestratorCommand_OmitsTargetFramework_When_Empty(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	writeFixture(t, cfg, "basicUsage")
	e, err := NewExample(cfg, "basicUsage", WithProjectFile("custom.csproj"))
	require.NoError(t, err)

	cmd, err := e.OrchestratorCommand(VerbBuild, "")

	require.NoError(t, err)
	require.Len(t, cmd.Args, 6)
	assert.NotContains(t, strings.Join(cmd.Args, " "), "TargetFramework")
	assert.Equal(t, filepath.Join(e.ProjectDir, "custom.csproj"), cmd.Args[5])
}

func TestBuild_SpawnsNothing_When_RuntimeSuffixMissing(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.RuntimeSuffix = ""
	writeFixture(t, cfg, "basicUsage")
	runner := &recordingRunner{}
	e, err := NewExample(cfg, "basicUsage", WithRunner(runner))
	require.NoError(t, err)

	_, err = e.Build(context.Background(), true)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingConfiguration)
	assert.Contains(t, err.Error(), "RuntimeSuffix")
	assert.Empty(t, runner.Calls())
}

func TestPublish_Fails_When_NotBuilt(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	writeFixture(t, cfg, "basicUsage")
	runner := &recordingRunner{}
	e, err := NewExample(cfg, "basicUsage", WithRunner(runner))
	require.NoError(t, err)

	_, err = e.Publish(context.Background(), "", true)

	assert.ErrorIs(t, err, ErrPublishWithoutBuild)
	assert.Empty(t, runner.Calls())
}

func TestBuild_ReportsHighestPrioritySignal_When_ExitCodeUnexpected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result procexec.Result
		want   string
	}{
		{"stderr wins", procexec.Result{ExitCode: 1, Stdout: "out", Stderr: "err"}, "Unexpected StdErr content:\nerr"},
		{"stdout next", procexec.Result{ExitCode: 1, Stdout: "out"}, "Unexpected StdOut content:\nout"},
		{"exit code last", procexec.Result{ExitCode: 4}, "Unexpected MSBuild exit code: 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			writeFixture(t, cfg, "basicUsage")
			result := tt.result
			runner := &recordingRunner{handle: func(context.Context, procexec.Command) (*procexec.Result, error) {
				return &result, nil
			}}
			e, err := NewExample(cfg, "basicUsage", WithRunner(runner))
			require.NoError(t, err)

			got, err := e.Build(context.Background(), true)

			require.Error(t, err)
			var failure *ProcessExecutionFailure
			require.True(t, errors.As(err, &failure))
			assert.Same(t, got, failure.Result)
			var unexpected *UnexpectedOutputError
			require.True(t, errors.As(err, &unexpected))
			assert.Equal(t, tt.want, unexpected.Error())
		})
	}
}

func TestBuild_ExpectedFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	writeFixture(t, cfg, "errorHandling")
	exit := 1
	runner := &recordingRunner{handle: func(context.Context, procexec.Command) (*procexec.Result, error) {
		return &procexec.Result{ExitCode: exit, Stdout: pklMissingDelimiter}, nil
	}}
	e, err := NewExample(cfg, "errorHandling", WithRunner(runner))
	require.NoError(t, err)

	result, err := e.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)

	_, err = e.Publish(context.Background(), "", true)
	assert.ErrorIs(t, err, ErrPublishWithoutBuild, "a failed build does not enable publish")

	exit = 0
	_, err = e.Build(context.Background(), false)
	var failure *ProcessExecutionFailure
	require.True(t, errors.As(err, &failure), "a zero exit is a failure when failure was expected")
	assert.False(t, failure.ExpectSuccess)
}

func TestOutputPaths(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	dir := writeFixture(t, cfg, "basicUsage")
	e, err := NewExample(cfg, "basicUsage")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "bin", "Debug", "net8.0", "config.json"), e.BuildFilePath("config.json", ""))
	assert.Equal(t, filepath.Join(dir, "bin", "Debug", "net472", "publish", "sub", "a.yaml"), e.PublishedFilePath("sub/a.yaml", "net472"))
}

func TestBuildPublish_RoundTrip(t *testing.T) {
	t.Setenv(fakeOrchestratorEnv, "ok")
	cfg := testConfig(t)
	writeFixture(t, cfg, "multipleFormats", "app.json", "app-config.xml", "app-config.yaml", "simple.properties")
	e, err := NewExample(cfg, "multipleFormats")
	require.NoError(t, err)
	files := []string{"app.json", "app-config.xml", "app-config.yaml", "simple.properties"}
	ctx := context.Background()

	require.NoError(t, e.CleanProjectDir())
	result, err := e.Build(ctx, true)
	require.NoError(t, err)
	require.NoError(t, ExpectEmpty("stderr", result.Stderr))
	require.NoError(t, e.ExpectBuildFiles("", files...))
	require.Error(t, e.ExpectPublishedFiles("", files...), "nothing published yet")

	_, err = e.Publish(ctx, "", true)
	require.NoError(t, err)
	assert.NoError(t, e.ExpectPublishedFiles("", files...))
}

func TestPublish_KeepsTargetFrameworksIsolated(t *testing.T) {
	t.Setenv(fakeOrchestratorEnv, "ok")
	cfg := testConfig(t)
	writeFixture(t, cfg, "basicMultiTarget", "config.json")
	e, err := NewExample(cfg, "basicMultiTarget")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, e.CleanProjectDir())
	_, err = e.Build(ctx, true)
	require.NoError(t, err)

	_, err = e.Publish(ctx, "net8.0", true)
	require.NoError(t, err)
	require.NoError(t, e.ExpectPublishedFiles("net8.0", "config.json"))
	require.Error(t, e.ExpectPublishedFiles("net472", "config.json"))

	_, err = e.Publish(ctx, "net472", true)
	require.NoError(t, err)
	assert.NoError(t, e.ExpectPublishedFiles("net8.0", "config.json"))
	assert.NoError(t, e.ExpectPublishedFiles("net472", "config.json"))
}

func TestBuild_ReportsStderr_When_RealProcessFails(t *testing.T) {
	t.Setenv(fakeOrchestratorEnv, "stderr")
	cfg := testConfig(t)
	writeFixture(t, cfg, "basicUsage")
	e, err := NewExample(cfg, "basicUsage")
	require.NoError(t, err)

	_, err = e.Build(context.Background(), true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unexpected StdErr content:\nfatal: restore failed")
}

func TestCleanProjectDir_RemovesBuildOutput(t *testing.T) {
	t.Setenv(fakeOrchestratorEnv, "ok")
	cfg := testConfig(t)
	dir := writeFixture(t, cfg, "basicUsage", "config.json")
	e, err := NewExample(cfg, "basicUsage")
	require.NoError(t, err)
	_, err = e.Build(context.Background(), true)
	require.NoError(t, err)
	require.NoError(t, e.ExpectBuildFiles("", "config.json"))

	require.NoError(t, e.CleanProjectDir())
	require.NoError(t, e.CleanProjectDir())

	assert.NoError(t, e.ExpectNoBuildFiles("", "config.json"))
	assert.NoDirExists(t, filepath.Join(dir, "obj"))
	assert.FileExists(t, filepath.Join(dir, "basicUsage.proj"))
	_, err = e.Publish(context.Background(), "", true)
	assert.ErrorIs(t, err, ErrPublishWithoutBuild)
}

func TestBuild_KillsProcess_When_ContextExpires(t *testing.T) {
	t.Setenv(fakeOrchestratorEnv, "sleep")
	cfg := testConfig(t)
	writeFixture(t, cfg, "basicUsage")
	e, err := NewExample(cfg, "basicUsage")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = e.Build(ctx, true)

	require.Error(t, err)
	assert.ErrorIs(t, err, procexec.ErrTimeout)
}
