package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envMap returns a Getenv backed by m so tests never see the real environment.
func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func isolateUserConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv("HOME", home)
}

func TestLoad_ReturnsDefaults_When_NoSourcesPresent(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()

	cfg, err := Load(LoadOptions{Dir: dir, Getenv: envMap(nil)})

	require.NoError(t, err)
	assert.Equal(t, DefaultPackageVersion, cfg.PackageVersion)
	assert.Equal(t, DefaultBinaryVersion, cfg.BinaryVersion)
	assert.Equal(t, DefaultConfiguration, cfg.Configuration)
	assert.Equal(t, DefaultTargetFramework, cfg.DefaultTargetFramework)
	assert.Equal(t, DefaultScenarioTimeout, cfg.ScenarioTimeout)
	assert.Equal(t, DefaultSetupTimeout, cfg.SetupTimeout)
	assert.Equal(t, filepath.Join(dir, DefaultExamplesDir), cfg.ExamplesDir)
	assert.Equal(t, filepath.Join(dir, DefaultLocalPackagesDir), cfg.LocalPackagesDir)
	assert.False(t, cfg.BuildPackages)
	assert.Empty(t, cfg.RuntimeSuffix)
	assert.Equal(t, SourceDefault, cfg.Sources["package_version"])
}

func TestLoad_AppliesPriority_When_AllSourcesPresent(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	yamlContent := "" +
		"package_version: 2.0.0-file\n" +
		"binary_version: 0.1.0-file\n" +
		"runtime_suffix: osx-x64\n" +
		"scenario_timeout: 90s\n" +
		"clean_globs: [bin, obj, generated]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yamlContent), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFileName), []byte("BINARY_VERSION=0.2.0-dotenv\nRuntimeSuffix=linux-x64\n"), 0o600))

	cfg, err := Load(LoadOptions{Dir: dir, Getenv: envMap(map[string]string{
		"RuntimeSuffix":  "win-x64",
		"BUILD_PACKAGES": "true",
	})})

	require.NoError(t, err)
	assert.Equal(t, "2.0.0-file", cfg.PackageVersion)
	assert.Equal(t, SourceFile, cfg.Sources["package_version"])
	assert.Equal(t, "0.2.0-dotenv", cfg.BinaryVersion)
	assert.Equal(t, SourceDotEnv, cfg.Sources["binary_version"])
	assert.Equal(t, "win-x64", cfg.RuntimeSuffix)
	assert.Equal(t, SourceEnv, cfg.Sources["runtime_suffix"])
	assert.True(t, cfg.BuildPackages)
	assert.Equal(t, 90*time.Second, cfg.ScenarioTimeout)
	assert.Equal(t, []string{"bin", "obj", "generated"}, cfg.CleanGlobs)
}

func TestLoad_DoesNotExportDotEnv(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFileName), []byte("PKLTASK_TEST_DOTENV_ONLY=1\n"), 0o600))

	_, err := Load(LoadOptions{Dir: dir, Getenv: envMap(nil)})

	require.NoError(t, err)
	assert.Empty(t, os.Getenv("PKLTASK_TEST_DOTENV_ONLY"))
}

func TestLoad_TreatsOnlyLiteralTrueAsBuildPackages(t *testing.T) {
	isolateUserConfig(t)

	for val, want := range map[string]bool{"true": true, "1": false, "TRUE": false, "false": false} {
		cfg, err := Load(LoadOptions{Dir: t.TempDir(), Getenv: envMap(map[string]string{"BUILD_PACKAGES": val})})
		require.NoError(t, err)
		assert.Equal(t, want, cfg.BuildPackages, "BUILD_PACKAGES=%q", val)
	}
}

func TestLoad_EnablesDebug_When_DebugVariableSet(t *testing.T) {
	isolateUserConfig(t)

	cfg, err := Load(LoadOptions{Dir: t.TempDir(), Getenv: envMap(map[string]string{"PKLTASK_DEBUG": "1"})})

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ReportsEveryBadValue_When_EnvInvalid(t *testing.T) {
	isolateUserConfig(t)

	_, err := Load(LoadOptions{Dir: t.TempDir(), Getenv: envMap(map[string]string{
		"PKLTASK_SCENARIO_TIMEOUT": "soon",
		"PKLTASK_PARALLELISM":      "many",
	})})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PKLTASK_SCENARIO_TIMEOUT")
	assert.Contains(t, err.Error(), "PKLTASK_PARALLELISM")
}

func TestLoad_FailsValidation_When_LogFormatUnknown(t *testing.T) {
	isolateUserConfig(t)

	_, err := Load(LoadOptions{Dir: t.TempDir(), Getenv: envMap(map[string]string{"PKLTASK_LOG_FORMAT": "xml"})})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestLoad_ReturnsError_When_YAMLMalformed(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("package_version: [unterminated\n"), 0o600))

	_, err := Load(LoadOptions{Dir: dir, Getenv: envMap(nil)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), ConfigFileName)
}

func TestLoad_UsesUserConfigDir_When_LocalFileMissing(t *testing.T) {
	home := t.TempDir()
	xdg := filepath.Join(home, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "pkltask"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "pkltask", ConfigFileName), []byte("orchestrator: /opt/dotnet/dotnet\n"), 0o600))

	cfg, err := Load(LoadOptions{Dir: t.TempDir(), Getenv: envMap(nil)})

	require.NoError(t, err)
	if cfg.Sources["orchestrator"] == SourceFile {
		assert.Equal(t, "/opt/dotnet/dotnet", cfg.Orchestrator)
	} else {
		// os.UserConfigDir ignores XDG_CONFIG_HOME on darwin and windows.
		assert.Equal(t, DefaultOrchestrator, cfg.Orchestrator)
	}
}

func TestRequireRuntimeSuffix_NamesVariableAndExamples_When_Unset(t *testing.T) {
	t.Parallel()

	_, err := Defaults().RequireRuntimeSuffix()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingConfiguration))
	var missing *MissingConfigurationError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "RuntimeSuffix", missing.Variable)
	assert.Contains(t, err.Error(), "win-x64, linux-x64, osx-x64")
}

func TestRequireRuntimeSuffix_ReturnsValue_When_Set(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.RuntimeSuffix = "linux-x64"

	rid, err := cfg.RequireRuntimeSuffix()

	require.NoError(t, err)
	assert.Equal(t, "linux-x64", rid)
}

func TestLoad_ResolvesSourceRootUnderDir_When_Relative(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("source_root: ../src\n"), 0o600))

	cfg, err := Load(LoadOptions{Dir: dir, Getenv: envMap(nil)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "..", "src"), cfg.SourceRoot)
	assert.Equal(t, SourceFile, cfg.Sources["source_root"])

	cfg, err = Load(LoadOptions{Dir: dir, Getenv: envMap(map[string]string{"PKLTASK_SOURCE_ROOT": "/abs/src"})})
	require.NoError(t, err)
	assert.Equal(t, "/abs/src", cfg.SourceRoot)
	assert.Equal(t, SourceEnv, cfg.Sources["source_root"])
}

func TestLoad_LeavesSourceRootEmpty_When_Unset(t *testing.T) {
	isolateUserConfig(t)

	cfg, err := Load(LoadOptions{Dir: t.TempDir(), Getenv: envMap(nil)})

	require.NoError(t, err)
	assert.Empty(t, cfg.SourceRoot)
}
