package magetasks

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestInitialize_CreatesBinDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, Initialize())

	assert.DirExists(t, filepath.Join(dir, "bin"))
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(ProjectRoot)
	assert.Equal(t, want, got)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "github.com/dkoosis/pkltask", ModulePath)
	assert.Equal(t, "./bin/pkltask", BinPath)
}

func TestHeaders(t *testing.T) {
	out := captureOut(t)

	PrintH1Header("pkltask QA")
	PrintH2Header("Build")

	assert.Contains(t, out.String(), "pkltask QA")
	assert.Contains(t, out.String(), "=== Build ===")
}

func TestRun_ReportsSuccessQuietly(t *testing.T) {
	out := captureOut(t)

	err := Run("self", os.Args[0], "-test.run=^$")

	require.NoError(t, err)
	assert.Contains(t, out.String(), "✅ self")
	assert.NotContains(t, out.String(), "PASS")
}

func TestRun_ShowsOutput_When_ToolFails(t *testing.T) {
	out := captureOut(t)

	err := Run("self", os.Args[0], "-test.no-such-flag")

	require.Error(t, err)
	assert.Contains(t, out.String(), "❌ self (exit 2)")
	assert.Contains(t, out.String(), "no-such-flag")
}

func TestRun_ReportsMissingTool(t *testing.T) {
	captureOut(t)

	err := Run("ghost", "pkltask-no-such-tool")

	require.Error(t, err)
	assert.True(t, IsCommandNotFound(err))
}

func TestClean_ResetsExampleProjects(t *testing.T) {
	captureOut(t)
	dir := t.TempDir()
	t.Chdir(dir)
	example := filepath.Join(dir, E2EDir, "examples", "basicUsage")
	require.NoError(t, os.MkdirAll(filepath.Join(example, "bin", "Debug"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(example, "config.pkl"), nil, 0o600))

	require.NoError(t, Clean())

	assert.NoDirExists(t, filepath.Join(example, "bin"))
	assert.NoDirExists(t, filepath.Join(dir, "bin"))
	assert.FileExists(t, filepath.Join(example, "config.pkl"))
}

func TestE2ETarget_RequiresRuntimeSuffix(t *testing.T) {
	captureOut(t)
	t.Setenv("RuntimeSuffix", "")

	assert.ErrorIs(t, TestE2E(), ErrNoRuntimeSuffix)
}
