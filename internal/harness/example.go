// Package harness drives a build orchestrator through clean, build and
// publish cycles against fixture projects and checks the files and logs
// those cycles leave behind.
//
// An Example owns its project directory for the duration of a scenario.
// Every call blocks until the child process exits; timeouts come from the
// caller's context and kill the process group abruptly. Nothing is retried.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/pkltask/internal/config"
	"github.com/dkoosis/pkltask/internal/logging"
	"github.com/dkoosis/pkltask/internal/procexec"
)

// Orchestrator verbs.
const (
	VerbClean   = "clean"
	VerbBuild   = "build"
	VerbPublish = "publish"
)

const (
	orchestratorTool = "MSBuild"
	publishDirName   = "publish"
	binDirName       = "bin"
)

// Example is one fixture project.
type Example struct {
	Name        string
	ProjectDir  string
	ProjectFile string

	cfg    *config.Config
	runner procexec.Runner
	log    logrus.FieldLogger
	built  bool
}

// Option configures an Example.
type Option func(*Example)

// WithProjectFile overrides the default "<name>.proj" project file.
func WithProjectFile(file string) Option {
	return func(e *Example) { e.ProjectFile = filepath.Join(e.ProjectDir, file) }
}

// WithRunner replaces the process runner.
func WithRunner(r procexec.Runner) Option {
	return func(e *Example) { e.runner = r }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Example) { e.log = l }
}

// NewExample resolves name to <ExamplesDir>/<name>/ and fails if that
// directory does not exist.
func NewExample(cfg *config.Config, name string, opts ...Option) (*Example, error) {
	projectDir := filepath.Clean(filepath.Join(cfg.ExamplesDir, name))
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProjectDirMissing, projectDir)
	}

	e := &Example{
		Name:        name,
		ProjectDir:  projectDir,
		ProjectFile: filepath.Join(projectDir, name+".proj"),
		cfg:         cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	if e.runner == nil {
		e.runner = procexec.NewExec(e.log)
	}
	e.log = e.log.WithField("example", name)
	return e, nil
}

// CleanProjectDir resets the project directory to its checked-in baseline
// by removing generated output. Running it twice is the same as once.
func (e *Example) CleanProjectDir() error {
	e.built = false
	removed, err := ResetToBaseline(e.ProjectDir, e.cfg.CleanGlobs)
	if err != nil {
		return fmt.Errorf("cleaning %s: %w", e.ProjectDir, err)
	}
	e.log.WithField("removed", len(removed)).Debug("project dir reset")
	return nil
}

// Clean runs the orchestrator's clean verb.
func (e *Example) Clean(ctx context.Context, expectSuccess bool) (*procexec.Result, error) {
	e.built = false
	return e.runOrchestrator(ctx, VerbClean, expectSuccess, "")
}

// Build runs the orchestrator's build verb. With expectSuccess false a
// non-zero exit is the expected outcome, and a zero exit is the failure.
func (e *Example) Build(ctx context.Context, expectSuccess bool) (*procexec.Result, error) {
	result, err := e.runOrchestrator(ctx, VerbBuild, expectSuccess, "")
	if err == nil {
		e.built = result.ExitCode == 0
	}
	return result, err
}

// Publish runs the orchestrator's publish verb, optionally for one target
// framework. It requires a prior successful Build.
func (e *Example) Publish(ctx context.Context, targetFramework string, expectSuccess bool) (*procexec.Result, error) {
	if !e.built {
		return nil, fmt.Errorf("%s: %w", e.Name, ErrPublishWithoutBuild)
	}
	return e.runOrchestrator(ctx, VerbPublish, expectSuccess, targetFramework)
}

// OrchestratorCommand returns the command Build/Publish/Clean would run.
func (e *Example) OrchestratorCommand(verb, targetFramework string) (procexec.Command, error) {
	runtimeSuffix, err := e.cfg.RequireRuntimeSuffix()
	if err != nil {
		return procexec.Command{}, err
	}
	args := []string{
		verb,
		"--configuration", e.cfg.Configuration,
		"/p:PackageVersion=" + e.cfg.PackageVersion,
		"/p:RuntimeSuffix=" + runtimeSuffix,
	}
	if targetFramework != "" {
		args = append(args, "/p:TargetFramework="+targetFramework)
	}
	args = append(args, e.ProjectFile)
	return procexec.Command{
		Name: e.cfg.Orchestrator,
		Args: args,
		Dir:  e.ProjectDir,
		Env:  []string{"DOTNET_NOLOGO=true"},
	}, nil
}

func (e *Example) runOrchestrator(ctx context.Context, verb string, expectSuccess bool, targetFramework string) (*procexec.Result, error) {
	cmd, err := e.OrchestratorCommand(verb, targetFramework)
	if err != nil {
		return nil, err
	}

	log := e.log.WithFields(logrus.Fields{"verb": verb, "tfm": targetFramework})
	log.Debug("running orchestrator")

	result, err := e.runner.Run(ctx, cmd)
	if err != nil {
		return result, fmt.Errorf("%s %s: %w", e.Name, verb, err)
	}
	log.WithFields(logrus.Fields{"exit_code": result.ExitCode, "duration": result.Duration}).Info(verb + " finished")

	if (result.ExitCode == 0) != expectSuccess {
		return result, handleFailure(orchestratorTool, cmd, expectSuccess, result)
	}
	return result, nil
}

// BuildFilePath resolves a build output path:
// <projectDir>/bin/<configuration>/<tfm>/<rel>.
func (e *Example) BuildFilePath(rel, targetFramework string) string {
	return e.outputPath(rel, targetFramework, false)
}

// PublishedFilePath resolves a publish output path:
// <projectDir>/bin/<configuration>/<tfm>/publish/<rel>.
func (e *Example) PublishedFilePath(rel, targetFramework string) string {
	return e.outputPath(rel, targetFramework, true)
}

func (e *Example) outputPath(rel, targetFramework string, published bool) string {
	if targetFramework == "" {
		targetFramework = e.cfg.DefaultTargetFramework
	}
	dir := filepath.Join(e.ProjectDir, binDirName, e.cfg.Configuration, targetFramework)
	if published {
		dir = filepath.Join(dir, publishDirName)
	}
	return filepath.Join(dir, filepath.FromSlash(rel))
}
