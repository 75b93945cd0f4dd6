package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/pkltask/internal/config"
	"github.com/dkoosis/pkltask/internal/logging"
	"github.com/dkoosis/pkltask/internal/procexec"
)

// TaskPackage is the Go package of the task binary, relative to the source
// root.
const TaskPackage = "./cmd/pkltask"

const versionPackage = "github.com/dkoosis/pkltask/internal/version"

// goTargets maps runtime identifiers to GOOS/GOARCH pairs.
var goTargets = map[string][2]string{
	"win-x64":     {"windows", "amd64"},
	"win-arm64":   {"windows", "arm64"},
	"linux-x64":   {"linux", "amd64"},
	"linux-arm64": {"linux", "arm64"},
	"osx-x64":     {"darwin", "amd64"},
	"osx-arm64":   {"darwin", "arm64"},
}

// ErrUnsupportedRuntime is returned by Setup for a runtime identifier
// with no Go target.
var ErrUnsupportedRuntime = errors.New("unsupported runtime identifier")

// TaskBinaryName is the file Setup writes into the local packages dir and
// the fixtures' Pkl.targets executes: pkltask-<version>-<rid>[.exe].
func TaskBinaryName(packageVersion, runtimeSuffix string) string {
	name := fmt.Sprintf("pkltask-%s-%s", packageVersion, runtimeSuffix)
	if strings.HasPrefix(runtimeSuffix, "win-") {
		name += ".exe"
	}
	return name
}

// SetupOptions configures Setup.
type SetupOptions struct {
	// SourceRoot is the module root holding TaskPackage. Defaults to
	// cfg.SourceRoot, then to the parent of the directory holding ExamplesDir.
	SourceRoot string
	// GoTool is the go command; defaults to "go".
	GoTool     string
	Runner     procexec.Runner
	Log        logrus.FieldLogger
}

// SetupStep records what Setup did for one package.
type SetupStep struct {
	Package string
	Skipped bool
	Result  *procexec.Result
}

// Setup prepares the local package directory once per run. With
// BuildPackages set it cross-compiles the task binary for the configured
// runtime identifier into LocalPackagesDir, stamped with PackageVersion and
// BinaryVersion, unless that binary already exists. The whole phase runs under
// cfg.SetupTimeout.
func Setup(ctx context.Context, cfg *config.Config, opts SetupOptions) ([]SetupStep, error) {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	runner := opts.Runner
	if runner == nil {
		runner = procexec.NewExec(log)
	}

	if err := os.MkdirAll(cfg.LocalPackagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating local packages dir: %w", err)
	}
	if !cfg.BuildPackages {
		log.Debug("package build disabled")
		return nil, nil
	}

	runtimeSuffix, err := cfg.RequireRuntimeSuffix()
	if err != nil {
		return nil, err
	}
	target, ok := goTargets[runtimeSuffix]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRuntime, runtimeSuffix)
	}

	name := TaskBinaryName(cfg.PackageVersion, runtimeSuffix)
	artifact := filepath.Join(cfg.LocalPackagesDir, name)
	plog := log.WithFields(logrus.Fields{"package": name, "goos": target[0], "goarch": target[1]})
	if fileExists(artifact) {
		plog.Info("package already built, skipping")
		return []SetupStep{{Package: name, Skipped: true}}, nil
	}

	root := opts.SourceRoot
	if root == "" {
		root = cfg.SourceRoot
	}
	if root == "" {
		root = filepath.Join(filepath.Dir(cfg.ExamplesDir), "..")
	}
	if !fileExists(filepath.Join(root, "go.mod")) {
		return nil, fmt.Errorf("task module not found: no go.mod in %s", root)
	}

	if cfg.SetupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SetupTimeout)
		defer cancel()
	}

	goTool := opts.GoTool
	if goTool == "" {
		goTool = "go"
	}
	cmd := procexec.Command{
		Name: goTool,
		Args: []string{
			"build",
			"-trimpath",
			"-ldflags", fmt.Sprintf("-s -w -X %[1]s.Version=%[2]s -X %[1]s.InterpreterVersion=%[3]s",
				versionPackage, cfg.PackageVersion, cfg.BinaryVersion),
			"-o", artifact,
			TaskPackage,
		},
		Dir: root,
		Env: []string{"GOOS=" + target[0], "GOARCH=" + target[1], "CGO_ENABLED=0"},
	}

	plog.Info("building package")
	result, err := runner.Run(ctx, cmd)
	if err != nil {
		return []SetupStep{{Package: name, Result: result}}, fmt.Errorf("building %s: %w", name, err)
	}
	steps := []SetupStep{{Package: name, Result: result}}
	if result.ExitCode != 0 {
		return steps, fmt.Errorf("building %s: %w", name, handleFailure("go build", cmd, true, result))
	}
	return steps, nil
}
