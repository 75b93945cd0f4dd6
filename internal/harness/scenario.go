package harness

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dkoosis/pkltask/internal/config"
	"github.com/dkoosis/pkltask/internal/logging"
	"github.com/dkoosis/pkltask/internal/procexec"
)

//go:embed scenarios.yaml
var defaultManifest []byte

// Action is one scenario step kind.
type Action string

const (
	ActionCleanProjectDir   Action = "clean-project-dir"
	ActionClean             Action = "clean"
	ActionBuild             Action = "build"
	ActionPublish           Action = "publish"
	ActionExpectFiles       Action = "expect-files"
	ActionExpectLog         Action = "expect-log"
	ActionExpectEmptyStderr Action = "expect-empty-stderr"
)

// Step is one declarative scenario step.
type Step struct {
	Action          Action   `yaml:"action"`
	TargetFramework string   `yaml:"target_framework,omitempty"`
	ExpectFailure   bool     `yaml:"expect_failure,omitempty"`
	Files           []string `yaml:"files,omitempty"`
	Published       bool     `yaml:"published,omitempty"`
	Absent          bool     `yaml:"absent,omitempty"`
	Stream          string   `yaml:"stream,omitempty"` // expect-log: "stdout" (default) or "stderr"
	Lines           []string `yaml:"lines,omitempty"`
}

func (s Step) String() string {
	if s.TargetFramework != "" {
		return fmt.Sprintf("%s (%s)", s.Action, s.TargetFramework)
	}
	return string(s.Action)
}

// Scenario is a named sequence of steps against one example project.
type Scenario struct {
	Name        string        `yaml:"name"`
	Example     string        `yaml:"example,omitempty"` // defaults to Name
	ProjectFile string        `yaml:"project_file,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Steps       []Step        `yaml:"steps"`
}

// ExampleName returns the fixture directory name.
func (s Scenario) ExampleName() string {
	if s.Example != "" {
		return s.Example
	}
	return s.Name
}

// Validate checks that every step is runnable.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: scenario without a name", ErrInvalidScenario)
	}
	var errs []error
	for i, step := range s.Steps {
		prefix := fmt.Sprintf("%s step %d (%s)", s.Name, i+1, step.Action)
		switch step.Action {
		case ActionCleanProjectDir, ActionClean, ActionBuild, ActionPublish, ActionExpectEmptyStderr:
		case ActionExpectFiles:
			if len(step.Files) == 0 {
				errs = append(errs, fmt.Errorf("%w: %s: no files", ErrInvalidScenario, prefix))
			}
		case ActionExpectLog:
			if len(step.Lines) == 0 {
				errs = append(errs, fmt.Errorf("%w: %s: no lines", ErrInvalidScenario, prefix))
			}
			if step.Stream != "" && step.Stream != "stdout" && step.Stream != "stderr" {
				errs = append(errs, fmt.Errorf("%w: %s: unknown stream %q", ErrInvalidScenario, prefix, step.Stream))
			}
		default:
			errs = append(errs, fmt.Errorf("%w: %s: unknown action", ErrInvalidScenario, prefix))
		}
	}
	return errors.Join(errs...)
}

// Manifest is the YAML document listing scenarios.
type Manifest struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadManifest decodes and validates a manifest. Unknown keys are rejected.
func LoadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	var errs []error
	for _, s := range m.Scenarios {
		errs = append(errs, s.Validate())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifestFile reads a manifest from path.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()
	m, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DefaultManifest returns the built-in fixture scenarios.
func DefaultManifest() *Manifest {
	m, err := LoadManifest(bytes.NewReader(defaultManifest))
	if err != nil {
		panic(fmt.Sprintf("embedded scenarios.yaml: %v", err))
	}
	return m
}

// Select returns the named scenarios in manifest order. No names selects all.
func (m *Manifest) Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return m.Scenarios, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Scenario
	for _, s := range m.Scenarios {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for n := range want {
			missing = append(missing, n)
		}
		return nil, fmt.Errorf("%w: unknown scenarios %v", ErrInvalidScenario, missing)
	}
	return out, nil
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step     Step
	Result   *procexec.Result // nil for steps that spawn nothing
	Duration time.Duration
	Err      error
}

// ScenarioResult is the outcome of one scenario. Steps after the first
// failure are not run.
type ScenarioResult struct {
	Scenario   Scenario
	ProjectDir string
	Steps      []StepResult
	Duration   time.Duration
	Err        error
}

// Passed reports whether every step ran and succeeded.
func (r *ScenarioResult) Passed() bool { return r.Err == nil }

// RunOptions configures Run.
type RunOptions struct {
	Runner procexec.Runner
	Log    logrus.FieldLogger
}

// Run executes scenarios, at most cfg.Parallelism at a time. Scenarios that
// resolve to the same project directory are rejected with
// ErrSharedProjectDir before anything runs. Results keep input order; a
// failed scenario does not stop the others.
func Run(ctx context.Context, cfg *config.Config, scenarios []Scenario, opts RunOptions) ([]*ScenarioResult, error) {
	if err := checkDistinctDirs(cfg, scenarios); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	limit := cfg.Parallelism
	if limit <= 0 {
		limit = 1
	}

	results := make([]*ScenarioResult, len(scenarios))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, s := range scenarios {
		g.Go(func() error {
			results[i] = runScenario(ctx, cfg, s, opts.Runner, log.WithField("scenario", s.Name))
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// Failures joins the errors of every failed scenario.
func Failures(results []*ScenarioResult) error {
	var errs []error
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Scenario.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

func checkDistinctDirs(cfg *config.Config, scenarios []Scenario) error {
	owner := make(map[string]string, len(scenarios))
	for _, s := range scenarios {
		dir := filepath.Clean(filepath.Join(cfg.ExamplesDir, s.ExampleName()))
		if prev, ok := owner[dir]; ok {
			return fmt.Errorf("%w: %q and %q both use %s", ErrSharedProjectDir, prev, s.Name, dir)
		}
		owner[dir] = s.Name
	}
	return nil
}

func runScenario(ctx context.Context, cfg *config.Config, s Scenario, runner procexec.Runner, log logrus.FieldLogger) *ScenarioResult {
	start := time.Now()
	res := &ScenarioResult{Scenario: s}
	defer func() { res.Duration = time.Since(start) }()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = cfg.ScenarioTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := []Option{WithRunner(runner), WithLogger(log)}
	if s.ProjectFile != "" {
		opts = append(opts, WithProjectFile(s.ProjectFile))
	}
	example, err := NewExample(cfg, s.ExampleName(), opts...)
	if err != nil {
		res.Err = err
		return res
	}
	res.ProjectDir = example.ProjectDir

	var last *procexec.Result
	for _, step := range s.Steps {
		stepStart := time.Now()
		result, err := runStep(ctx, example, step, last)
		if result != nil {
			last = result
		}
		res.Steps = append(res.Steps, StepResult{Step: step, Result: result, Duration: time.Since(stepStart), Err: err})
		if err != nil {
			log.WithError(err).WithField("step", step.String()).Warn("step failed")
			res.Err = fmt.Errorf("%s: %w", step, err)
			return res
		}
	}
	log.WithField("duration", time.Since(start)).Info("scenario passed")
	return res
}

func runStep(ctx context.Context, e *Example, step Step, last *procexec.Result) (*procexec.Result, error) {
	switch step.Action {
	case ActionCleanProjectDir:
		return nil, e.CleanProjectDir()
	case ActionClean:
		return e.Clean(ctx, !step.ExpectFailure)
	case ActionBuild:
		return e.Build(ctx, !step.ExpectFailure)
	case ActionPublish:
		return e.Publish(ctx, step.TargetFramework, !step.ExpectFailure)
	case ActionExpectFiles:
		return nil, e.Check(Expectation{
			Files:           step.Files,
			TargetFramework: step.TargetFramework,
			Published:       step.Published,
			Absent:          step.Absent,
		})
	case ActionExpectLog:
		if last == nil {
			return nil, ErrNoProcessOutput
		}
		log := last.Stdout
		if step.Stream == "stderr" {
			log = last.Stderr
		}
		return nil, ExpectLinesInLog(log, step.Lines...)
	case ActionExpectEmptyStderr:
		if last == nil {
			return nil, ErrNoProcessOutput
		}
		return nil, ExpectEmpty("stderr", last.Stderr)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidScenario, step.Action)
	}
}
