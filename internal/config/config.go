package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved harness configuration.
type Config struct {
	RuntimeSuffix          string        `yaml:"runtime_suffix,omitempty"`
	PackageVersion         string        `yaml:"package_version,omitempty"`
	BinaryVersion          string        `yaml:"binary_version,omitempty"`
	BuildPackages          bool          `yaml:"build_packages,omitempty"`
	Configuration          string        `yaml:"configuration,omitempty"`
	DefaultTargetFramework string        `yaml:"default_target_framework,omitempty"`
	Orchestrator           string        `yaml:"orchestrator,omitempty"`
	Interpreter            string        `yaml:"interpreter,omitempty"`
	ExamplesDir            string        `yaml:"examples_dir,omitempty"`
	LocalPackagesDir       string        `yaml:"local_packages_dir,omitempty"`
	SourceRoot             string        `yaml:"source_root,omitempty"`
	PackageSource          string        `yaml:"package_source,omitempty"`
	ScenarioTimeout        time.Duration `yaml:"scenario_timeout,omitempty"`
	SetupTimeout           time.Duration `yaml:"setup_timeout,omitempty"`
	Parallelism            int           `yaml:"parallelism,omitempty"`
	CleanGlobs             []string      `yaml:"clean_globs,omitempty"`
	LogLevel               string        `yaml:"log_level,omitempty"`
	LogFormat              string        `yaml:"log_format,omitempty"`

	// Sources records where each resolved value came from:
	// "env", "dotenv", "file" or "default". Keyed by the YAML field name.
	Sources map[string]string `yaml:"-"`
}

// Constants for default values.
const (
	DefaultPackageVersion   = "1.0.0-test"
	DefaultBinaryVersion    = "0.29.1"
	DefaultConfiguration    = "Debug"
	DefaultTargetFramework  = "net8.0"
	DefaultOrchestrator     = "dotnet"
	DefaultInterpreter      = "pkl"
	DefaultExamplesDir      = "examples"
	DefaultLocalPackagesDir = "local-packages"
	DefaultPackageSource    = "PklDotNet-E2E-Local"
	DefaultScenarioTimeout  = 60 * time.Second
	DefaultSetupTimeout     = 30 * time.Second
	DefaultParallelism      = 1
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	ConfigFileName          = ".pkltask.yaml"
	DotEnvFileName          = ".env"
	RuntimeSuffixVar        = "RuntimeSuffix"
)

const runtimeSuffixExamples = "win-x64, linux-x64, osx-x64"

// Value sources recorded in Config.Sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceDotEnv  = "dotenv"
	SourceEnv     = "env"
)

// DefaultCleanGlobs are the generated-output patterns removed by a clean.
var DefaultCleanGlobs = []string{"bin", "obj", "**/*.g.*"}

// Defaults returns a Config populated with hardcoded defaults.
func Defaults() *Config {
	return &Config{
		PackageVersion:         DefaultPackageVersion,
		BinaryVersion:          DefaultBinaryVersion,
		Configuration:          DefaultConfiguration,
		DefaultTargetFramework: DefaultTargetFramework,
		Orchestrator:           DefaultOrchestrator,
		Interpreter:            DefaultInterpreter,
		ExamplesDir:            DefaultExamplesDir,
		LocalPackagesDir:       DefaultLocalPackagesDir,
		PackageSource:          DefaultPackageSource,
		ScenarioTimeout:        DefaultScenarioTimeout,
		SetupTimeout:           DefaultSetupTimeout,
		Parallelism:            DefaultParallelism,
		CleanGlobs:             append([]string(nil), DefaultCleanGlobs...),
		LogLevel:               DefaultLogLevel,
		LogFormat:              DefaultLogFormat,
		Sources:                map[string]string{},
	}
}

// ErrMissingConfiguration matches any *MissingConfigurationError.
var ErrMissingConfiguration = errors.New("missing configuration")

// MissingConfigurationError names a required variable that was not set.
type MissingConfigurationError struct {
	Variable string
	Purpose  string
	Examples string
}

func (e *MissingConfigurationError) Error() string {
	msg := fmt.Sprintf("please set the %s environment variable", e.Variable)
	if e.Purpose != "" {
		msg += " to " + e.Purpose
	}
	if e.Examples != "" {
		msg += ". Possible values: " + e.Examples
	}
	return msg
}

// Is makes errors.Is(err, ErrMissingConfiguration) hold.
func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

// RequireRuntimeSuffix returns the runtime identifier or a
// *MissingConfigurationError naming the variable and example values.
func (c *Config) RequireRuntimeSuffix() (string, error) {
	if strings.TrimSpace(c.RuntimeSuffix) == "" {
		return "", &MissingConfigurationError{
			Variable: RuntimeSuffixVar,
			Purpose:  "a .net runtime ID to run these tests",
			Examples: runtimeSuffixExamples,
		}
	}
	return c.RuntimeSuffix, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Configuration == "" {
		errs = append(errs, errors.New("configuration must not be empty"))
	}
	if c.Orchestrator == "" {
		errs = append(errs, errors.New("orchestrator must not be empty"))
	}
	if c.ScenarioTimeout <= 0 {
		errs = append(errs, fmt.Errorf("scenario_timeout must be positive, got %s", c.ScenarioTimeout))
	}
	if c.SetupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("setup_timeout must be positive, got %s", c.SetupTimeout))
	}
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log_format %q (must be: text, json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

// loadFile reads a YAML config file. A missing file is not an error.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &fileCfg, nil
}

// getConfigPath finds the config file: dir first, then the user config dir.
func getConfigPath(dir string) string {
	localPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(localPath); err == nil {
		return localPath
	}

	configHome, err := os.UserConfigDir()
	if err == nil && configHome != "" && configHome != "/" {
		xdgPath := filepath.Join(configHome, "pkltask", ConfigFileName)
		if _, errStat := os.Stat(xdgPath); errStat == nil {
			return xdgPath
		}
	}
	return ""
}
