package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// Dir holds .pkltask.yaml and .env; defaults to the working directory.
	Dir string
	// ConfigFile overrides the YAML file lookup.
	ConfigFile string
	// Getenv reads the process environment; defaults to os.Getenv.
	Getenv func(string) string
}

// envBinding ties one environment variable to one Config field.
type envBinding struct {
	key   string
	field string
	apply func(c *Config, val string) error
}

var envBindings = []envBinding{
	{RuntimeSuffixVar, "runtime_suffix", setString(func(c *Config) *string { return &c.RuntimeSuffix })},
	{"PACKAGE_VERSION", "package_version", setString(func(c *Config) *string { return &c.PackageVersion })},
	{"BINARY_VERSION", "binary_version", setString(func(c *Config) *string { return &c.BinaryVersion })},
	{"BUILD_PACKAGES", "build_packages", func(c *Config, v string) error {
		c.BuildPackages = v == "true"
		return nil
	}},
	{"PKLTASK_CONFIGURATION", "configuration", setString(func(c *Config) *string { return &c.Configuration })},
	{"PKLTASK_ORCHESTRATOR", "orchestrator", setString(func(c *Config) *string { return &c.Orchestrator })},
	{"PKLTASK_INTERPRETER", "interpreter", setString(func(c *Config) *string { return &c.Interpreter })},
	{"PKLTASK_EXAMPLES_DIR", "examples_dir", setString(func(c *Config) *string { return &c.ExamplesDir })},
	{"PKLTASK_LOCAL_PACKAGES_DIR", "local_packages_dir", setString(func(c *Config) *string { return &c.LocalPackagesDir })},
	{"PKLTASK_SOURCE_ROOT", "source_root", setString(func(c *Config) *string { return &c.SourceRoot })},
	{"PKLTASK_SCENARIO_TIMEOUT", "scenario_timeout", setDuration(func(c *Config) *time.Duration { return &c.ScenarioTimeout })},
	{"PKLTASK_SETUP_TIMEOUT", "setup_timeout", setDuration(func(c *Config) *time.Duration { return &c.SetupTimeout })},
	{"PKLTASK_PARALLELISM", "parallelism", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Parallelism = n
		return nil
	}},
	{"PKLTASK_CLEAN_GLOBS", "clean_globs", func(c *Config, v string) error {
		c.CleanGlobs = splitList(v)
		return nil
	}},
	{"PKLTASK_LOG_LEVEL", "log_level", setString(func(c *Config) *string { return &c.LogLevel })},
	{"PKLTASK_LOG_FORMAT", "log_format", setString(func(c *Config) *string { return &c.LogFormat })},
}

// Load resolves the configuration from all sources with explicit priority:
// environment > .env > YAML file > defaults. The result is validated.
func Load(opts LoadOptions) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Defaults()
	for _, b := range envBindings {
		cfg.Sources[b.field] = SourceDefault
	}
	cfg.Sources["default_target_framework"] = SourceDefault
	cfg.Sources["package_source"] = SourceDefault

	configPath := opts.ConfigFile
	if configPath == "" {
		configPath = getConfigPath(dir)
	}
	if configPath != "" {
		fileCfg, err := loadFile(configPath)
		if err != nil {
			return nil, err
		}
		if fileCfg != nil {
			mergeFile(cfg, fileCfg)
		}
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, DotEnvFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", DotEnvFileName, err)
	}

	var errs []error
	for _, b := range envBindings {
		val, source := getenv(b.key), SourceEnv
		if val == "" {
			val, source = dotenv[b.key], SourceDotEnv
		}
		if val == "" {
			continue
		}
		if err := b.apply(cfg, val); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", b.key, val, err))
			continue
		}
		cfg.Sources[b.field] = source
	}
	if getenv(debugEnvVar) != "" || dotenv[debugEnvVar] != "" {
		cfg.LogLevel = "debug"
		cfg.Sources["log_level"] = SourceEnv
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg.ExamplesDir = absUnder(dir, cfg.ExamplesDir)
	cfg.LocalPackagesDir = absUnder(dir, cfg.LocalPackagesDir)
	cfg.SourceRoot = absUnder(dir, cfg.SourceRoot)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

const debugEnvVar = "PKLTASK_DEBUG"

// mergeFile copies every non-zero value from the YAML file.
func mergeFile(cfg, file *Config) {
	set := func(field string) { cfg.Sources[field] = SourceFile }
	mergeString := func(dst *string, src, field string) {
		if src != "" {
			*dst = src
			set(field)
		}
	}
	mergeString(&cfg.RuntimeSuffix, file.RuntimeSuffix, "runtime_suffix")
	mergeString(&cfg.PackageVersion, file.PackageVersion, "package_version")
	mergeString(&cfg.BinaryVersion, file.BinaryVersion, "binary_version")
	mergeString(&cfg.Configuration, file.Configuration, "configuration")
	mergeString(&cfg.DefaultTargetFramework, file.DefaultTargetFramework, "default_target_framework")
	mergeString(&cfg.Orchestrator, file.Orchestrator, "orchestrator")
	mergeString(&cfg.Interpreter, file.Interpreter, "interpreter")
	mergeString(&cfg.ExamplesDir, file.ExamplesDir, "examples_dir")
	mergeString(&cfg.LocalPackagesDir, file.LocalPackagesDir, "local_packages_dir")
	mergeString(&cfg.SourceRoot, file.SourceRoot, "source_root")
	mergeString(&cfg.PackageSource, file.PackageSource, "package_source")
	mergeString(&cfg.LogLevel, file.LogLevel, "log_level")
	mergeString(&cfg.LogFormat, file.LogFormat, "log_format")
	if file.BuildPackages {
		cfg.BuildPackages = true
		set("build_packages")
	}
	if file.ScenarioTimeout > 0 {
		cfg.ScenarioTimeout = file.ScenarioTimeout
		set("scenario_timeout")
	}
	if file.SetupTimeout > 0 {
		cfg.SetupTimeout = file.SetupTimeout
		set("setup_timeout")
	}
	if file.Parallelism > 0 {
		cfg.Parallelism = file.Parallelism
		set("parallelism")
	}
	if len(file.CleanGlobs) > 0 {
		cfg.CleanGlobs = append([]string(nil), file.CleanGlobs...)
		set("clean_globs")
	}
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setDuration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func absUnder(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
