// pkltask evaluates configuration files through the pkl interpreter on
// behalf of a build and runs end-to-end build scenarios against fixture
// projects.
//
// Usage:
//
//	pkltask eval --output-path out/config.json --format json config.pkl
//	pkltask args --output-path out.yaml --format yaml app.pkl
//	pkltask e2e [--manifest scenarios.yaml] [scenario...]
//	pkltask show diagnostics.sarif
//	pkltask version
//
// Exit codes: 0 success, 1 failed scenarios or diagnostics, 2 usage or
// configuration errors. eval exits with the interpreter's own exit code.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/dkoosis/pkltask/internal/config"
	"github.com/dkoosis/pkltask/internal/logging"
	"github.com/dkoosis/pkltask/internal/version"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `Usage: pkltask <command> [flags]

Commands:
  eval     evaluate a pkl file into an output format
  args     print the interpreter command line eval would run
  e2e      run build scenarios against example projects
  show     render SARIF diagnostics
  version  print version information
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	switch args[0] {
	case "eval":
		return runEval(args[1:], stdout, stderr)
	case "args":
		return runArgs(args[1:], stdout, stderr)
	case "e2e":
		return runE2E(args[1:], stdout, stderr)
	case "show":
		return runShow(args[1:], stdout, stderr)
	case "version", "--version":
		version.Fprint(stdout, "pkltask")
		return exitOK
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "pkltask: unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
}

// newFlagSet returns a pflag set that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pkltask "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	return fs
}

// parseFlags parses args and maps the outcome to an exit code; ok is false
// when the caller should return code immediately.
func parseFlags(fs *pflag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, false
		}
		return exitUsage, false
	}
	return exitOK, true
}

// loadConfig resolves configuration from the working directory and builds
// the logger it names. Logs go to stderr so stdout stays parseable.
func loadConfig(configFile string, stderr io.Writer) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile})
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
