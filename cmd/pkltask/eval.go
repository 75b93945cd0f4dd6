package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/dkoosis/pkltask/internal/procexec"
	"github.com/dkoosis/pkltask/internal/version"
	"github.com/dkoosis/pkltask/pkg/evaltask"
	"github.com/dkoosis/pkltask/pkg/sarif"
)

// invocationFlags binds the three task inputs. The source may also be
// given as the single positional argument.
type invocationFlags struct {
	source string
	output string
	format string
}

func (f *invocationFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.source, "source", "s", "", "pkl source file")
	fs.StringVarP(&f.output, "output-path", "o", "", "file the interpreter writes")
	fs.StringVarP(&f.format, "format", "f", "", fmt.Sprintf("output format %v", evaltask.Formats))
}

func (f *invocationFlags) invocation(fs *pflag.FlagSet) (evaltask.Invocation, error) {
	source := f.source
	switch rest := fs.Args(); {
	case len(rest) > 1:
		return evaltask.Invocation{}, fmt.Errorf("expected at most one source file, got %d", len(rest))
	case len(rest) == 1 && source != "":
		return evaltask.Invocation{}, errors.New("source given both as --source and as an argument")
	case len(rest) == 1:
		source = rest[0]
	}

	inv := evaltask.Invocation{SourceFile: source, OutputFile: f.output}
	if f.format != "" {
		format, err := evaltask.ParseFormat(f.format)
		if err != nil {
			return evaltask.Invocation{}, err
		}
		inv.Format = format
	}
	return inv, nil
}

func runArgs(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("args", stderr)
	var inv invocationFlags
	inv.register(fs)
	verb := fs.String("verb", evaltask.DefaultVerb, "interpreter subcommand")
	shell := fs.Bool("shell", false, "print one shell-quoted line instead of one argument per line")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	in, err := inv.invocation(fs)
	if err != nil {
		fmt.Fprintf(stderr, "pkltask args: %v\n", err)
		return exitUsage
	}
	cl, err := evaltask.TranslateVerb(*verb, in)
	if err != nil {
		fmt.Fprintf(stderr, "pkltask args: %v\n", err)
		return exitUsage
	}

	if *shell {
		fmt.Fprintln(stdout, cl.String())
		return exitOK
	}
	for _, a := range cl.Args() {
		fmt.Fprintln(stdout, a)
	}
	return exitOK
}

func runEval(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("eval", stderr)
	var inv invocationFlags
	inv.register(fs)
	interpreter := fs.String("interpreter", "", "interpreter executable (default from config, then pkl)")
	checkSource := fs.Bool("check-source", false, "fail before spawning when the source file does not exist")
	sarifPath := fs.String("sarif", "", "also write diagnostics as SARIF to this file")
	configFile := fs.String("config", "", "config file (default .pkltask.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	in, err := inv.invocation(fs)
	if err != nil {
		fmt.Fprintf(stderr, "pkltask eval: %v\n", err)
		return exitUsage
	}

	cfg, log, err := loadConfig(*configFile, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "pkltask eval: %v\n", err)
		return exitUsage
	}
	if *interpreter == "" {
		*interpreter = cfg.Interpreter
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	task := &evaltask.Task{
		Interpreter: *interpreter,
		Log:         stdout,
		CheckSource: *checkSource,
		Logger:      log,
	}
	outcome, err := task.Execute(ctx, in)
	if err != nil && evaltask.IsInputError(err) {
		origin := in.SourceFile
		if origin == "" {
			origin = "pkltask"
		}
		fmt.Fprintf(stdout, "%s : error : %v\n", origin, err)
		return exitUsage
	}

	if *sarifPath != "" && outcome != nil {
		if werr := writeSARIF(*sarifPath, outcome.SARIF(*interpreter, version.InterpreterVersion)); werr != nil {
			fmt.Fprintf(stderr, "pkltask eval: %v\n", werr)
			return exitFailure
		}
	}

	if err != nil {
		return procexec.ExitCode(err)
	}
	return outcome.Result.ExitCode
}

func writeSARIF(path string, doc *sarif.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
