// Package evaltask translates a structured evaluate request into an
// interpreter command line, runs it, and reports the interpreter's exit
// status and output as build diagnostics.
//
// Translation is pure: Translate never touches the filesystem or spawns a
// process, and it rejects incomplete input before anything runs. Execution
// goes through a procexec.Runner, and the raw result is always returned;
// whether a non-zero exit is a failure is the caller's decision.
package evaltask

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/pkltask/internal/logging"
	"github.com/dkoosis/pkltask/internal/procexec"
	"github.com/dkoosis/pkltask/pkg/sarif"
)

// DefaultInterpreter is the interpreter executable looked up on PATH.
const DefaultInterpreter = "pkl"

// Task runs evaluate operations.
type Task struct {
	Interpreter string
	Verb        string
	Runner      procexec.Runner
	// Log receives diagnostics in canonical form; defaults to os.Stdout.
	Log io.Writer
	// CheckSource makes Execute stat the source file before spawning.
	CheckSource bool
	Logger      logrus.FieldLogger
}

// Outcome is the result of one Execute call.
type Outcome struct {
	Invocation  Invocation
	CommandLine CommandLine
	Result      *procexec.Result
	Diagnostics []Diagnostic
}

// Succeeded reports whether the interpreter exited with code 0.
func (o *Outcome) Succeeded() bool {
	return o.Result != nil && o.Result.ExitCode == 0
}

// Errors returns the error-level diagnostics.
func (o *Outcome) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range o.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// SARIF converts the outcome into a SARIF document.
func (o *Outcome) SARIF(interpreter, version string) *sarif.Document {
	b := sarif.NewBuilder(interpreter, version)
	if o.Result != nil {
		b.SetInvocation(interpreter+" "+o.CommandLine.String(), o.Result.ExitCode)
	}
	for _, d := range o.Diagnostics {
		level := sarif.LevelNote
		if d.Severity == SeverityError {
			level = sarif.LevelError
		}
		b.AddResult("", level, d.Message, d.File, d.Line, d.Column)
	}
	return b.Document()
}

// Execute translates inv, runs the interpreter and writes diagnostics to
// t.Log. Invalid input fails before any process is spawned. A returned
// error means the interpreter could not be run at all; a non-zero exit is
// reported through the Outcome, not as an error.
func (t *Task) Execute(ctx context.Context, inv Invocation) (*Outcome, error) {
	cl, err := TranslateVerb(t.Verb, inv)
	if err != nil {
		return nil, err
	}
	if t.CheckSource {
		if _, statErr := os.Stat(inv.SourceFile); statErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, inv.SourceFile, statErr)
		}
	}

	interpreter := t.interpreter()
	log := t.logger().WithFields(logrus.Fields{"source": inv.SourceFile, "format": inv.Format})
	log.WithField("command", cl.String()).Debug("evaluating")

	result, runErr := t.runner().Run(ctx, procexec.Command{Name: interpreter, Args: cl.Args()})
	outcome := &Outcome{Invocation: inv, CommandLine: cl, Result: result}
	if runErr != nil {
		outcome.Diagnostics = []Diagnostic{{
			Severity: SeverityError,
			File:     inv.SourceFile,
			Message:  runErr.Error(),
		}}
		t.emit(outcome.Diagnostics)
		return outcome, fmt.Errorf("running %s: %w", interpreter, runErr)
	}

	outcome.Diagnostics = Diagnose(inv.SourceFile, interpreter, result)
	t.emit(outcome.Diagnostics)
	log.WithField("exit_code", result.ExitCode).Debug("evaluated")
	return outcome, nil
}

func (t *Task) emit(diags []Diagnostic) {
	w := t.Log
	if w == nil {
		w = os.Stdout
	}
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

func (t *Task) interpreter() string {
	if t.Interpreter == "" {
		return DefaultInterpreter
	}
	return t.Interpreter
}

func (t *Task) runner() procexec.Runner {
	if t.Runner == nil {
		return procexec.NewExec(t.Logger)
	}
	return t.Runner
}

func (t *Task) logger() logrus.FieldLogger {
	if t.Logger == nil {
		return logging.Discard()
	}
	return t.Logger
}

// IsInputError reports whether err was raised before any process spawned
// because of bad task input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingRequiredInput) ||
		errors.Is(err, ErrUnknownFormat) ||
		errors.Is(err, ErrSourceNotFound)
}
