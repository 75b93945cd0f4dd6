package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkoosis/pkltask/internal/procexec"
)

var (
	// ErrAssertion matches any *AssertionFailure.
	ErrAssertion = errors.New("assertion failed")

	// ErrPublishWithoutBuild is returned when Publish runs before a
	// successful Build on the same Example.
	ErrPublishWithoutBuild = errors.New("publish requires a prior successful build")

	// ErrSharedProjectDir is returned when two scenarios would run against
	// the same project directory.
	ErrSharedProjectDir = errors.New("scenarios share a project directory")

	// ErrProjectDirMissing is returned when a fixture directory does not exist.
	ErrProjectDirMissing = errors.New("example project directory does not exist")

	// ErrInvalidScenario is returned for a manifest entry that cannot run.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrNoProcessOutput is returned by an expect-log step that has no
	// preceding process step to read from.
	ErrNoProcessOutput = errors.New("no process output to check")
)

// UnexpectedOutputError reports the most actionable signal from a process
// whose exit code disagreed with expectations: stderr if present, else
// stdout, else the bare exit code.
type UnexpectedOutputError struct {
	Tool     string
	Stream   string // "stderr", "stdout" or "" when only the exit code is known
	Content  string
	ExitCode int
}

func (e *UnexpectedOutputError) Error() string {
	switch e.Stream {
	case "stderr":
		return "Unexpected StdErr content:\n" + e.Content
	case "stdout":
		return "Unexpected StdOut content:\n" + e.Content
	default:
		return fmt.Sprintf("Unexpected %s exit code: %d", e.Tool, e.ExitCode)
	}
}

// newUnexpectedOutput picks the highest-priority signal from result.
func newUnexpectedOutput(tool string, result *procexec.Result) *UnexpectedOutputError {
	e := &UnexpectedOutputError{Tool: tool, ExitCode: result.ExitCode}
	switch {
	case result.Stderr != "":
		e.Stream, e.Content = "stderr", result.Stderr
	case result.Stdout != "":
		e.Stream, e.Content = "stdout", result.Stdout
	}
	return e
}

// ProcessExecutionFailure is returned when a step's exit code disagrees
// with its declared expectation. It carries the full captured result.
type ProcessExecutionFailure struct {
	Tool          string
	Command       procexec.Command
	ExpectSuccess bool
	Result        *procexec.Result
	Err           error
}

func (e *ProcessExecutionFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Command.String(), e.Err)
}

func (e *ProcessExecutionFailure) Unwrap() error { return e.Err }

// handleFailure builds the error for an exit code that disagreed with
// expectSuccess.
func handleFailure(tool string, cmd procexec.Command, expectSuccess bool, result *procexec.Result) error {
	return &ProcessExecutionFailure{
		Tool:          tool,
		Command:       cmd,
		ExpectSuccess: expectSuccess,
		Result:        result,
		Err:           newUnexpectedOutput(tool, result),
	}
}

// AssertionKind names what an AssertionFailure checked.
type AssertionKind string

const (
	AssertFileMissing    AssertionKind = "missing file"
	AssertFileUnexpected AssertionKind = "unexpected file"
	AssertLogMissing     AssertionKind = "missing log line"
	AssertStreamNotEmpty AssertionKind = "unexpected stream content"
)

// AssertionFailure is one failed expectation.
type AssertionFailure struct {
	Kind   AssertionKind
	Target string // file path, log substring or stream name
	Detail string
}

func (e *AssertionFailure) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Target)
	if e.Detail != "" {
		msg += "\n" + indent(e.Detail)
	}
	return msg
}

// Is makes errors.Is(err, ErrAssertion) hold.
func (e *AssertionFailure) Is(target error) bool {
	return target == ErrAssertion
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
