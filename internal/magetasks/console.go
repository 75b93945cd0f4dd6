package magetasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dkoosis/pkltask/internal/logging"
	"github.com/dkoosis/pkltask/internal/procexec"
)

// Out receives all task output.
var Out io.Writer = os.Stdout

// runner executes the tools tasks shell out to.
var runner procexec.Runner = procexec.NewExec(logging.Discard())

// PrintH1Header prints a top-level header with decoration.
func PrintH1Header(title string) {
	width := 80
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, strings.Repeat("=", width))
	padding := max((width-len(title))/2, 0)
	fmt.Fprintf(Out, "%s%s\n", strings.Repeat(" ", padding), title)
	fmt.Fprintln(Out, strings.Repeat("=", width))
	fmt.Fprintln(Out)
}

// PrintH2Header prints a section header.
func PrintH2Header(title string) {
	fmt.Fprintf(Out, "\n=== %s ===\n\n", title)
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Fprintf(Out, "✅ %s\n", msg)
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	fmt.Fprintf(Out, "⚠️  %s\n", msg)
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Fprintf(Out, "❌ %s\n", msg)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	fmt.Fprintf(Out, "ℹ️  %s\n", msg)
}

// Run executes one tool step labelled label. Output is shown only when the
// step fails, so passing steps stay one line.
func Run(label, name string, args ...string) error {
	return RunEnv(label, nil, name, args...)
}

// RunEnv is Run with extra KEY=VALUE environment entries.
func RunEnv(label string, env []string, name string, args ...string) error {
	result, err := runner.Run(context.Background(), procexec.Command{Name: name, Args: args, Env: env})
	if err != nil {
		PrintError(fmt.Sprintf("%s: %v", label, err))
		return err
	}
	if result.ExitCode != 0 {
		PrintError(fmt.Sprintf("%s (exit %d)", label, result.ExitCode))
		fmt.Fprint(Out, result.Stdout)
		fmt.Fprint(Out, result.Stderr)
		return fmt.Errorf("%s failed with exit code %d", label, result.ExitCode)
	}
	PrintSuccess(fmt.Sprintf("%s (%s)", label, result.Duration.Round(1e6)))
	return nil
}

// IsCommandNotFound reports whether err means the tool is not installed.
func IsCommandNotFound(err error) bool {
	return procexec.IsCommandNotFound(err)
}
