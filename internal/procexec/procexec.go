// Package procexec runs external processes and captures their exit code and
// output streams. It is the single place pkltask spawns child processes.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/pkltask/internal/logging"
)

const (
	// DefaultMaxOutputBytes caps each captured stream (10MB).
	DefaultMaxOutputBytes = 10 * 1024 * 1024

	// DefaultWaitDelay bounds how long Wait blocks on open pipes after the
	// process has been killed.
	DefaultWaitDelay = 2 * time.Second

	// ExitCodeNotFound is reported when the executable could not be located.
	ExitCodeNotFound = 127
)

// ErrTimeout is returned when the context deadline expires before the
// process exits. The process group is killed without a shutdown handshake.
var ErrTimeout = errors.New("process killed after deadline")

// Command describes one process invocation. Args never pass through a shell.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries (KEY=VALUE) are appended to the current environment.
	Env []string
}

// String renders the command for logs.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Result is the captured outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Exec is the os/exec backed Runner.
type Exec struct {
	MaxOutputBytes int64
	WaitDelay      time.Duration
	Log            logrus.FieldLogger
}

// NewExec returns an Exec runner with default limits.
func NewExec(log logrus.FieldLogger) *Exec {
	return &Exec{
		MaxOutputBytes: DefaultMaxOutputBytes,
		WaitDelay:      DefaultWaitDelay,
		Log:            log,
	}
}

// Run starts the command and blocks until it exits.
//
// Error semantics:
//   - Returns (result, nil) whenever the process ran to completion, whatever
//     its exit code; interpreting the code is the caller's job.
//   - Returns (result, err) when the process could not be started; the
//     result carries exit code 127 for a missing executable, 1 otherwise.
//   - Returns (result, err) wrapping ErrTimeout when ctx expired; the
//     result holds whatever output was captured before the kill.
//
// The result is never nil.
func (e *Exec) Run(ctx context.Context, c Command) (*Result, error) {
	maxBytes := e.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}
	stdout := &cappedBuffer{limit: maxBytes}
	stderr := &cappedBuffer{limit: maxBytes}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	log := e.logger().WithFields(logrus.Fields{"command": c.Name, "dir": c.Dir})
	log.WithField("args", c.Args).Debug("starting process")

	start := time.Now()
	runErr := cmd.Run()
	result := &Result{
		ExitCode: ExitCode(runErr),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	log = log.WithFields(logrus.Fields{"exit_code": result.ExitCode, "duration": result.Duration})

	// A deadline that lands after a clean exit killed nothing.
	if runErr == nil {
		log.Debug("process exited")
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn("process killed")
		return result, fmt.Errorf("%w: %s: %w", ErrTimeout, c.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		log.WithError(runErr).Debug("process failed to start")
		return result, fmt.Errorf("starting %s: %w", c.Name, runErr)
	}

	log.Debug("process exited")
	return result, nil
}

func (e *Exec) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logging.Discard()
	}
	return e.Log
}

// ExitCode maps a Run/Wait error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := exitCodeFromError(exitErr); ok {
			return code
		}
		return 1
	}

	if IsCommandNotFound(err) {
		return ExitCodeNotFound
	}
	return 1
}

// IsCommandNotFound checks if the error indicates the command was not found.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	return runtime.GOOS != "windows" && strings.Contains(errStr, "no such file or directory")
}

// cappedBuffer keeps the first limit bytes written and drops the rest while
// still reporting full writes, so a chatty child never blocks on its pipe.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - int64(b.buf.Len())
	switch {
	case remaining <= 0:
		b.truncated = true
	case int64(len(p)) > remaining:
		b.buf.Write(p[:remaining])
		b.truncated = true
	default:
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n[pkltask] output truncated\n"
	}
	return b.buf.String()
}
