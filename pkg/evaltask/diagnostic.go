package evaltask

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dkoosis/pkltask/internal/procexec"
)

// Severity of a Diagnostic.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityInfo  Severity = "info"
)

// Diagnostic is one build-log entry derived from interpreter output.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
}

// String renders the diagnostic in the build orchestrator's canonical
// format, e.g. "conf/app.pkl(3,5): error : Missing `}` delimiter.".
// Informational diagnostics render as the bare message.
func (d Diagnostic) String() string {
	if d.Severity != SeverityError {
		return d.Message
	}
	origin := d.File
	switch {
	case d.Line > 0 && d.Column > 0:
		origin = fmt.Sprintf("%s(%d,%d)", d.File, d.Line, d.Column)
	case d.Line > 0:
		origin = fmt.Sprintf("%s(%d)", d.File, d.Line)
	}
	if origin == "" {
		return "error : " + d.Message
	}
	if d.Line > 0 {
		return origin + ": error : " + d.Message
	}
	return origin + " : error : " + d.Message
}

// locationHint matches the interpreter's "(file:///path/x.pkl, line 3)" trailer.
var locationHint = regexp.MustCompile(`\((?:file://)?([^,()]+), line (\d+)\)`)

// Diagnose turns a finished interpreter run into diagnostics: one error per
// meaningful stderr line attributed to sourceFile, and one info entry per
// stdout line. A non-zero exit with no stderr still yields an error so the
// build step never fails silently.
func Diagnose(sourceFile, interpreter string, result *procexec.Result) []Diagnostic {
	if result == nil {
		return nil
	}
	line := sourceLine(sourceFile, result.Stderr)

	var diags []Diagnostic
	for _, text := range splitLines(result.Stderr) {
		if decorative(text) {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			File:     sourceFile,
			Line:     line,
			Message:  text,
		})
	}
	if result.ExitCode != 0 && len(diags) == 0 {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			File:     sourceFile,
			Message:  fmt.Sprintf("%s exited with code %d", filepath.Base(interpreter), result.ExitCode),
		})
	}
	for _, text := range splitLines(result.Stdout) {
		diags = append(diags, Diagnostic{Severity: SeverityInfo, File: sourceFile, Message: text})
	}
	return diags
}

// sourceLine returns the first line number the interpreter reported for
// sourceFile itself, or 0. Hints for other modules are ignored so the
// location never points into a file the diagnostic is not attributed to.
func sourceLine(sourceFile, stderr string) int {
	want := cleanAbs(sourceFile)
	for _, m := range locationHint.FindAllStringSubmatch(stderr, -1) {
		if cleanAbs(m[1]) != want {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return n
		}
	}
	return 0
}

func cleanAbs(p string) string {
	p = strings.TrimSpace(p)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if l = strings.TrimRight(l, " \t"); strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// decorative reports lines with no letters or digits, such as banner rules
// and caret markers.
func decorative(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
