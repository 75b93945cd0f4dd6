package evaltask

import (
	"path/filepath"
	"strings"
)

// DefaultVerb is the interpreter subcommand for the evaluate operation.
const DefaultVerb = "eval"

// CommandLine is an ordered, immutable interpreter argument vector.
type CommandLine struct {
	args []string
}

// Args returns a copy of the argument vector.
func (c CommandLine) Args() []string {
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// String renders the arguments shell-quoted, for logs only. Execution
// always uses Args, never this string.
func (c CommandLine) String() string {
	quoted := make([]string, len(c.args))
	for i, a := range c.args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// Translate builds the evaluate command line for inv using DefaultVerb.
func Translate(inv Invocation) (CommandLine, error) {
	return TranslateVerb(DefaultVerb, inv)
}

// TranslateVerb builds
//
//	<verb> --output-path <output> --format <format> <source>
//
// The source path is always the final unflagged argument. Paths that begin
// with a hyphen are prefixed with "./" so the interpreter never reads them
// as flags. The evaluate operation is spelled "eval" on the interpreter's
// command line, which is what DefaultVerb holds.
func TranslateVerb(verb string, inv Invocation) (CommandLine, error) {
	if err := inv.Validate(); err != nil {
		return CommandLine{}, err
	}
	if verb == "" {
		verb = DefaultVerb
	}
	return CommandLine{args: []string{
		verb,
		"--output-path", protectPath(inv.OutputFile),
		"--format", string(inv.Format),
		protectPath(inv.SourceFile),
	}}, nil
}

func protectPath(p string) string {
	if strings.HasPrefix(p, "-") {
		return "." + string(filepath.Separator) + p
	}
	return p
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=,+@%", r)
}
