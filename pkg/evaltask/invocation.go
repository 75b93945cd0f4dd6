package evaltask

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an interpreter output format.
type Format string

// Output formats accepted by the interpreter's --format flag.
const (
	FormatJSON       Format = "json"
	FormatJsonnet    Format = "jsonnet"
	FormatPcf        Format = "pcf"
	FormatProperties Format = "properties"
	FormatPlist      Format = "plist"
	FormatTextproto  Format = "textproto"
	FormatXML        Format = "xml"
	FormatYAML       Format = "yaml"
)

// Formats lists every supported format in CLI help order.
var Formats = []Format{
	FormatJSON, FormatJsonnet, FormatPcf, FormatProperties,
	FormatPlist, FormatTextproto, FormatXML, FormatYAML,
}

var (
	// ErrMissingRequiredInput matches any *MissingRequiredInputError.
	ErrMissingRequiredInput = errors.New("missing required input")

	// ErrUnknownFormat is returned for a format outside Formats.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrSourceNotFound is returned by Task.Execute when CheckSource is set
	// and the source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
)

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Valid reports whether f is one of Formats.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Invocation is the input to one evaluate operation. All fields are required.
type Invocation struct {
	SourceFile string `json:"source_file" yaml:"source_file"`
	OutputFile string `json:"output_file" yaml:"output_file"`
	Format     Format `json:"format" yaml:"format"`
}

// MissingRequiredInputError lists every required field that was empty.
type MissingRequiredInputError struct {
	Fields []string
}

func (e *MissingRequiredInputError) Error() string {
	return fmt.Sprintf("missing required input: %s", strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrMissingRequiredInput) hold.
func (e *MissingRequiredInputError) Is(target error) bool {
	return target == ErrMissingRequiredInput
}

// Validate checks all required fields at once and reports every missing one
// in a single error. It then rejects unknown formats.
func (inv Invocation) Validate() error {
	var missing []string
	if strings.TrimSpace(inv.SourceFile) == "" {
		missing = append(missing, "SourceFile")
	}
	if strings.TrimSpace(inv.OutputFile) == "" {
		missing = append(missing, "OutputFile")
	}
	if strings.TrimSpace(string(inv.Format)) == "" {
		missing = append(missing, "Format")
	}
	if len(missing) > 0 {
		return &MissingRequiredInputError{Fields: missing}
	}
	if !inv.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, inv.Format)
	}
	return nil
}
