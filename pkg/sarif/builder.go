package sarif

import (
	"encoding/json"
	"io"
)

const schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// Builder constructs a single-run SARIF 2.1.0 document.
type Builder struct {
	doc *Document
}

// NewBuilder creates a SARIF builder for the given tool.
func NewBuilder(toolName, toolVersion string) *Builder {
	return &Builder{
		doc: &Document{
			Version: "2.1.0",
			Schema:  schemaURI,
			Runs: []Run{{
				Tool:    Tool{Driver: Driver{Name: toolName, Version: toolVersion}},
				Results: []Result{},
			}},
		},
	}
}

func (b *Builder) run() *Run {
	return &b.doc.Runs[0]
}

// SetInvocation records the command line and exit code of the run.
func (b *Builder) SetInvocation(commandLine string, exitCode int) *Builder {
	b.run().Invocations = []Invocation{{
		CommandLine:         commandLine,
		ExitCode:            exitCode,
		ExecutionSuccessful: exitCode == 0,
	}}
	return b
}

// AddResult adds a diagnostic. A zero line omits the region.
func (b *Builder) AddResult(ruleID, level, message, file string, line, col int) *Builder {
	r := Result{
		RuleID:  ruleID,
		Level:   level,
		Message: Message{Text: message},
	}
	if file != "" {
		loc := Location{PhysicalLocation: PhysicalLocation{ArtifactLocation: ArtifactLocation{URI: file}}}
		if line > 0 {
			loc.PhysicalLocation.Region = &Region{StartLine: line, StartColumn: col}
		}
		r.Locations = []Location{loc}
	}
	b.run().Results = append(b.run().Results, r)
	return b
}

// Document returns the constructed SARIF document.
func (b *Builder) Document() *Document {
	return b.doc
}

// WriteTo writes the SARIF document as indented JSON to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	return b.doc.WriteTo(w)
}

// WriteTo writes d as indented JSON to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	return int64(n), err
}
