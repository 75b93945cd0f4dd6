// Package sarif builds and reads SARIF 2.1.0 documents. pkltask uses it to
// hand interpreter diagnostics to IDE and CI tooling in a standard shape.
package sarif

// Document represents a SARIF 2.1.0 document.
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html
type Document struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single tool run.
type Run struct {
	Tool        Tool         `json:"tool"`
	Invocations []Invocation `json:"invocations,omitempty"`
	Results     []Result     `json:"results"`
}

// Tool identifies the tool that produced the results.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver describes the tool's identity.
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Invocation records how the tool was run and how it exited.
type Invocation struct {
	CommandLine         string `json:"commandLine,omitempty"`
	ExitCode            int    `json:"exitCode"`
	ExecutionSuccessful bool   `json:"executionSuccessful"`
}

// Result represents a single diagnostic.
type Result struct {
	RuleID    string     `json:"ruleId,omitempty"`
	Level     string     `json:"level"` // "error", "warning", "note", "none"
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

// Message contains the diagnostic text.
type Message struct {
	Text string `json:"text"`
}

// Location identifies where the diagnostic applies.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation pinpoints the file and region.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation identifies the file.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region identifies the position within the file.
type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// Levels used by pkltask.
const (
	LevelError = "error"
	LevelNote  = "note"
)
