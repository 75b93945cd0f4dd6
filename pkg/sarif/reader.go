package sarif

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadFile parses a SARIF file from disk.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sarif file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a single SARIF document from r. Trailing whitespace is
// accepted; any other trailing data is an error.
func Read(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode sarif: %w", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode sarif: trailing data after document")
	}

	if doc.Version == "" {
		return nil, fmt.Errorf("missing sarif version")
	}

	return &doc, nil
}

// IsSARIF reports whether data looks like a SARIF document.
func IsSARIF(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	var probe struct {
		Version string            `json:"version"`
		Runs    []json.RawMessage `json:"runs"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Version != "" && probe.Runs != nil
}

// NormalizePath strips a file:// scheme from a result URI.
func NormalizePath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// Stats aggregates statistics from SARIF results.
type Stats struct {
	TotalIssues int
	ByLevel     map[string]int
	ByFile      map[string]int
}

// ComputeStats calculates aggregate statistics from a SARIF document.
func ComputeStats(doc *Document) Stats {
	stats := Stats{
		ByLevel: make(map[string]int),
		ByFile:  make(map[string]int),
	}

	for _, run := range doc.Runs {
		for _, result := range run.Results {
			stats.TotalIssues++
			stats.ByLevel[result.Level]++

			if len(result.Locations) > 0 {
				file := NormalizePath(result.Locations[0].PhysicalLocation.ArtifactLocation.URI)
				stats.ByFile[file]++
			}
		}
	}

	return stats
}
