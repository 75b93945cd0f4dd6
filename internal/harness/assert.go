package harness

import (
	"errors"
	"os"
	"strings"
)

// Expectation is a set of output files that must exist (or, with Absent,
// must not exist) after a build or publish.
type Expectation struct {
	Files           []string `yaml:"files"`
	TargetFramework string   `yaml:"target_framework,omitempty"`
	Published       bool     `yaml:"published,omitempty"`
	Absent          bool     `yaml:"absent,omitempty"`
}

// Check evaluates exp and returns every failed file as an *AssertionFailure.
func (e *Example) Check(exp Expectation) error {
	var errs []error
	for _, rel := range exp.Files {
		path := e.outputPath(rel, exp.TargetFramework, exp.Published)
		exists := fileExists(path)
		switch {
		case !exp.Absent && !exists:
			errs = append(errs, &AssertionFailure{Kind: AssertFileMissing, Target: path})
		case exp.Absent && exists:
			errs = append(errs, &AssertionFailure{Kind: AssertFileUnexpected, Target: path})
		}
	}
	return errors.Join(errs...)
}

// ExpectBuildFiles checks that files exist under the build output of tfm
// ("" selects the default target framework).
func (e *Example) ExpectBuildFiles(tfm string, files ...string) error {
	return e.Check(Expectation{Files: files, TargetFramework: tfm})
}

// ExpectNoBuildFiles checks that files do not exist under the build output.
func (e *Example) ExpectNoBuildFiles(tfm string, files ...string) error {
	return e.Check(Expectation{Files: files, TargetFramework: tfm, Absent: true})
}

// ExpectPublishedFiles checks that files exist under the publish output.
func (e *Example) ExpectPublishedFiles(tfm string, files ...string) error {
	return e.Check(Expectation{Files: files, TargetFramework: tfm, Published: true})
}

// ExpectLinesInLog checks that every substring appears somewhere in log.
// Order and adjacency are not checked.
func ExpectLinesInLog(log string, lines ...string) error {
	var errs []error
	for _, line := range lines {
		if !strings.Contains(log, line) {
			errs = append(errs, &AssertionFailure{Kind: AssertLogMissing, Target: line, Detail: log})
		}
	}
	return errors.Join(errs...)
}

// ExpectEmpty checks that a captured stream is empty.
func ExpectEmpty(stream, content string) error {
	if content == "" {
		return nil
	}
	return &AssertionFailure{Kind: AssertStreamNotEmpty, Target: stream, Detail: content}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
