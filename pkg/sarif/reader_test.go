package sarif

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wantVersion = "2.1.0"

// minimalSARIF is the smallest valid SARIF document.
const minimalSARIF = `{"version":"` + wantVersion + `","runs":[{"tool":{"driver":{"name":"test"}},"results":[]}]}`

func TestRead_ValidDocument(t *testing.T) {
	doc, err := Read(strings.NewReader(minimalSARIF))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Version != wantVersion {
		t.Errorf("expected version %s, got %s", wantVersion, doc.Version)
	}
}

func TestRead_ValidWithTrailingWhitespace(t *testing.T) {
	doc, err := Read(strings.NewReader(minimalSARIF + "   \n\t\n  "))
	if err != nil {
		t.Fatalf("trailing whitespace should be accepted, got error: %v", err)
	}
	if doc.Version != wantVersion {
		t.Errorf("expected version %s, got %s", wantVersion, doc.Version)
	}
}

func TestRead_TrailingGarbageText(t *testing.T) {
	_, err := Read(strings.NewReader(minimalSARIF + `garbage`))
	if err == nil {
		t.Fatal("expected error for trailing garbage text, got nil")
	}
	if !strings.Contains(err.Error(), "trailing data") {
		t.Errorf("expected trailing data error, got %v", err)
	}
}

func TestRead_MissingVersion(t *testing.T) {
	if _, err := Read(strings.NewReader(`{"runs":[]}`)); err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestReadFile_RoundTripsBuilderOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sarif")
	var buf bytes.Buffer
	b := NewBuilder("pkl", "").
		AddResult("", LevelError, "bad", "file:///src/a.pkl", 3, 1).
		AddResult("", LevelNote, "info", "/src/a.pkl", 0, 0).
		AddResult("", LevelError, "worse", "/src/b.pkl", 0, 0)
	if _, err := b.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := ComputeStats(doc)
	if stats.TotalIssues != 3 {
		t.Errorf("expected 3 issues, got %d", stats.TotalIssues)
	}
	if stats.ByLevel[LevelError] != 2 || stats.ByLevel[LevelNote] != 1 {
		t.Errorf("unexpected level counts: %v", stats.ByLevel)
	}
	if stats.ByFile["/src/a.pkl"] != 2 {
		t.Errorf("expected file:// and plain URIs to merge, got %v", stats.ByFile)
	}
}
