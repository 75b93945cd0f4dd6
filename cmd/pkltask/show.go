package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dkoosis/pkltask/pkg/pattern"
	"github.com/dkoosis/pkltask/pkg/sarif"
)

// runShow renders SARIF files written by `pkltask eval --sarif`.
func runShow(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("show", stderr)
	formatFlag := fs.String("format", "auto", "report format: auto, terminal, plain, json")
	themeFlag := fs.String("theme", "default", "theme: default, mono")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "pkltask show: no SARIF files given")
		return exitUsage
	}

	var docs []*sarif.Document
	for _, path := range fs.Args() {
		doc, err := sarif.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "pkltask show: %v\n", err)
			return exitUsage
		}
		docs = append(docs, doc)
	}

	patterns := diagnosticsReport(docs)
	mode := resolveFormat(*formatFlag, stdout)
	fmt.Fprint(stdout, selectRenderer(mode, *themeFlag, stdout).Render(patterns))
	return exitCode(patterns)
}

// diagnosticsReport groups SARIF results by file: one table per file,
// error results as failed rows, notes as passed rows.
func diagnosticsReport(docs []*sarif.Document) []pattern.Pattern {
	var errs, notes int
	byFile := map[string][]pattern.TestTableItem{}
	failedFiles := map[string]bool{}
	for _, doc := range docs {
		stats := sarif.ComputeStats(doc)
		errs += stats.ByLevel[sarif.LevelError]
		notes += stats.TotalIssues - stats.ByLevel[sarif.LevelError]

		for _, run := range doc.Runs {
			for _, r := range run.Results {
				file, name := "(no location)", r.Message.Text
				if len(r.Locations) > 0 {
					loc := r.Locations[0].PhysicalLocation
					file = sarif.NormalizePath(loc.ArtifactLocation.URI)
					if loc.Region != nil && loc.Region.StartLine > 0 {
						name = fmt.Sprintf("line %d: %s", loc.Region.StartLine, r.Message.Text)
					}
				}
				status := pattern.StatusPass
				if r.Level == sarif.LevelError {
					status = pattern.StatusFail
					failedFiles[file] = true
				}
				byFile[file] = append(byFile[file], pattern.TestTableItem{Name: name, Status: status})
			}
		}
	}

	errKind := "success"
	if errs > 0 {
		errKind = "error"
	}
	patterns := []pattern.Pattern{&pattern.Summary{
		Label: fmt.Sprintf("DIAGNOSTICS: %d files", len(byFile)),
		Kind:  pattern.SummaryKindDiagnostics,
		Metrics: []pattern.SummaryItem{
			{Label: "Errors", Value: fmt.Sprint(errs), Kind: errKind},
			{Label: "Notes", Value: fmt.Sprint(notes), Kind: "info"},
		},
	}}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		status := pattern.StatusPass
		if failedFiles[f] {
			status = pattern.StatusFail
		}
		patterns = append(patterns, &pattern.TestTable{Label: f, Status: status, Results: byFile[f]})
	}
	return patterns
}
