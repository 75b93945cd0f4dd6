package harness

import (
	"fmt"
	"sort"
	"time"

	"github.com/dkoosis/pkltask/pkg/pattern"
)

// slowestShown caps the slowest-scenarios leaderboard.
const slowestShown = 5

// Report converts a run into renderable patterns: a summary, one table per
// scenario (steps after a failure are listed as skipped), an optional setup
// table and, for more than one scenario, the slowest scenarios.
func Report(results []*ScenarioResult, setup []SetupStep) []pattern.Pattern {
	var passed, failed int
	var total time.Duration
	for _, r := range results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
		total += r.Duration
	}

	label := fmt.Sprintf("E2E: %d scenarios, all passed", len(results))
	if failed > 0 {
		label = fmt.Sprintf("E2E: %d scenarios, %d failed", len(results), failed)
	}
	failedKind := "success"
	if failed > 0 {
		failedKind = "error"
	}
	patterns := []pattern.Pattern{&pattern.Summary{
		Label: label,
		Kind:  pattern.SummaryKindScenarios,
		Metrics: []pattern.SummaryItem{
			{Label: "Passed", Value: fmt.Sprint(passed), Kind: "success"},
			{Label: "Failed", Value: fmt.Sprint(failed), Kind: failedKind},
			{Label: "Duration", Value: formatDuration(total), Kind: "info"},
		},
	}}

	if len(setup) > 0 {
		patterns = append(patterns, setupTable(setup))
	}
	for _, r := range results {
		patterns = append(patterns, scenarioTable(r))
	}
	if len(results) > 1 {
		patterns = append(patterns, slowest(results))
	}
	return patterns
}

func scenarioTable(r *ScenarioResult) *pattern.TestTable {
	table := &pattern.TestTable{Label: r.Scenario.Name, Status: pattern.StatusPass}
	if !r.Passed() {
		table.Status = pattern.StatusFail
	}

	for _, s := range r.Steps {
		item := pattern.TestTableItem{
			Name:     s.Step.String(),
			Status:   pattern.StatusPass,
			Duration: formatDuration(s.Duration),
		}
		if s.Err != nil {
			item.Status = pattern.StatusFail
			item.Details = s.Err.Error()
		}
		table.Results = append(table.Results, item)
	}
	for _, s := range r.Scenario.Steps[len(r.Steps):] {
		table.Results = append(table.Results, pattern.TestTableItem{Name: s.String(), Status: pattern.StatusSkip})
	}
	// A failure before any step ran, e.g. a missing project directory.
	if len(r.Steps) == 0 && r.Err != nil {
		table.Results = append([]pattern.TestTableItem{{Name: "setup", Status: pattern.StatusFail, Details: r.Err.Error()}}, table.Results...)
	}
	return table
}

func setupTable(steps []SetupStep) *pattern.TestTable {
	table := &pattern.TestTable{Label: "setup", Status: pattern.StatusPass}
	for _, s := range steps {
		item := pattern.TestTableItem{Name: s.Package, Status: pattern.StatusPass}
		switch {
		case s.Skipped:
			item.Status = pattern.StatusSkip
			item.Details = "already built"
		case s.Result != nil:
			item.Duration = formatDuration(s.Result.Duration)
			if s.Result.ExitCode != 0 {
				item.Status = pattern.StatusFail
				table.Status = pattern.StatusFail
			}
		}
		table.Results = append(table.Results, item)
	}
	return table
}

func slowest(results []*ScenarioResult) *pattern.Leaderboard {
	ranked := append([]*ScenarioResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Duration > ranked[j].Duration })

	board := &pattern.Leaderboard{Label: "Slowest scenarios", MetricName: "duration", TotalCount: len(ranked)}
	for i, r := range ranked {
		if i == slowestShown {
			break
		}
		board.Items = append(board.Items, pattern.LeaderboardItem{
			Name:   r.Scenario.Name,
			Metric: formatDuration(r.Duration),
			Value:  r.Duration.Seconds(),
			Rank:   i + 1,
		})
	}
	return board
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}
