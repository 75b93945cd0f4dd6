package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/pkltask/pkg/pattern"
)

const (
	maxNameWidth  = 50
	maxTableNames = 60
)

// Terminal renders patterns as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
	title cases.Caser
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width, title: cases.Title(language.English)}
}

// Render formats all patterns for terminal display.
func (t *Terminal) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, p := range patterns {
		s := t.renderOne(p)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (t *Terminal) renderOne(p pattern.Pattern) string {
	switch v := p.(type) {
	case *pattern.Summary:
		return t.renderSummary(v)
	case *pattern.Leaderboard:
		return t.renderLeaderboard(v)
	case *pattern.TestTable:
		return t.renderTestTable(v)
	default:
		return ""
	}
}

func (t *Terminal) renderSummary(s *pattern.Summary) string {
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Heading.Render(s.Label))
		sb.WriteString("\n")
	}
	for _, m := range s.Metrics {
		sb.WriteString("  ")
		sb.WriteString(t.theme.ForKind(m.Kind).Render(m.Label + ": " + m.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderLeaderboard(l *pattern.Leaderboard) string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	if l.Label != "" {
		header := l.Label
		if l.TotalCount > len(l.Items) {
			header += fmt.Sprintf(" (top %d of %d)", len(l.Items), l.TotalCount)
		}
		sb.WriteString(t.theme.Heading.Render(header))
		sb.WriteString("\n")
	}

	maxName, maxMetric := 0, 0
	for _, item := range l.Items {
		maxName = max(maxName, runewidth.StringWidth(item.Name))
		maxMetric = max(maxMetric, runewidth.StringWidth(item.Metric))
	}
	maxName = min(maxName, maxNameWidth)

	for _, item := range l.Items {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Dim.Render(fmt.Sprintf("%2d. ", item.Rank)))
		sb.WriteString(padRight(truncate(item.Name, maxName), maxName))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Timing.Render(padLeft(item.Metric, maxMetric)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderTestTable(tt *pattern.TestTable) string {
	if len(tt.Results) == 0 {
		return ""
	}
	var sb strings.Builder
	if tt.Label != "" {
		sb.WriteString(t.theme.ForStatus(tt.Status).Render("") + " " + t.theme.Heading.Render(tt.Label))
		sb.WriteString("\n")
	}

	maxName, maxDur := 0, 0
	for _, r := range tt.Results {
		maxName = max(maxName, runewidth.StringWidth(t.stepName(r.Name)))
		maxDur = max(maxDur, runewidth.StringWidth(r.Duration))
	}
	maxName = min(maxName, maxTableNames)
	detailWidth := max(t.width-6, 20)

	for _, r := range tt.Results {
		sb.WriteString("    ")
		sb.WriteString(t.theme.ForStatus(r.Status).Render("") + " ")
		sb.WriteString(padRight(truncate(t.stepName(r.Name), maxName), maxName))
		if r.Duration != "" {
			sb.WriteString("  ")
			sb.WriteString(t.theme.Dim.Render(padLeft(r.Duration, maxDur)))
		}
		if r.Details != "" {
			for _, line := range strings.Split(strings.TrimRight(r.Details, "\n"), "\n") {
				sb.WriteString("\n      ")
				sb.WriteString(t.theme.Dim.Render(runewidth.Truncate(line, detailWidth, "...")))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// stepName turns "clean-project-dir" into "Clean Project Dir".
func (t *Terminal) stepName(name string) string {
	return t.title.String(strings.ReplaceAll(name, "-", " "))
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}
