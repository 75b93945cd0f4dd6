package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/pkltask/pkg/pattern"
)

// maxDetailLines bounds how much of a failure's detail Plain prints.
const maxDetailLines = 5

// Plain renders patterns as terse ANSI-free text suited to CI logs.
// Passing tables collapse to one line; failing ones list every step.
type Plain struct{}

// NewPlain creates a plain-text renderer.
func NewPlain() *Plain {
	return &Plain{}
}

// Render formats all patterns as plain text.
func (p *Plain) Render(patterns []pattern.Pattern) string {
	var sb strings.Builder
	for _, pat := range patterns {
		switch v := pat.(type) {
		case *pattern.Summary:
			p.renderSummary(&sb, v)
		case *pattern.TestTable:
			p.renderTable(&sb, v)
		case *pattern.Leaderboard:
			p.renderLeaderboard(&sb, v)
		}
	}
	return sb.String()
}

func (p *Plain) renderSummary(sb *strings.Builder, s *pattern.Summary) {
	sb.WriteString("SCOPE: " + s.Label + "\n")
	parts := make([]string, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		parts = append(parts, m.Label+"="+m.Value)
	}
	if len(parts) > 0 {
		sb.WriteString("  " + strings.Join(parts, " ") + "\n")
	}
}

func (p *Plain) renderTable(sb *strings.Builder, t *pattern.TestTable) {
	sb.WriteString("\n")
	if t.Status != pattern.StatusFail {
		sb.WriteString(fmt.Sprintf("%s %s (%d steps)\n", strings.ToUpper(orDefault(t.Status, pattern.StatusPass)), t.Label, len(t.Results)))
		return
	}
	sb.WriteString("FAIL " + t.Label + "\n")
	for _, item := range t.Results {
		line := fmt.Sprintf("  %s %s", strings.ToUpper(item.Status), item.Name)
		if item.Duration != "" {
			line += " (" + item.Duration + ")"
		}
		sb.WriteString(line + "\n")
		if item.Details == "" {
			continue
		}
		lines := strings.Split(strings.TrimRight(item.Details, "\n"), "\n")
		shown := lines
		if len(shown) > maxDetailLines {
			shown = shown[:maxDetailLines]
		}
		for _, l := range shown {
			sb.WriteString("    " + l + "\n")
		}
		if len(lines) > maxDetailLines {
			sb.WriteString(fmt.Sprintf("    ... (%d more lines)\n", len(lines)-maxDetailLines))
		}
	}
}

func (p *Plain) renderLeaderboard(sb *strings.Builder, l *pattern.Leaderboard) {
	if len(l.Items) == 0 {
		return
	}
	sb.WriteString("\n" + l.Label + "\n")
	for _, item := range l.Items {
		sb.WriteString(fmt.Sprintf("  %d. %s %s\n", item.Rank, item.Name, item.Metric))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
