package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/pkltask/pkg/pattern"
)

// Mark is the icon and style for one outcome.
type Mark struct {
	Icon  string
	Style lipgloss.Style
}

// Render draws the icon followed by text in the mark's style.
func (m Mark) Render(text string) string {
	if text == "" {
		return m.Style.Render(m.Icon)
	}
	return m.Style.Render(m.Icon + " " + text)
}

// Theme styles terminal reports. Outcomes use the colours of the build
// log itself: errors red, warnings yellow, passes green.
type Theme struct {
	Name    string
	Heading lipgloss.Style
	// Dim is for ranks, durations and failure details.
	Dim lipgloss.Style
	// Timing highlights leaderboard durations.
	Timing lipgloss.Style

	Pass Mark
	Fail Mark
	Warn Mark
	Skip Mark
	Info Mark
}

// BuildLogTheme uses the 16 base ANSI colours so the report follows the
// terminal's palette the same way the orchestrator's console logger does.
func BuildLogTheme() Theme {
	ansi := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Theme{
		Name:    "default",
		Heading: lipgloss.NewStyle().Bold(true),
		Dim:     ansi("8"),
		Timing:  ansi("3"),
		Pass:    Mark{Icon: "✔", Style: ansi("2")},
		Fail:    Mark{Icon: "✘", Style: ansi("1").Bold(true)},
		Warn:    Mark{Icon: "▲", Style: ansi("3")},
		Skip:    Mark{Icon: "–", Style: ansi("8")},
		Info:    Mark{Icon: "•", Style: ansi("6")},
	}
}

// MonoTheme has no colour and ASCII icons, for NO_COLOR and CI logs.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:    "mono",
		Heading: plain,
		Dim:     plain,
		Timing:  plain,
		Pass:    Mark{Icon: "+", Style: plain},
		Fail:    Mark{Icon: "x", Style: plain},
		Warn:    Mark{Icon: "!", Style: plain},
		Skip:    Mark{Icon: "-", Style: plain},
		Info:    Mark{Icon: "*", Style: plain},
	}
}

// ThemeByName returns "mono" by name and BuildLogTheme otherwise.
func ThemeByName(name string) Theme {
	if name == "mono" {
		return MonoTheme()
	}
	return BuildLogTheme()
}

// ForStatus maps a pattern.Status* value to its mark.
func (t Theme) ForStatus(status string) Mark {
	switch status {
	case pattern.StatusPass:
		return t.Pass
	case pattern.StatusFail:
		return t.Fail
	case pattern.StatusSkip:
		return t.Skip
	default:
		return t.Info
	}
}

// ForKind maps a summary metric kind ("success", "error", "warning") to
// its mark.
func (t Theme) ForKind(kind string) Mark {
	switch kind {
	case "success":
		return t.Pass
	case "error":
		return t.Fail
	case "warning":
		return t.Warn
	default:
		return t.Info
	}
}
