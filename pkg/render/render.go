// Package render turns report patterns into terminal, plain-text or JSON
// output.
package render

import "github.com/dkoosis/pkltask/pkg/pattern"

// Renderer converts patterns to formatted output.
type Renderer interface {
	Render(patterns []pattern.Pattern) string
}

// ByName returns the renderer for "terminal", "plain" or "json".
// Unknown names return nil.
func ByName(name string, theme Theme, width int) Renderer {
	switch name {
	case "terminal":
		return NewTerminal(theme, width)
	case "plain":
		return NewPlain()
	case "json":
		return NewJSON()
	default:
		return nil
	}
}
