// Package pattern defines the report data rendered after a scenario run.
// Patterns are pure data; renderers decide presentation.
package pattern

// PatternType identifies the kind of report pattern.
type PatternType string

const (
	PatternTypeSummary     PatternType = "summary"
	PatternTypeLeaderboard PatternType = "leaderboard"
	PatternTypeTestTable   PatternType = "test-table"
)

// Pattern is the interface all report patterns implement.
type Pattern interface {
	Type() PatternType
}

// Status values used by TestTableItem.
const (
	StatusPass = "pass"
	StatusFail = "fail"
	StatusSkip = "skip"
)
