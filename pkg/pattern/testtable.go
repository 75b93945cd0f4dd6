package pattern

// TestTable lists the steps of one scenario (or one setup phase).
type TestTable struct {
	Label   string          `json:"label"`
	Status  string          `json:"status"`
	Results []TestTableItem `json:"results"`
}

// TestTableItem is a single step result.
type TestTableItem struct {
	Name     string `json:"name"`
	Status   string `json:"status"` // StatusPass, StatusFail, StatusSkip
	Duration string `json:"duration,omitempty"`
	Details  string `json:"details,omitempty"` // error message or captured output
}

func (t *TestTable) Type() PatternType { return PatternTypeTestTable }
