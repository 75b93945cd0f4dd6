package pattern

// Leaderboard ranks items by a metric, e.g. the slowest scenarios.
type Leaderboard struct {
	Label      string            `json:"label"`
	MetricName string            `json:"metric_name"`
	Items      []LeaderboardItem `json:"items"`
	TotalCount int               `json:"total_count"` // before truncation to top N
}

// LeaderboardItem is a single ranked entry.
type LeaderboardItem struct {
	Name   string  `json:"name"`
	Metric string  `json:"metric"` // formatted value, e.g. "2.3s"
	Value  float64 `json:"value"`
	Rank   int     `json:"rank"`
}

func (l *Leaderboard) Type() PatternType { return PatternTypeLeaderboard }
