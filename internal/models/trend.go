package models

import "time"

// Trend compares the failed count of a result with an earlier one
type Trend struct {
	PreviousFailed   int       `json:"previous_failed"`
	CurrentFailed    int       `json:"current_failed"`
	ChangePercent    float64   `json:"change_percent"`
	Direction        string    `json:"direction"` // improving, degrading, stable
	NewFailures      int       `json:"new_failures"`
	ResolvedFailures int       `json:"resolved_failures"`
	ComparedWith     time.Time `json:"compared_with"`
}

// TrendSummary describes failed counts across the last N stored results
type TrendSummary struct {
	RunsAnalyzed    int                   `json:"runs_analyzed"`
	TimeRange       string                `json:"time_range"`
	FailedSparkline []int                 `json:"failed_sparkline"`
	ByHost          map[string]*HostTrend `json:"by_host,omitempty"`
}

// HostTrend is the failed count change of a single host
type HostTrend struct {
	Hostname       string  `json:"hostname"`
	CurrentFailed  int     `json:"current_failed"`
	PreviousFailed int     `json:"previous_failed"`
	Change         int     `json:"change"`
	ChangePercent  float64 `json:"change_percent"`
}

// Remediation is a test result that needs operator action before upgrading
type Remediation struct {
	IDRef    string    `json:"id_ref"`
	Title    string    `json:"title"`
	State    State     `json:"state"`
	Risk     RiskLevel `json:"risk,omitempty"`
	Group    string    `json:"group"`
	FixType  string    `json:"fix_type,omitempty"`
	Solution string    `json:"solution,omitempty"`
}
