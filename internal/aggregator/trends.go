package aggregator

import (
	"fmt"
	"strings"
	"time"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// TrendAnalyzer analyzes failed counts across stored results
type TrendAnalyzer struct{}

// NewTrendAnalyzer creates a new trend analyzer
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// CalculateTrend compares current result with a previous one
func (t *TrendAnalyzer) CalculateTrend(current, previous *models.Result) *models.Trend {
	if previous == nil {
		return nil
	}

	trend := &models.Trend{
		PreviousFailed: previous.Counters.Failed,
		CurrentFailed:  current.Counters.Failed,
		ComparedWith:   previous.Finished,
	}

	change := current.Counters.Failed - previous.Counters.Failed
	if previous.Counters.Failed > 0 {
		trend.ChangePercent = float64(change) / float64(previous.Counters.Failed) * 100.0
	}

	switch {
	case change < 0:
		trend.Direction = "improving"
		trend.ResolvedFailures = -change
	case change > 0:
		trend.Direction = "degrading"
		trend.NewFailures = change
	default:
		trend.Direction = "stable"
	}

	return trend
}

// AnalyzeLastNRuns summarizes results ordered oldest first
func (t *TrendAnalyzer) AnalyzeLastNRuns(runs []*models.Result) *models.TrendSummary {
	if len(runs) == 0 {
		return nil
	}

	summary := &models.TrendSummary{
		RunsAnalyzed: len(runs),
		ByHost:       make(map[string]*models.HostTrend),
	}

	if len(runs) > 1 {
		days := int(runs[len(runs)-1].Finished.Sub(runs[0].Finished).Hours() / 24)
		summary.TimeRange = fmt.Sprintf("Last %d days", days)
	} else {
		summary.TimeRange = "Single run"
	}

	summary.FailedSparkline = make([]int, len(runs))
	for i, run := range runs {
		summary.FailedSparkline[i] = run.Counters.Failed
	}

	if len(runs) >= 2 {
		t.calculateHostTrends(runs, summary)
	}

	return summary
}

// calculateHostTrends compares the first and last result of every host
func (t *TrendAnalyzer) calculateHostTrends(runs []*models.Result, summary *models.TrendSummary) {
	first := make(map[string]*models.Result)
	last := make(map[string]*models.Result)
	for _, run := range runs {
		if _, ok := first[run.Hostname]; !ok {
			first[run.Hostname] = run
		}
		last[run.Hostname] = run
	}

	for host, earliest := range first {
		latest := last[host]
		change := latest.Counters.Failed - earliest.Counters.Failed

		changePercent := 0.0
		if earliest.Counters.Failed > 0 {
			changePercent = float64(change) / float64(earliest.Counters.Failed) * 100.0
		} else if latest.Counters.Failed > 0 {
			changePercent = 100.0
		}

		summary.ByHost[host] = &models.HostTrend{
			Hostname:       host,
			CurrentFailed:  latest.Counters.Failed,
			PreviousFailed: earliest.Counters.Failed,
			Change:         change,
			ChangePercent:  changePercent,
		}
	}
}

// GenerateComparisonReport renders a short counter comparison of two results
func (t *TrendAnalyzer) GenerateComparisonReport(current, previous *models.Result) string {
	if previous == nil {
		return "No previous run to compare with"
	}

	trend := t.CalculateTrend(current, previous)

	var b strings.Builder
	fmt.Fprintf(&b, "Comparison: %s vs %s\n\n", formatDate(current.Finished), formatDate(previous.Finished))
	fmt.Fprintf(&b, "Failed: %d → %d (%.1f%% %s)\n",
		trend.PreviousFailed, trend.CurrentFailed, trend.ChangePercent, trend.Direction)

	counters := []struct {
		label      string
		prev, curr int
	}{
		{"Needs inspection", previous.Counters.NeedsInspection, current.Counters.NeedsInspection},
		{"Not applicable", previous.Counters.NotApplicable, current.Counters.NotApplicable},
		{"Tests", previous.Counters.Tests, current.Counters.Tests},
	}
	for _, c := range counters {
		if c.prev == c.curr {
			continue
		}
		fmt.Fprintf(&b, "%s: %d → %d (%+d)\n", c.label, c.prev, c.curr, c.curr-c.prev)
	}

	if trend.NewFailures > 0 {
		fmt.Fprintf(&b, "\nNew Failures: %d\n", trend.NewFailures)
	}
	if trend.ResolvedFailures > 0 {
		fmt.Fprintf(&b, "\nResolved Failures: %d\n", trend.ResolvedFailures)
	}

	return b.String()
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// GetTrendIndicator returns a visual indicator for trend direction
func GetTrendIndicator(direction string) string {
	switch direction {
	case "improving":
		return "↓"
	case "degrading":
		return "↑"
	case "stable":
		return "→"
	default:
		return "?"
	}
}
