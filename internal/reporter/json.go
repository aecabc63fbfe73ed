package reporter

import (
	"encoding/json"
	"io"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/policy"
)

// JSONReporter generates machine-readable JSON reports
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(writer io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		pretty: pretty,
	}
}

// ResultDocument is the JSON shape of a rendered result
type ResultDocument struct {
	Result       *models.Result       `json:"result"`
	HighestRisk  models.RiskLevel     `json:"highest_risk,omitempty"`
	StateCounts  map[models.State]int `json:"state_counts"`
	Remediations []models.Remediation `json:"remediations"`
	Trend        *models.Trend        `json:"trend,omitempty"`
	Policy       *policy.Result       `json:"policy,omitempty"`
}

// ComparisonDocument is the JSON shape of a rendered comparison
type ComparisonDocument struct {
	*compare.Report
	Policy *policy.Result `json:"policy,omitempty"`
}

// TrendDocument is the JSON shape of a trend summary
type TrendDocument struct {
	Summary *models.TrendSummary `json:"summary"`
	Latest  compare.ResultRef    `json:"latest"`
	Trend   *models.Trend        `json:"trend,omitempty"`
}

// GenerateResult writes a result with its derived data
func (r *JSONReporter) GenerateResult(view ResultView) error {
	remediations := view.Remediations
	if remediations == nil {
		remediations = []models.Remediation{}
	}
	return r.Generate(ResultDocument{
		Result:       view.Result,
		HighestRisk:  view.Result.HighestRisk(),
		StateCounts:  view.Result.StateCounts(),
		Remediations: remediations,
		Trend:        view.Trend,
		Policy:       view.Policy,
	})
}

// GenerateComparison writes a comparison report
func (r *JSONReporter) GenerateComparison(report *compare.Report, verdict *policy.Result) error {
	return r.Generate(ComparisonDocument{Report: report, Policy: verdict})
}

// GenerateTrend writes a trend summary
func (r *JSONReporter) GenerateTrend(summary *models.TrendSummary, latest *models.Result, trend *models.Trend) error {
	return r.Generate(TrendDocument{
		Summary: summary,
		Latest: compare.ResultRef{
			ID:       latest.ID,
			Hostname: latest.Hostname,
			Finished: latest.Finished,
			Counters: latest.Counters,
		},
		Trend: trend,
	})
}

// Generate writes any value as JSON followed by a newline
func (r *JSONReporter) Generate(v interface{}) error {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	if _, err = r.writer.Write(data); err != nil {
		return err
	}

	// Add trailing newline for terminal output
	_, err = r.writer.Write([]byte("\n"))
	return err
}
