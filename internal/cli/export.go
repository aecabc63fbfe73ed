package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

var (
	exportFormat string
	exportOutput string
	exportLastN  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export test outcomes of stored results",
	Long: `Export the test outcomes of stored results, one record per test, for
spreadsheets, ticketing or code scanning dashboards.

Supported formats:
  csv    Tabular format for spreadsheets
  json   Structured JSON for programmatic consumption
  sarif  SARIF 2.1.0 with one finding per test that needs attention

Example:
  preupg-results export --format csv -o tests.csv
  preupg-results export --format sarif -o results.sarif
  preupg-results export --format json --last 5 -o history.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv",
		"output format: csv, json, or sarif")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"write output to file (default: stdout)")
	exportCmd.Flags().IntVarP(&exportLastN, "last", "n", 1,
		"number of recent results to include")
}

// TestRecord is a single row in the export.
type TestRecord struct {
	ResultID string `json:"result_id"`
	Hostname string `json:"hostname"`
	Finished string `json:"finished"`
	Group    string `json:"group"`
	IDRef    string `json:"id_ref"`
	Title    string `json:"title"`
	State    string `json:"state"`
	Risk     string `json:"risk,omitempty"`
	Date     string `json:"date"`
}

// TestExport is the full export payload.
type TestExport struct {
	ExportedAt  string       `json:"exported_at"`
	ResultCount int          `json:"result_count"`
	TestCount   int          `json:"test_count"`
	Records     []TestRecord `json:"records"`
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFormat {
	case "csv", "json", "sarif":
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use csv, json, or sarif)", exportFormat)}
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	results, err := store.GetLastN(exportLastN)
	if err != nil || len(results) == 0 {
		fmt.Println("No stored results found. Run 'preupg-results import <report>' first.")
		return nil
	}

	logVerbose("Exporting %d results", len(results))

	export := buildTestExport(results)

	writer, closeFn, err := openOutput(exportOutput)
	if err != nil {
		return err
	}
	defer closeFn()

	switch exportFormat {
	case "csv":
		return writeCSV(writer, export)
	case "json":
		return writeExportJSON(writer, export)
	default:
		return writeSARIF(writer, export)
	}
}

func buildTestExport(results []*models.Result) *TestExport {
	var records []TestRecord

	for _, r := range results {
		finished := r.Finished.UTC().Format(time.RFC3339)
		for i := range r.Tests {
			t := &r.Tests[i]
			rec := TestRecord{
				ResultID: r.ID,
				Hostname: r.Hostname,
				Finished: finished,
				Group:    groupPath(r, t.Group),
				IDRef:    t.IDRef(),
				Title:    t.Test.Title,
				State:    string(t.State),
				Date:     t.Date.UTC().Format(time.RFC3339),
			}
			if risk := t.HighestRisk(); risk != models.RiskNone {
				rec.Risk = string(risk)
			}
			records = append(records, rec)
		}
	}

	// Worst state first, then group, then test
	sort.SliceStable(records, func(i, j int) bool {
		si := models.State(records[i].State).Severity()
		sj := models.State(records[j].State).Severity()
		if si != sj {
			return si > sj
		}
		if records[i].Group != records[j].Group {
			return records[i].Group < records[j].Group
		}
		return records[i].IDRef < records[j].IDRef
	})

	return &TestExport{
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		ResultCount: len(results),
		TestCount:   len(records),
		Records:     records,
	}
}

// groupPath joins the titles of a node and its ancestors, top-level first
func groupPath(r *models.Result, node int) string {
	var parts []string
	for n := r.Node(node); n != nil; n = r.Node(n.Parent) {
		name := n.Group.Title
		if name == "" {
			name = n.Group.XCCDFID
		}
		parts = append(parts, name)
		if n.IsRoot() {
			break
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}

func writeCSV(w io.Writer, export *TestExport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"result_id", "hostname", "finished", "group",
		"id_ref", "title", "state", "risk", "date",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range export.Records {
		row := []string{
			r.ResultID, r.Hostname, r.Finished, r.Group,
			r.IDRef, r.Title, r.State, r.Risk, r.Date,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func writeExportJSON(w io.Writer, export *TestExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// SARIF 2.1.0 output for code scanning dashboards.
// Minimal structures, only what's needed for valid SARIF.

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// writeSARIF emits one finding per test whose state calls for a solution
func writeSARIF(w io.Writer, export *TestExport) error {
	rulesMap := map[string]sarifRule{}
	results := []sarifResult{}

	for _, rec := range export.Records {
		state := models.State(rec.State)
		if !state.ShouldDisplaySolution() {
			continue
		}
		if _, exists := rulesMap[rec.IDRef]; !exists {
			rulesMap[rec.IDRef] = sarifRule{
				ID:               rec.IDRef,
				ShortDescription: sarifMessage{Text: rec.Title},
				DefaultConfig:    sarifDefaultConfig{Level: sarifLevel(state)},
			}
		}

		results = append(results, sarifResult{
			RuleID:  rec.IDRef,
			Level:   sarifLevel(state),
			Message: sarifMessage{Text: formatFinding(rec)},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysical{
					ArtifactLocation: sarifArtifact{URI: "host/" + rec.Hostname},
				},
			}},
		})
	}

	rules := make([]sarifRule, 0, len(rulesMap))
	for _, r := range rulesMap {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    "preupg-results",
					Version: buildVersion,
					Rules:   rules,
				},
			},
			Results: results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func sarifLevel(state models.State) string {
	switch state {
	case models.StateFail, models.StateError:
		return "error"
	case models.StateNeedsAction, models.StateNeedsInspection:
		return "warning"
	default:
		return "note"
	}
}

func formatFinding(rec TestRecord) string {
	text := fmt.Sprintf("%s: %s (%s)", rec.Group, rec.Title, models.State(rec.State).Display())
	if rec.Risk != "" {
		text += ". Risk: " + rec.Risk
	}
	return text
}
