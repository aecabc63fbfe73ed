package reporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/aggregator"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/policy"
)

var finished = time.Date(2026, 3, 1, 10, 5, 30, 0, time.UTC)

type leaf struct {
	id    string
	state models.State
	risk  models.RiskLevel
}

func sampleResult(t *testing.T, id string, leaves ...leaf) *models.Result {
	t.Helper()
	b := models.NewBuilder(models.Result{
		ID:        id,
		Hostname:  "host1.example.com",
		Identity:  "root",
		Finished:  finished,
		Addresses: []models.Address{{Address: "10.0.0.1"}},
	})
	system := b.AddGroup(models.TestGroup{XCCDFID: "system", Title: "System"}, models.NoParent)
	kernel := b.AddGroup(models.TestGroup{XCCDFID: "kernel", Title: "Kernel"}, system)
	for i, l := range leaves {
		node := kernel
		if i%2 == 1 {
			node = system
		}
		idx := b.AddTest(node, models.Test{IDRef: l.id, Title: "Check " + l.id, FixText: "fix " + l.id}, l.state, finished)
		if l.risk != models.RiskNone {
			b.AddRisk(idx, models.Risk{Level: l.risk, Message: "risky"})
		}
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	agg, err := aggregator.New(aggregator.Options{}).Aggregate(r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	return agg
}

func defaultLeaves() []leaf {
	return []leaf{
		{"t1", models.StateFail, models.RiskHigh},
		{"t2", models.StatePass, models.RiskNone},
		{"t3", models.StateNeedsInspection, models.RiskSlight},
		{"t4", models.StateNotApplicable, models.RiskNone},
	}
}

func TestGenerateResult(t *testing.T) {
	r := sampleResult(t, "res-1", defaultLeaves()...)
	var buf bytes.Buffer

	err := NewTextReporter(&buf).GenerateResult(ResultView{
		Result:       r,
		Remediations: aggregator.NewRemediationPlanner().Plan(r),
		ShowTests:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Preupgrade Result",
		"Host:     host1.example.com",
		"Address:  10.0.0.1",
		"Tests: 4",
		"Passed: 1",
		"Failed: 1",
		"Needs Inspection: 1",
		"Highest Risk: HIGH",
		"System  [4 tests, 1 failed, 1 ni, 1 na]",
		"    Kernel  [2 tests, 1 failed, 1 ni, 0 na]",
		"✗ Check t1 (Failed) risk=high",
		"Required Actions:",
		"1. [HIGH] Check t1",
		"fix t1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	// Kernel is printed below System
	if strings.Index(out, "Kernel  [") < strings.Index(out, "System  [") {
		t.Error("child printed before parent")
	}
}

func TestGenerateResultWithoutTests(t *testing.T) {
	r := sampleResult(t, "res-1", defaultLeaves()...)
	var buf bytes.Buffer
	if err := NewTextReporter(&buf).GenerateResult(ResultView{Result: r}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Check t1") {
		t.Error("tests should be hidden unless requested")
	}
	if strings.Contains(buf.String(), "Required Actions") {
		t.Error("no remediation section expected")
	}
}

func TestGenerateResultQuarantineTrendPolicy(t *testing.T) {
	r := sampleResult(t, "res-1", defaultLeaves()...)
	r.Quarantined = []string{"t9"}
	trend := &models.Trend{PreviousFailed: 2, CurrentFailed: 1, ChangePercent: -50, Direction: "improving", ComparedWith: finished}
	verdict := &policy.Result{Pass: false, Violations: []policy.Violation{{Rule: "max_failed", Message: "failed tests 1 exceeds limit 0"}}}

	var buf bytes.Buffer
	if err := NewTextReporter(&buf).GenerateResult(ResultView{Result: r, Trend: trend, Policy: verdict}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Quarantined",
		"? t9",
		"Trend Analysis:",
		"Change: 2 → 1 failed (-50.0%)",
		"↓ -50.0% from previous result",
		"FAIL (1 violation(s))",
		"✗ max_failed: failed tests 1 exceeds limit 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerateResultEmptyTree(t *testing.T) {
	r := &models.Result{ID: "empty", Hostname: "h", Aggregated: true}
	var buf bytes.Buffer
	if err := NewTextReporter(&buf).GenerateResult(ResultView{Result: r}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Groups:") {
		t.Error("no groups section expected for empty tree")
	}
	if !strings.Contains(buf.String(), "Finished: -") {
		t.Error("zero finished time should render as -")
	}
}

func TestGenerateComparison(t *testing.T) {
	left := sampleResult(t, "left", leaf{"t1", models.StateFail, ""}, leaf{"t2", models.StatePass, ""}, leaf{"t3", models.StatePass, ""})
	right := sampleResult(t, "right", leaf{"t1", models.StatePass, ""}, leaf{"t2", models.StatePass, ""}, leaf{"t4", models.StateFail, ""})

	report, err := compare.NewReport(left, right)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewTextReporter(&buf).GenerateComparison(report, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Result Comparison",
		"Left:  left",
		"Right: right",
		"Discrepancies: 3   Left only: 1   Right only: 1   Mismatches: 1",
		"✓ t1: fail → pass",
		"- t3 (pass) Check t3",
		"+ t4 (fail) Check t4",
		"fail→pass: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestGenerateComparisonIdentical(t *testing.T) {
	r := sampleResult(t, "same", defaultLeaves()...)
	report, err := compare.NewReport(r, r)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewTextReporter(&buf).GenerateComparison(report, &policy.Result{Pass: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No differences found.") {
		t.Error("expected identical message")
	}
	if !strings.Contains(buf.String(), "PASS") {
		t.Error("expected policy pass")
	}
}

func TestGenerateTrend(t *testing.T) {
	prev := sampleResult(t, "a", leaf{"t1", models.StateFail, ""}, leaf{"t2", models.StateFail, ""})
	latest := sampleResult(t, "b", leaf{"t1", models.StateFail, ""}, leaf{"t2", models.StatePass, ""})
	latest.Finished = finished.Add(24 * time.Hour)

	summary := aggregator.NewTrendAnalyzer().AnalyzeLastNRuns([]*models.Result{prev, latest})
	top := aggregator.NewRemediationPlanner().Plan(latest)

	var buf bytes.Buffer
	if err := NewTextReporter(&buf).GenerateTrend(summary, latest, prev, top); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Preupgrade Trend Summary",
		"Results Analyzed: 2",
		"Failed Tests: 1",
		"improving",
		"[2 → 1]",
		"host1.example.com: 1 failed",
		"Top Actions:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   string
	}{
		{"empty", nil, ""},
		{"flat", []int{3, 3}, "▅▅ [3 → 3]"},
		{"rising", []int{0, 7}, "▁█ [0 → 7]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sparkline(tt.values); got != tt.want {
				t.Errorf("Sparkline(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestStateMark(t *testing.T) {
	tests := map[models.State]string{
		models.StatePass:            "✓",
		models.StateFail:            "✗",
		models.StateError:           "✗",
		models.StateNotApplicable:   "·",
		models.StateNeedsInspection: "!",
		"":                          " ",
	}
	for state, want := range tests {
		if got := stateMark(state); got != want {
			t.Errorf("stateMark(%q) = %q, want %q", state, got, want)
		}
	}
}
