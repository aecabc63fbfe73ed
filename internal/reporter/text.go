package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/aggregator"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/policy"
)

const rule = "--------------------------------------------------\n"

// ResultView is everything rendered for a single result
type ResultView struct {
	Result       *models.Result
	Remediations []models.Remediation
	Trend        *models.Trend
	Policy       *policy.Result
	ShowTests    bool
}

// TextReporter generates human-readable text reports
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a new text reporter
func NewTextReporter(writer io.Writer) *TextReporter {
	return &TextReporter{
		writer: writer,
	}
}

// GenerateResult renders a result tree with its counters
func (r *TextReporter) GenerateResult(view ResultView) error {
	res := view.Result

	r.printHeader("Preupgrade Result")
	r.printf("Result:   %s\n", res.ID)
	r.printf("Host:     %s\n", res.Hostname)
	if res.Identity != "" {
		r.printf("Identity: %s\n", res.Identity)
	}
	if len(res.Addresses) > 0 {
		addrs := make([]string, len(res.Addresses))
		for i, a := range res.Addresses {
			addrs[i] = a.Address
		}
		r.printf("Address:  %s\n", strings.Join(addrs, ", "))
	}
	r.printf("Finished: %s\n\n", formatTimestamp(res.Finished))

	r.printSummary(res, view.Trend)
	r.printTree(res, view.ShowTests)

	if len(res.Quarantined) > 0 {
		r.printf("Quarantined (unknown state, not counted):\n")
		r.printf(rule)
		for _, id := range res.Quarantined {
			r.printf("  ? %s\n", id)
		}
		r.printf("\n")
	}

	if len(view.Remediations) > 0 {
		r.printRemediations(view.Remediations)
	}

	if view.Trend != nil {
		r.printTrendInfo(view.Trend)
	}

	if view.Policy != nil {
		r.printPolicy(view.Policy)
	}

	return nil
}

func (r *TextReporter) printSummary(res *models.Result, trend *models.Trend) {
	c := res.Counters
	r.printf("Summary:\n")
	r.printf(rule)
	r.printf("  Tests: %d\n", c.Tests)
	r.printf("  Passed: %d\n", c.Passed())
	r.printf("  Failed: %d", c.Failed)
	if trend != nil {
		r.printf(" %s %.1f%% from previous result", aggregator.GetTrendIndicator(trend.Direction), trend.ChangePercent)
	}
	r.printf("\n")
	r.printf("  Needs Inspection: %d\n", c.NeedsInspection)
	r.printf("  Not Applicable: %d\n", c.NotApplicable)
	if risk := res.HighestRisk(); risk != models.RiskNone {
		r.printf("  Highest Risk: %s\n", strings.ToUpper(string(risk)))
	}
	r.printf("\n")

	counts := res.StateCounts()
	if len(counts) > 0 {
		r.printf("Tests by State:\n")
		for _, s := range models.AllStates {
			if n := counts[s]; n > 0 {
				r.printf("  %s: %d\n", s.Display(), n)
			}
		}
		r.printf("\n")
	}
}

type treeItem struct {
	id    int
	depth int
}

// printTree walks the groups depth first without recursion
func (r *TextReporter) printTree(res *models.Result, showTests bool) {
	if len(res.Groups) == 0 {
		return
	}

	r.printf("Groups:\n")
	r.printf(rule)

	roots := res.Roots()
	stack := make([]treeItem, 0, len(res.Groups))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, treeItem{id: roots[i]})
	}

	var leaves map[int][]int
	if showTests {
		leaves = make(map[int][]int)
		for i := range res.Tests {
			leaves[res.Tests[i].Group] = append(leaves[res.Tests[i].Group], i)
		}
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := res.Node(item.id)
		if node == nil {
			continue
		}
		indent := strings.Repeat("  ", item.depth+1)
		title := node.Group.Title
		if title == "" {
			title = node.Group.XCCDFID
		}
		c := node.Counters
		r.printf("%s%s  [%d tests, %d failed, %d ni, %d na]\n",
			indent, title, c.Tests, c.Failed, c.NeedsInspection, c.NotApplicable)

		for _, i := range leaves[item.id] {
			t := &res.Tests[i]
			r.printf("%s  %s %s (%s)", indent, stateMark(t.State), t.Test.Title, t.State.Display())
			if risk := t.HighestRisk(); risk != models.RiskNone {
				r.printf(" risk=%s", risk)
			}
			r.printf("\n")
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, treeItem{id: node.Children[i], depth: item.depth + 1})
		}
	}
	r.printf("\n")
}

func (r *TextReporter) printRemediations(items []models.Remediation) {
	r.printf("Required Actions:\n")
	r.printf(rule)

	for i, item := range items {
		level := "NONE"
		if item.Risk != models.RiskNone {
			level = strings.ToUpper(string(item.Risk))
		}
		r.printf("  %d. [%s] %s (%s)\n", i+1, level, item.Title, item.State.Display())
		if item.Solution != "" {
			for _, line := range strings.Split(item.Solution, "\n") {
				r.printf("     %s\n", line)
			}
		}
	}
	r.printf("\n")
}

func (r *TextReporter) printTrendInfo(trend *models.Trend) {
	r.printf("Trend Analysis:\n")
	r.printf(rule)
	r.printf("  Direction: %s %s\n", trend.Direction, aggregator.GetTrendIndicator(trend.Direction))
	r.printf("  Change: %d → %d failed (%.1f%%)\n",
		trend.PreviousFailed,
		trend.CurrentFailed,
		trend.ChangePercent)

	if trend.NewFailures > 0 {
		r.printf("  New Failures: %d\n", trend.NewFailures)
	}
	if trend.ResolvedFailures > 0 {
		r.printf("  Resolved: %d\n", trend.ResolvedFailures)
	}

	r.printf("  Compared With: %s\n\n", formatTimestamp(trend.ComparedWith))
}

func (r *TextReporter) printPolicy(result *policy.Result) {
	r.printf("Policy:\n")
	r.printf(rule)
	if result.Pass {
		r.printf("  PASS\n\n")
		return
	}
	r.printf("  FAIL (%d violation(s))\n", len(result.Violations))
	for _, v := range result.Violations {
		r.printf("  ✗ %s: %s\n", v.Rule, v.Message)
	}
	r.printf("\n")
}

// GenerateComparison renders the discrepancies between two results
func (r *TextReporter) GenerateComparison(report *compare.Report, verdict *policy.Result) error {
	r.printHeader("Result Comparison")

	r.printf("Left:  %s  %s  %s\n", report.Left.ID, report.Left.Hostname, formatTimestamp(report.Left.Finished))
	r.printf("Right: %s  %s  %s\n\n", report.Right.ID, report.Right.Hostname, formatTimestamp(report.Right.Finished))

	s := report.Summary
	r.printf("Tests: %d → %d\n", s.LeftTotal, s.RightTotal)
	r.printf("Failed: %d → %d (%+d)\n", report.Left.Counters.Failed, report.Right.Counters.Failed,
		report.Right.Counters.Failed-report.Left.Counters.Failed)
	r.printf("Discrepancies: %d   Left only: %d   Right only: %d   Mismatches: %d\n\n",
		s.Discrepancy, s.LeftOnly, s.RightOnly, s.Mismatches)

	if mismatches := compare.FilterKind(report.Discrepancies, compare.Mismatch); len(mismatches) > 0 {
		r.printf("State Mismatches:\n")
		r.printf(rule)
		for _, d := range mismatches {
			r.printf("  %s %s: %s → %s\n", stateMark(d.RightState()), d.IDRef, d.LeftState(), d.RightState())
			if title := d.Title(); title != "" {
				r.printf("         %s\n", title)
			}
		}
		r.printf("\n")
	}

	if only := compare.FilterKind(report.Discrepancies, compare.LeftOnly); len(only) > 0 {
		r.printf("Only in Left:\n")
		r.printf(rule)
		for _, d := range only {
			r.printf("  - %s (%s) %s\n", d.IDRef, d.LeftState(), d.Title())
		}
		r.printf("\n")
	}

	if only := compare.FilterKind(report.Discrepancies, compare.RightOnly); len(only) > 0 {
		r.printf("Only in Right:\n")
		r.printf(rule)
		for _, d := range only {
			r.printf("  + %s (%s) %s\n", d.IDRef, d.RightState(), d.Title())
		}
		r.printf("\n")
	}

	if len(s.Transitions) > 0 {
		r.printf("Transitions:\n")
		for _, key := range compare.SortedTransitions(s.Transitions) {
			r.printf("  %s: %d\n", key, s.Transitions[key])
		}
		r.printf("\n")
	}

	if len(s.LeftDuplicates) > 0 || len(s.RightDuplicates) > 0 {
		r.printf("Duplicate identifiers:\n")
		for _, id := range s.LeftDuplicates {
			r.printf("  left:  %s\n", id)
		}
		for _, id := range s.RightDuplicates {
			r.printf("  right: %s\n", id)
		}
		r.printf("\n")
	}

	if report.Identical() {
		r.printf("No differences found.\n")
	} else if s.Mismatches == 0 {
		r.printf("No state changes, only tests added or removed.\n")
	}

	if verdict != nil {
		r.printf("\n")
		r.printPolicy(verdict)
	}

	return nil
}

// GenerateTrend renders failed counts across stored results
func (r *TextReporter) GenerateTrend(summary *models.TrendSummary, latest *models.Result, previous *models.Result, top []models.Remediation) error {
	r.printHeader("Preupgrade Trend Summary")

	r.printf("Time Range: %s\n", summary.TimeRange)
	r.printf("Results Analyzed: %d\n\n", summary.RunsAnalyzed)

	r.printf("Latest Result: %s (%s)\n", formatTimestamp(latest.Finished), latest.Hostname)
	r.printf("Failed Tests: %d", latest.Counters.Failed)
	if previous != nil {
		trend := aggregator.NewTrendAnalyzer().CalculateTrend(latest, previous)
		r.printf(" (%s %s %.1f%%)", aggregator.GetTrendIndicator(trend.Direction), trend.Direction, trend.ChangePercent)
	}
	r.printf("\n\n")

	if len(summary.FailedSparkline) > 0 {
		r.printf("Failed Trend (over time):\n")
		r.printf("  %s\n", Sparkline(summary.FailedSparkline))
	}

	if len(summary.ByHost) > 0 {
		r.printf("\nBy Host:\n")
		r.printf(rule)
		for _, host := range sortedHosts(summary.ByHost) {
			ht := summary.ByHost[host]
			indicator := "→"
			if ht.Change < 0 {
				indicator = "↓"
			} else if ht.Change > 0 {
				indicator = "↑"
			}
			r.printf("  %s: %d failed (%s %+d, %.1f%%)\n", host, ht.CurrentFailed, indicator, ht.Change, ht.ChangePercent)
		}
	}

	if len(top) > 0 {
		r.printf("\nTop Actions:\n")
		r.printf(rule)
		for i, item := range top {
			r.printf("  %d. [%s] %s\n", i+1, item.State.Display(), item.Title)
		}
	}

	r.printf("\n")
	return nil
}

// Sparkline renders values as a block sparkline followed by the first and
// last value
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for _, v := range values {
		if max == min {
			b.WriteRune(chars[len(chars)/2])
			continue
		}
		normalized := float64(v-min) / float64(max-min)
		b.WriteRune(chars[int(normalized*float64(len(chars)-1))])
	}

	fmt.Fprintf(&b, " [%d → %d]", values[0], values[len(values)-1])
	return b.String()
}

func sortedHosts(byHost map[string]*models.HostTrend) []string {
	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

func stateMark(s models.State) string {
	switch s {
	case models.StatePass:
		return "✓"
	case models.StateNotApplicable, models.StateInformational:
		return "·"
	case models.StateFail, models.StateError:
		return "✗"
	case "":
		return " "
	default:
		return "!"
	}
}

func (r *TextReporter) printHeader(title string) {
	const width = 44
	pad := width - len([]rune(title))
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	r.printf("╔%s╗\n", strings.Repeat("═", width))
	r.printf("║%s%s%s║\n", strings.Repeat(" ", left), title, strings.Repeat(" ", pad-left))
	r.printf("╚%s╝\n\n", strings.Repeat("═", width))
}

// printf is a helper to write formatted output
func (r *TextReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format, args...)
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
