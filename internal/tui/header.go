package tui

import (
	"fmt"
	"strings"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 5

// renderHeader produces the header string from the comparison report.
func renderHeader(report *compare.Report, width int) string {
	var b strings.Builder

	// Line 1: the two sides
	b.WriteString(fmt.Sprintf("Comparison  %s (%s)  →  %s (%s)",
		shortID(report.Left.ID), report.Left.Hostname,
		shortID(report.Right.ID), report.Right.Hostname))
	b.WriteString("\n")

	// Line 2: totals
	s := report.Summary
	b.WriteString(fmt.Sprintf("Tests: %d → %d  Failed: %d → %d  Discrepancies: %d",
		s.LeftTotal, s.RightTotal,
		report.Left.Counters.Failed, report.Right.Counters.Failed,
		s.Discrepancy))
	b.WriteString("\n")

	// Line 3: kind breakdown
	parts := []string{
		kindStyle(compare.Mismatch).Render(fmt.Sprintf("changed:%d", s.Mismatches)),
		kindStyle(compare.LeftOnly).Render(fmt.Sprintf("left:%d", s.LeftOnly)),
		kindStyle(compare.RightOnly).Render(fmt.Sprintf("right:%d", s.RightOnly)),
	}
	b.WriteString(strings.Join(parts, "  "))
	b.WriteString("\n")

	// Line 4: most frequent transitions
	if len(s.Transitions) > 0 {
		keys := compare.SortedTransitions(s.Transitions)
		if len(keys) > 3 {
			keys = keys[:3]
		}
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = fmt.Sprintf("%s ×%d", k, s.Transitions[k])
		}
		b.WriteString("Transitions: ")
		b.WriteString(strings.Join(items, "  "))
	}

	return styleHeader.Width(width).Render(b.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
