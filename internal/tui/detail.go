package tui

import (
	"fmt"
	"strings"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 6

// maxDetailLogs caps the log lines shown per side.
const maxDetailLogs = 2

// renderDetail produces the detail view for a selected discrepancy.
func renderDetail(d *compare.Discrepancy, width int) string {
	if d == nil {
		return styleDetailPanel.Width(width).Render("No discrepancy selected")
	}

	var b strings.Builder

	kind := kindStyle(d.Kind).Render(kindLabel(d.Kind))
	b.WriteString(fmt.Sprintf("%s  %s\n", kind, d.IDRef))
	if title := d.Title(); title != "" {
		b.WriteString(fmt.Sprintf("Title: %s\n", title))
	}

	b.WriteString(fmt.Sprintf("Left: %s  Right: %s\n", sideSummary(d.Left), sideSummary(d.Right)))

	// Logs and risks are shown for context only
	side := d.Right
	if side == nil {
		side = d.Left
	}
	if side != nil {
		for i, log := range side.Logs {
			if i == maxDetailLogs {
				b.WriteString(fmt.Sprintf("  ... %d more log lines\n", len(side.Logs)-maxDetailLogs))
				break
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", log.Level, log.Message))
		}
	}

	return styleDetailPanel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func sideSummary(t *models.TestResult) string {
	if t == nil {
		return "-"
	}
	s := stateStyle(t.State).Render(t.State.Display())
	if risk := t.HighestRisk(); risk != models.RiskNone {
		s += " " + riskStyle(risk).Render("risk:"+string(risk))
	}
	return s
}
