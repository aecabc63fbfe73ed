package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
)

var tableColumns = []table.Column{
	{Title: "Kind", Width: 10},
	{Title: "Test", Width: 30},
	{Title: "Title", Width: 30},
	{Title: "Left", Width: 16},
	{Title: "Right", Width: 16},
}

// buildRows converts discrepancies to table rows.
func buildRows(ds []compare.Discrepancy) []table.Row {
	rows := make([]table.Row, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, table.Row{
			kindLabel(d.Kind),
			truncate(d.IDRef, tableColumns[1].Width),
			truncate(d.Title(), tableColumns[2].Width),
			stateLabel(d.Left),
			stateLabel(d.Right),
		})
	}
	return rows
}

func kindLabel(k compare.Kind) string {
	switch k {
	case compare.LeftOnly:
		return "LEFT"
	case compare.RightOnly:
		return "RIGHT"
	case compare.Mismatch:
		return "CHANGED"
	default:
		return string(k)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}

// newTable creates a bubbles table with standard columns and styling.
func newTable(rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorAccent).
		Bold(false)
	t.SetStyles(s)

	return t
}
