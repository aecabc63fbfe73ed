package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// State colors
var (
	colorFail    = lipgloss.Color("#FF0000")
	colorWarn    = lipgloss.Color("#FF8800")
	colorNeutral = lipgloss.Color("#FFFF00")
	colorPass    = lipgloss.Color("#00FF00")
	colorMuted   = lipgloss.Color("#888888")
	colorAccent  = lipgloss.Color("#7B68EE")
	colorBorder  = lipgloss.Color("#444444")
)

// Panel styles
var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorBorder)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleSearchPrompt = lipgloss.NewStyle().
				Foreground(colorAccent).Bold(true)
)

// stateStyle returns the lipgloss style for a test state.
func stateStyle(state models.State) lipgloss.Style {
	switch state {
	case models.StateFail, models.StateError:
		return lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	case models.StateNeedsInspection, models.StateNeedsAction:
		return lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	case models.StateInformational, models.StateNotApplicable:
		return lipgloss.NewStyle().Foreground(colorNeutral)
	case models.StatePass:
		return lipgloss.NewStyle().Foreground(colorPass)
	default:
		return lipgloss.NewStyle()
	}
}

// kindStyle returns the lipgloss style for a discrepancy kind.
func kindStyle(kind compare.Kind) lipgloss.Style {
	switch kind {
	case compare.Mismatch:
		return lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	case compare.LeftOnly:
		return lipgloss.NewStyle().Foreground(colorMuted)
	case compare.RightOnly:
		return lipgloss.NewStyle().Foreground(colorAccent)
	default:
		return lipgloss.NewStyle()
	}
}

// riskStyle returns the lipgloss style for a risk level.
func riskStyle(level models.RiskLevel) lipgloss.Style {
	switch level {
	case models.RiskExtreme:
		return lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	case models.RiskHigh:
		return lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	case models.RiskMedium:
		return lipgloss.NewStyle().Foreground(colorNeutral)
	case models.RiskSlight:
		return lipgloss.NewStyle().Foreground(colorPass)
	default:
		return lipgloss.NewStyle()
	}
}
