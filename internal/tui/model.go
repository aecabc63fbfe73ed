package tui

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
)

// mode represents the current UI interaction mode.
type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilterKind
)

const defaultTableHeight = 15

// Model is the top-level Bubble Tea model for the comparison browser.
type Model struct {
	// Data (immutable after init)
	report *compare.Report
	all    []entry

	// UI state
	table       table.Model
	searchInput textinput.Model
	filtered    []entry
	filters     filterState
	sortBy      sortField
	mode        mode
	kindCursor  int
	width       int
	height      int
	statusMsg   string
	// clipboard is captured here for testing; the escape sequence goes to out
	clipboard string
	out       io.Writer
}

// New creates a new TUI model from a comparison report.
func New(report *compare.Report) Model {
	entries := make([]entry, len(report.Discrepancies))
	for i, d := range report.Discrepancies {
		entries[i] = entry{Discrepancy: d, order: i}
	}

	t := newTable(buildRows(discrepancies(entries)), defaultTableHeight)

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.CharLimit = 64

	return Model{
		report:      report,
		all:         entries,
		filtered:    entries,
		table:       t,
		searchInput: ti,
		sortBy:      sortByReport,
		mode:        modeNormal,
		width:       80,
		height:      24,
		out:         os.Stdout,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		tableH := msg.Height - headerHeight - detailHeight - 3
		if tableH < 3 {
			tableH = 3
		}
		m.table.SetHeight(tableH)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	default:
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeFilterKind:
		return m.handleFilterKindKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.Kind):
		m.mode = modeFilterKind
		m.kindCursor = 0
		return m, nil
	case key.Matches(msg, keys.Sort):
		m.sortBy = (m.sortBy + 1) % sortField(sortFieldCount)
		m.rebuildTable()
		m.statusMsg = fmt.Sprintf("Sort: %s", sortFieldName(m.sortBy))
		return m, nil
	case key.Matches(msg, keys.NextMismatch):
		m.jumpToMismatch(1)
		return m, nil
	case key.Matches(msg, keys.PrevMismatch):
		m.jumpToMismatch(-1)
		return m, nil
	case key.Matches(msg, keys.Copy):
		m.copySelected()
		return m, nil
	case key.Matches(msg, keys.Clear):
		m.filters = filterState{}
		m.statusMsg = ""
		m.rebuildTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filters.SearchText = m.searchInput.Value()
		m.mode = modeNormal
		m.searchInput.Blur()
		m.rebuildTable()
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleFilterKindKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.kindCursor > 0 {
			m.kindCursor--
		}
	case "down", "j":
		if m.kindCursor < len(kindChoices) {
			m.kindCursor++
		}
	case "enter":
		if m.kindCursor == 0 {
			m.filters.Kind = ""
		} else if m.kindCursor <= len(kindChoices) {
			m.filters.Kind = kindChoices[m.kindCursor-1]
		}
		m.mode = modeNormal
		m.rebuildTable()
		if m.filters.Kind != "" {
			m.statusMsg = fmt.Sprintf("Filter: %s", kindLabel(m.filters.Kind))
		} else {
			m.statusMsg = ""
		}
	case "esc":
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) rebuildTable() {
	filtered := applyFilters(m.all, m.filters)
	sortEntries(filtered, m.sortBy)
	m.filtered = filtered
	m.table.SetRows(buildRows(discrepancies(filtered)))
}

func (m *Model) selected() *compare.Discrepancy {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.filtered) {
		return nil
	}
	return &m.filtered[cursor].Discrepancy
}

// jumpToMismatch moves the cursor to the nearest mismatch in direction dir,
// wrapping around the visible rows
func (m *Model) jumpToMismatch(dir int) {
	n := len(m.filtered)
	cur := m.table.Cursor()
	for step := 1; step <= n; step++ {
		i := ((cur+dir*step)%n + n) % n
		if m.filtered[i].Kind == compare.Mismatch {
			m.table.SetCursor(i)
			m.statusMsg = ""
			return
		}
	}
	m.statusMsg = "No mismatches"
}

// copySelected writes the selected discrepancy to the clipboard via OSC 52.
func (m *Model) copySelected() {
	d := m.selected()
	if d == nil {
		m.statusMsg = "Nothing to copy"
		return
	}
	text := fmt.Sprintf("[%s] %s: %s -> %s", d.Kind, d.IDRef, stateLabel(d.Left), stateLabel(d.Right))
	if title := d.Title(); title != "" {
		text += " -- " + title
	}
	m.clipboard = text
	m.statusMsg = "Copied!"
	// OSC 52 clipboard escape: works in most modern terminals
	fmt.Fprintf(m.out, "\033]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(renderHeader(m.report, m.width))
	b.WriteString("\n")

	// Search bar overlay
	if m.mode == modeSearch {
		b.WriteString(styleSearchPrompt.Render("/ "))
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	// Kind filter overlay
	if m.mode == modeFilterKind {
		b.WriteString(m.renderKindFilter())
		b.WriteString("\n")
	}

	if len(m.all) == 0 {
		b.WriteString("No differences found.\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(renderDetail(m.selected(), m.width))
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderKindFilter() string {
	var b strings.Builder
	b.WriteString("Filter by kind:\n")

	options := []string{"All"}
	for _, k := range kindChoices {
		options = append(options, kindLabel(k))
	}
	for i, opt := range options {
		cursor := "  "
		if i == m.kindCursor {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", cursor, opt))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	left := keys.helpLine()
	right := fmt.Sprintf("%d/%d discrepancies", len(m.filtered), len(m.all))

	if m.statusMsg != "" {
		right = m.statusMsg + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return styleFooter.Render(left + strings.Repeat(" ", gap) + right)
}

func discrepancies(entries []entry) []compare.Discrepancy {
	out := make([]compare.Discrepancy, len(entries))
	for i, e := range entries {
		out[i] = e.Discrepancy
	}
	return out
}

// Run starts the Bubble Tea program. Called from the compare command.
func Run(report *compare.Report) error {
	m := New(report)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
