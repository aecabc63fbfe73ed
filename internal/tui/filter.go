package tui

import (
	"sort"
	"strings"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// filterState holds current active filters.
type filterState struct {
	Kind       compare.Kind
	SearchText string
}

// sortField enumerates orders the table can be sorted by.
type sortField int

const (
	sortByReport sortField = iota
	sortBySeverity
	sortByKind
	sortByTest
)

// sortFieldCount is the total number of sort orders.
const sortFieldCount = 4

var kindPriority = map[compare.Kind]int{
	compare.Mismatch: 0, compare.RightOnly: 1, compare.LeftOnly: 2,
}

var kindChoices = []compare.Kind{compare.Mismatch, compare.LeftOnly, compare.RightOnly}

// entry is a discrepancy with its position in the comparison output.
type entry struct {
	compare.Discrepancy
	order int
}

// applyFilters returns entries matching all active filters.
func applyFilters(entries []entry, f filterState) []entry {
	result := make([]entry, 0, len(entries))
	searchLower := strings.ToLower(f.SearchText)

	for _, e := range entries {
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if searchLower != "" && !matchesSearch(e.Discrepancy, searchLower) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func matchesSearch(d compare.Discrepancy, searchLower string) bool {
	return strings.Contains(strings.ToLower(d.IDRef), searchLower) ||
		strings.Contains(strings.ToLower(d.Title()), searchLower) ||
		strings.Contains(string(d.LeftState()), searchLower) ||
		strings.Contains(string(d.RightState()), searchLower)
}

// severity is the worse of the two states of a discrepancy.
func severity(d compare.Discrepancy) int {
	s := 0
	if d.Left != nil {
		s = d.Left.State.Severity()
	}
	if d.Right != nil && d.Right.State.Severity() > s {
		s = d.Right.State.Severity()
	}
	return s
}

// sortEntries sorts entries in place by the given field.
func sortEntries(entries []entry, field sortField) {
	sort.SliceStable(entries, func(i, j int) bool {
		switch field {
		case sortByReport:
			return entries[i].order < entries[j].order
		case sortBySeverity:
			return severity(entries[i].Discrepancy) > severity(entries[j].Discrepancy)
		case sortByKind:
			return kindPriority[entries[i].Kind] < kindPriority[entries[j].Kind]
		case sortByTest:
			return entries[i].IDRef < entries[j].IDRef
		default:
			return false
		}
	})
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortByReport:
		return "report order"
	case sortBySeverity:
		return "severity"
	case sortByKind:
		return "kind"
	case sortByTest:
		return "test"
	default:
		return "unknown"
	}
}

func stateLabel(t *models.TestResult) string {
	if t == nil {
		return "-"
	}
	return t.State.Display()
}
