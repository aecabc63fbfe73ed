package compare

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

func TestNewReport(t *testing.T) {
	left := flat(t, "left",
		leaf{"a", models.StateFail},
		leaf{"b", models.StateFail},
		leaf{"c", models.StateNeedsInspection},
		leaf{"d", models.StatePass},
		leaf{"d", models.StatePass},
	)
	right := flat(t, "right",
		leaf{"a", models.StatePass},
		leaf{"b", models.StatePass},
		leaf{"c", models.StateFail},
		leaf{"e", models.StateError},
	)
	left.Counters = models.Counters{Tests: 5, Failed: 2, NeedsInspection: 1}

	report, err := NewReport(left, right)
	require.NoError(t, err)

	assert.Equal(t, "left", report.Left.ID)
	assert.Equal(t, 2, report.Left.Counters.Failed)
	assert.Equal(t, "right", report.Right.Hostname)

	s := report.Summary
	assert.Equal(t, 5, s.LeftTotal)
	assert.Equal(t, 4, s.RightTotal)
	assert.Equal(t, 2, s.LeftOnly)
	assert.Equal(t, 1, s.RightOnly)
	assert.Equal(t, 3, s.Mismatches)
	assert.Equal(t, 6, s.Discrepancy)
	assert.Equal(t, map[string]int{"fail→pass": 2, "needs_inspection→fail": 1}, s.Transitions)
	assert.Equal(t, []string{"d"}, s.LeftDuplicates)
	assert.Empty(t, s.RightDuplicates)
	assert.False(t, report.Identical())

	assert.Equal(t, []string{"fail→pass", "needs_inspection→fail"}, SortedTransitions(s.Transitions))
}

func TestNewReportIdentical(t *testing.T) {
	r := flat(t, "same", leaf{"a", models.StatePass})

	report, err := NewReport(r, r)
	require.NoError(t, err)
	assert.True(t, report.Identical())
	assert.NotNil(t, report.Discrepancies)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"discrepancies":[]`)
}

func TestNewReportPropagatesStructuralError(t *testing.T) {
	r := flat(t, "x", leaf{"a", models.StatePass})
	broken := r.Clone()
	broken.Tests[0].Group = 4

	report, err := NewReport(r, broken)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, models.ErrStructuralIntegrity)
}
