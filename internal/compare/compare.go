// Package compare computes the discrepancies between two result trees.
//
// Leaves are matched by their catalog id_ref, never by node ids, so results
// produced from different content versions or storage backends can be
// compared. Only the state takes part in the comparison; logs and risks are
// carried along for display.
package compare

import (
	"sort"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/validator"
)

// Kind classifies a discrepancy
type Kind string

const (
	LeftOnly  Kind = "left_only"
	RightOnly Kind = "right_only"
	Mismatch  Kind = "mismatch"
)

// Discrepancy is a one-sided presence or a state mismatch for one id_ref.
// Left is nil for RightOnly and Right is nil for LeftOnly.
type Discrepancy struct {
	Kind  Kind               `json:"kind"`
	IDRef string             `json:"id_ref"`
	Left  *models.TestResult `json:"left,omitempty"`
	Right *models.TestResult `json:"right,omitempty"`
}

// Title returns the test title from whichever side is present
func (d Discrepancy) Title() string {
	if d.Left != nil {
		return d.Left.Test.Title
	}
	if d.Right != nil {
		return d.Right.Test.Title
	}
	return ""
}

// LeftState returns the left state or "" when absent
func (d Discrepancy) LeftState() models.State {
	if d.Left == nil {
		return ""
	}
	return d.Left.State
}

// RightState returns the right state or "" when absent
func (d Discrepancy) RightState() models.State {
	if d.Right == nil {
		return ""
	}
	return d.Right.State
}

// Compare lists the discrepancies between left and right. Output holds the
// left pass (LeftOnly and Mismatch in left leaf order) followed by the right
// pass (RightOnly in right leaf order). Leaf order is the order the builder
// added leaves, which is rule order in the source document, so stored
// results must keep Result.Tests in that order. Both trees are validated
// first and a broken one yields a *models.StructuralIntegrityError.
//
// Duplicate id_refs do not fail the comparison: the first occurrence on the
// right is the match for every left leaf with that id_ref. Use Duplicates to
// report them.
func Compare(left, right *models.Result) ([]Discrepancy, error) {
	v := validator.New()
	if err := v.ValidateStructure(left); err != nil {
		return nil, err
	}
	if err := v.ValidateStructure(right); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.TestResult, len(right.Tests))
	for i := range right.Tests {
		leaf := &right.Tests[i]
		if _, ok := byID[leaf.IDRef()]; !ok {
			byID[leaf.IDRef()] = leaf
		}
	}

	var out []Discrepancy
	consumed := make(map[string]bool)

	for i := range left.Tests {
		l := &left.Tests[i]
		r, ok := byID[l.IDRef()]
		if !ok {
			out = append(out, Discrepancy{Kind: LeftOnly, IDRef: l.IDRef(), Left: l})
			continue
		}
		consumed[l.IDRef()] = true
		if l.State != r.State {
			out = append(out, Discrepancy{Kind: Mismatch, IDRef: l.IDRef(), Left: l, Right: r})
		}
	}

	for i := range right.Tests {
		r := &right.Tests[i]
		if consumed[r.IDRef()] {
			continue
		}
		out = append(out, Discrepancy{Kind: RightOnly, IDRef: r.IDRef(), Right: r})
	}

	return out, nil
}

// Duplicates returns one error per id_ref that occurs on more than one leaf,
// ordered by first occurrence
func Duplicates(r *models.Result) []*models.DuplicateIdentifierError {
	counts := make(map[string]int)
	var order []string
	for i := range r.Tests {
		id := r.Tests[i].IDRef()
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	var out []*models.DuplicateIdentifierError
	for _, id := range order {
		if counts[id] > 1 {
			out = append(out, &models.DuplicateIdentifierError{IDRef: id, Count: counts[id]})
		}
	}
	return out
}

// FilterKind returns the discrepancies of the given kind in their original order
func FilterKind(ds []Discrepancy, kind Kind) []Discrepancy {
	var out []Discrepancy
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// SortedTransitions returns transition keys ordered by count then name
func SortedTransitions(transitions map[string]int) []string {
	keys := make([]string, 0, len(transitions))
	for k := range transitions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if transitions[keys[i]] != transitions[keys[j]] {
			return transitions[keys[i]] > transitions[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
