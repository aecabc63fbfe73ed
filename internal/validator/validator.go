package validator

import (
	"fmt"
	"strings"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// ValidationError represents a report that could not be turned into a result
type ValidationError struct {
	Source string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid report %s:\n  - %s", e.Source, strings.Join(e.Errors, "\n  - "))
}

const unresolved = -2

// Validator checks result trees before they are aggregated or compared
type Validator struct{}

// New creates a new validator
func New() *Validator {
	return &Validator{}
}

// ValidateStructure verifies node ids, parent/child links, root references
// and leaf attachments. The first violation is returned as a
// *models.StructuralIntegrityError.
func (v *Validator) ValidateStructure(r *models.Result) error {
	if r == nil {
		return &models.StructuralIntegrityError{NodeID: -1, Reason: "result is nil"}
	}

	broken := func(node int, format string, args ...interface{}) error {
		return &models.StructuralIntegrityError{
			ResultID: r.ID,
			NodeID:   node,
			Reason:   fmt.Sprintf(format, args...),
		}
	}

	n := len(r.Groups)
	for i := range r.Groups {
		g := &r.Groups[i]
		if g.ID != i {
			return broken(i, "node id %d does not match its position", g.ID)
		}
		if g.ResultID != r.ID {
			return broken(i, "node belongs to result %q", g.ResultID)
		}
		if g.Parent != models.NoParent && (g.Parent < 0 || g.Parent >= n) {
			return broken(i, "parent %d does not exist", g.Parent)
		}
		if g.Parent == i {
			return broken(i, "node is its own parent")
		}
	}

	if err := v.checkChildren(r, broken); err != nil {
		return err
	}

	roots, err := resolveRoots(r, broken)
	if err != nil {
		return err
	}
	for i := range r.Groups {
		if r.Groups[i].Root != roots[i] {
			return broken(i, "root is %d but parent chain ends at %d", r.Groups[i].Root, roots[i])
		}
	}

	for i := range r.Tests {
		t := &r.Tests[i]
		if t.Group < 0 || t.Group >= n {
			return broken(-1, "test %s attached to missing node %d", t.IDRef(), t.Group)
		}
		if t.RootGroup != roots[t.Group] {
			return broken(t.Group, "test %s has root group %d, expected %d", t.IDRef(), t.RootGroup, roots[t.Group])
		}
	}

	return nil
}

// checkChildren verifies that child lists and parent links describe the same edges
func (v *Validator) checkChildren(r *models.Result, broken func(int, string, ...interface{}) error) error {
	seen := make([]bool, len(r.Groups))
	for i := range r.Groups {
		for _, c := range r.Groups[i].Children {
			if c < 0 || c >= len(r.Groups) {
				return broken(i, "child %d does not exist", c)
			}
			if r.Groups[c].Parent != i {
				return broken(c, "listed as child of %d but parent is %d", i, r.Groups[c].Parent)
			}
			if seen[c] {
				return broken(c, "listed as a child more than once")
			}
			seen[c] = true
		}
	}
	for i := range r.Groups {
		if r.Groups[i].Parent != models.NoParent && !seen[i] {
			return broken(i, "missing from the children of parent %d", r.Groups[i].Parent)
		}
	}
	return nil
}

// resolveRoots follows parent links once per node, memoizing the top of each
// chain. A walk that revisits a node on the same chain is a cycle.
func resolveRoots(r *models.Result, broken func(int, string, ...interface{}) error) ([]int, error) {
	roots := make([]int, len(r.Groups))
	for i := range roots {
		roots[i] = unresolved
	}
	onPath := make([]bool, len(r.Groups))

	for start := range r.Groups {
		if roots[start] != unresolved {
			continue
		}
		var path []int
		cur := start
		for roots[cur] == unresolved && r.Groups[cur].Parent != models.NoParent {
			if onPath[cur] {
				return nil, broken(cur, "parent chain forms a cycle")
			}
			onPath[cur] = true
			path = append(path, cur)
			cur = r.Groups[cur].Parent
		}
		top := roots[cur]
		if top == unresolved {
			if onPath[cur] {
				return nil, broken(cur, "parent chain forms a cycle")
			}
			top = cur
			roots[cur] = cur
		}
		for _, p := range path {
			roots[p] = top
			onPath[p] = false
		}
	}
	return roots, nil
}

// ValidateStates returns one error per leaf whose state is not recognized
func (v *Validator) ValidateStates(r *models.Result) []*models.UnknownStateError {
	var errs []*models.UnknownStateError
	for i := range r.Tests {
		if !r.Tests[i].State.Valid() {
			errs = append(errs, &models.UnknownStateError{
				IDRef: r.Tests[i].IDRef(),
				State: r.Tests[i].State,
			})
		}
	}
	return errs
}

// ValidateResult runs the structural check followed by the state check
func (v *Validator) ValidateResult(r *models.Result) error {
	if err := v.ValidateStructure(r); err != nil {
		return err
	}
	if errs := v.ValidateStates(r); len(errs) > 0 {
		return errs[0]
	}
	return nil
}
