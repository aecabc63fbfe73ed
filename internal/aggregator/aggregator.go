package aggregator

import (
	"fmt"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/validator"
)

// UnknownStateMode selects how leaves with unrecognized states are treated
type UnknownStateMode string

const (
	// RejectUnknown fails aggregation on the first unknown state
	RejectUnknown UnknownStateMode = "reject"
	// QuarantineUnknown excludes unknown leaves from every counter
	QuarantineUnknown UnknownStateMode = "quarantine"
)

// ParseUnknownStateMode validates a configured mode
func ParseUnknownStateMode(s string) (UnknownStateMode, error) {
	switch UnknownStateMode(s) {
	case RejectUnknown, QuarantineUnknown:
		return UnknownStateMode(s), nil
	case "":
		return RejectUnknown, nil
	default:
		return "", fmt.Errorf("invalid unknown state mode %q (must be reject or quarantine)", s)
	}
}

// Options configures an Aggregator
type Options struct {
	UnknownStates UnknownStateMode
}

// Aggregator computes rollup counters over result trees
type Aggregator struct {
	opts      Options
	validator *validator.Validator
}

// New creates a new aggregator
func New(opts Options) *Aggregator {
	if opts.UnknownStates == "" {
		opts.UnknownStates = RejectUnknown
	}
	return &Aggregator{
		opts:      opts,
		validator: validator.New(),
	}
}

// Aggregate returns a copy of r with counters set on every node and on the
// result itself. r is not modified. Broken trees yield a
// *models.StructuralIntegrityError and unknown states a
// *models.UnknownStateError unless quarantining is enabled.
func (a *Aggregator) Aggregate(r *models.Result) (*models.Result, error) {
	if err := a.validator.ValidateStructure(r); err != nil {
		return nil, err
	}

	unknown := a.validator.ValidateStates(r)
	if len(unknown) > 0 && a.opts.UnknownStates != QuarantineUnknown {
		return nil, unknown[0]
	}

	out := r.Clone()
	out.Quarantined = nil

	// Direct leaf tallies per node
	direct := make([]models.Counters, len(out.Groups))
	for i := range out.Tests {
		leaf := &out.Tests[i]
		if !leaf.State.Valid() {
			out.Quarantined = append(out.Quarantined, leaf.IDRef())
			continue
		}
		direct[leaf.Group].Count(leaf.State)
	}

	for _, id := range PostOrder(out) {
		node := &out.Groups[id]
		counters := direct[id]
		for _, child := range node.Children {
			counters.Add(out.Groups[child].Counters)
		}
		node.Counters = counters
	}

	out.Counters = models.Counters{}
	for _, root := range out.Roots() {
		out.Counters.Add(out.Groups[root].Counters)
	}
	out.Aggregated = true

	return out, nil
}

// PostOrder lists node ids with children before their parent. Roots and
// children are visited in insertion order. The tree must be structurally
// valid.
func PostOrder(r *models.Result) []int {
	type frame struct {
		id   int
		next int
	}

	order := make([]int, 0, len(r.Groups))
	var stack []frame
	for _, root := range r.Roots() {
		stack = append(stack, frame{id: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := r.Groups[top.id].Children
			if top.next < len(children) {
				child := children[top.next]
				top.next++
				stack = append(stack, frame{id: child})
				continue
			}
			order = append(order, top.id)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}
