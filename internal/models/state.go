package models

// State is the outcome of evaluating one test on one host
type State string

const (
	StatePass            State = "pass"
	StateFail            State = "fail"
	StateError           State = "error"
	StateNotApplicable   State = "notapplicable"
	StateNeedsInspection State = "needs_inspection"
	StateNeedsAction     State = "needs_action"
	StateInformational   State = "informational"
)

// AllStates lists every known state in severity order
var AllStates = []State{
	StateFail,
	StateError,
	StateNeedsAction,
	StateNeedsInspection,
	StateInformational,
	StateNotApplicable,
	StatePass,
}

var stateNames = map[State]string{
	StatePass:            "Passed",
	StateFail:            "Failed",
	StateError:           "Error",
	StateNotApplicable:   "Not Applicable",
	StateNeedsInspection: "Needs Inspection",
	StateNeedsAction:     "Needs Action",
	StateInformational:   "Informational",
}

// Valid reports whether s is one of the known states
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Display returns the human readable name of the state
func (s State) Display() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return string(s)
}

// ShouldDisplaySolution reports whether remediation text is relevant
func (s State) ShouldDisplaySolution() bool {
	return s != StatePass && s != StateNotApplicable
}

// Severity orders states for sorting, higher is worse.
// Unknown states rank above everything so they surface first.
func (s State) Severity() int {
	for i, st := range AllStates {
		if st == s {
			return len(AllStates) - i
		}
	}
	return len(AllStates) + 1
}

// Category is the rollup counter a leaf contributes to besides test_count
type Category int

const (
	CategoryNone Category = iota
	CategoryFailed
	CategoryNeedsInspection
	CategoryNotApplicable
)

// Category maps the state to its rollup counter.
// pass, error, needs_action and informational only count towards test_count.
func (s State) Category() Category {
	switch s {
	case StateFail:
		return CategoryFailed
	case StateNeedsInspection:
		return CategoryNeedsInspection
	case StateNotApplicable:
		return CategoryNotApplicable
	default:
		return CategoryNone
	}
}
