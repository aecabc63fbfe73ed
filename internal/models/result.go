package models

import (
	"time"
)

// NoParent is the parent id of a top-level node
const NoParent = -1

// Counters holds the rollup counters of a node or a whole result
type Counters struct {
	Tests           int `json:"test_count" cbor:"test_count"`
	Failed          int `json:"failed_test_count" cbor:"failed_test_count"`
	NeedsInspection int `json:"ni_test_count" cbor:"ni_test_count"`
	NotApplicable   int `json:"na_test_count" cbor:"na_test_count"`
}

// Add accumulates other into c
func (c *Counters) Add(other Counters) {
	c.Tests += other.Tests
	c.Failed += other.Failed
	c.NeedsInspection += other.NeedsInspection
	c.NotApplicable += other.NotApplicable
}

// Count records one leaf of the given state
func (c *Counters) Count(s State) {
	c.Tests++
	switch s.Category() {
	case CategoryFailed:
		c.Failed++
	case CategoryNeedsInspection:
		c.NeedsInspection++
	case CategoryNotApplicable:
		c.NotApplicable++
	}
}

// Passed returns the number of tests outside every rollup category
func (c Counters) Passed() int {
	return c.Tests - c.Failed - c.NeedsInspection - c.NotApplicable
}

// Address is a network address of the scanned host
type Address struct {
	Address string `json:"address" cbor:"address"`
}

// TestLog is one log line emitted by a test
type TestLog struct {
	Level   string     `json:"level" cbor:"level"`
	Message string     `json:"message" cbor:"message"`
	Date    *time.Time `json:"date,omitempty" cbor:"date,omitempty"`
}

// TestGroupResult is one node of a result tree. Nodes reference each other
// by id, which is their index in Result.Groups.
type TestGroupResult struct {
	ID       int       `json:"id" cbor:"id"`
	Group    TestGroup `json:"group" cbor:"group"`
	ResultID string    `json:"result_id" cbor:"result_id"`
	Parent   int       `json:"parent" cbor:"parent"`
	Root     int       `json:"root" cbor:"root"`
	Children []int     `json:"children,omitempty" cbor:"children,omitempty"`
	Counters Counters  `json:"counters" cbor:"counters"`
}

// IsRoot reports whether the node is a top-level node
func (g *TestGroupResult) IsRoot() bool {
	return g.Parent == NoParent
}

// TestResult is one leaf of a result tree
type TestResult struct {
	Test      Test      `json:"test" cbor:"test"`
	Group     int       `json:"group" cbor:"group"`
	RootGroup int       `json:"root_group" cbor:"root_group"`
	State     State     `json:"state" cbor:"state"`
	Date      time.Time `json:"date" cbor:"date"`
	Logs      []TestLog `json:"logs,omitempty" cbor:"logs,omitempty"`
	Risks     []Risk    `json:"risks,omitempty" cbor:"risks,omitempty"`
}

// IDRef returns the catalog identifier of the evaluated test
func (t *TestResult) IDRef() string {
	return t.Test.IDRef
}

// HighestRisk returns the highest risk level attached to the leaf
func (t *TestResult) HighestRisk() RiskLevel {
	level := RiskNone
	for _, r := range t.Risks {
		level = level.Higher(r.Level)
	}
	return level
}

// Result is the outcome of one scan of one host
type Result struct {
	ID        string    `json:"id" cbor:"id"`
	Hostname  string    `json:"hostname" cbor:"hostname"`
	Identity  string    `json:"identity,omitempty" cbor:"identity,omitempty"`
	Submitted time.Time `json:"submitted" cbor:"submitted"`
	Finished  time.Time `json:"finished" cbor:"finished"`
	Addresses []Address `json:"addresses,omitempty" cbor:"addresses,omitempty"`
	Counters  Counters  `json:"counters" cbor:"counters"`

	// Groups is indexed by node id. Tests is in natural leaf order.
	Groups []TestGroupResult `json:"groups" cbor:"groups"`
	Tests  []TestResult      `json:"tests" cbor:"tests"`

	// Quarantined lists id_refs excluded from counters due to unknown states
	Quarantined []string `json:"quarantined,omitempty" cbor:"quarantined,omitempty"`
	Aggregated  bool     `json:"aggregated" cbor:"aggregated"`
}

// Roots returns the ids of the top-level nodes in insertion order
func (r *Result) Roots() []int {
	var roots []int
	for i := range r.Groups {
		if r.Groups[i].Parent == NoParent {
			roots = append(roots, i)
		}
	}
	return roots
}

// Node returns the node with the given id, or nil when out of range
func (r *Result) Node(id int) *TestGroupResult {
	if id < 0 || id >= len(r.Groups) {
		return nil
	}
	return &r.Groups[id]
}

// TestsIn returns the indexes of leaves attached directly to node id
func (r *Result) TestsIn(id int) []int {
	var out []int
	for i := range r.Tests {
		if r.Tests[i].Group == id {
			out = append(out, i)
		}
	}
	return out
}

// Depth returns the number of parent links between node id and its root
func (r *Result) Depth(id int) int {
	depth := 0
	for n := r.Node(id); n != nil && n.Parent != NoParent && depth <= len(r.Groups); n = r.Node(n.Parent) {
		depth++
	}
	return depth
}

// HighestRisk returns the highest risk across all leaves
func (r *Result) HighestRisk() RiskLevel {
	level := RiskNone
	for i := range r.Tests {
		level = level.Higher(r.Tests[i].HighestRisk())
	}
	return level
}

// StateCounts returns the number of leaves per state
func (r *Result) StateCounts() map[State]int {
	counts := make(map[State]int)
	for i := range r.Tests {
		counts[r.Tests[i].State]++
	}
	return counts
}

// Clone returns a deep copy that shares nothing with r
func (r *Result) Clone() *Result {
	out := *r
	out.Addresses = append([]Address(nil), r.Addresses...)
	out.Quarantined = append([]string(nil), r.Quarantined...)

	out.Groups = make([]TestGroupResult, len(r.Groups))
	for i, g := range r.Groups {
		g.Children = append([]int(nil), g.Children...)
		out.Groups[i] = g
	}

	out.Tests = make([]TestResult, len(r.Tests))
	for i, t := range r.Tests {
		t.Logs = append([]TestLog(nil), t.Logs...)
		t.Risks = append([]Risk(nil), t.Risks...)
		out.Tests[i] = t
	}
	return &out
}
