package models

import (
	"fmt"
	"time"
)

// Builder assembles a result tree. Node ids are assigned in insertion order.
// The first invalid call is remembered and reported by Build.
type Builder struct {
	result *Result
	err    error
}

// NewBuilder starts a tree for the given result header. Any groups, tests
// or counters already present on header are discarded.
func NewBuilder(header Result) *Builder {
	r := header
	r.Groups = nil
	r.Tests = nil
	r.Quarantined = nil
	r.Counters = Counters{}
	r.Aggregated = false
	return &Builder{result: &r}
}

// AddGroup attaches a node for group under parent (NoParent for top-level)
// and returns its id.
func (b *Builder) AddGroup(group TestGroup, parent int) int {
	id := len(b.result.Groups)
	node := TestGroupResult{
		ID:       id,
		Group:    group,
		ResultID: b.result.ID,
		Parent:   parent,
		Root:     id,
	}

	if parent != NoParent {
		p := b.result.Node(parent)
		if p == nil {
			b.fail(fmt.Errorf("group %s: parent node %d does not exist", group.XCCDFID, parent))
			node.Parent = NoParent
		} else {
			node.Root = p.Root
			if node.Group.ParentID == "" {
				node.Group.ParentID = p.Group.XCCDFID
			}
			p.Children = append(p.Children, id)
		}
	}

	b.result.Groups = append(b.result.Groups, node)
	return id
}

// AddTest attaches a leaf to node and returns its index in Result.Tests
func (b *Builder) AddTest(node int, test Test, state State, date time.Time) int {
	n := b.result.Node(node)
	if n == nil {
		b.fail(fmt.Errorf("test %s: node %d does not exist", test.IDRef, node))
		return -1
	}
	if test.GroupID == "" {
		test.GroupID = n.Group.XCCDFID
	}

	b.result.Tests = append(b.result.Tests, TestResult{
		Test:      test,
		Group:     node,
		RootGroup: n.Root,
		State:     state,
		Date:      date,
	})
	return len(b.result.Tests) - 1
}

// AddLog appends a log line to the leaf at index
func (b *Builder) AddLog(index int, log TestLog) {
	if index < 0 || index >= len(b.result.Tests) {
		b.fail(fmt.Errorf("log: test index %d does not exist", index))
		return
	}
	b.result.Tests[index].Logs = append(b.result.Tests[index].Logs, log)
}

// AddRisk appends a risk to the leaf at index
func (b *Builder) AddRisk(index int, risk Risk) {
	if index < 0 || index >= len(b.result.Tests) {
		b.fail(fmt.Errorf("risk: test index %d does not exist", index))
		return
	}
	b.result.Tests[index].Risks = append(b.result.Tests[index].Risks, risk)
}

// Build returns the assembled tree with zero counters
func (b *Builder) Build() (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.result, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
