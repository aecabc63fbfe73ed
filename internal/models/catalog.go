package models

// Test is a static check definition from the content catalog
type Test struct {
	IDRef       string `json:"id_ref" cbor:"id_ref"`
	Title       string `json:"title" cbor:"title"`
	Description string `json:"description,omitempty" cbor:"description,omitempty"`
	Component   string `json:"component,omitempty" cbor:"component,omitempty"`
	Fix         string `json:"fix,omitempty" cbor:"fix,omitempty"`
	FixType     string `json:"fix_type,omitempty" cbor:"fix_type,omitempty"`
	FixText     string `json:"fixtext,omitempty" cbor:"fixtext,omitempty"`
	GroupID     string `json:"group_id,omitempty" cbor:"group_id,omitempty"`
}

// TestGroup is a static grouping of tests. Groups form a strict forest.
type TestGroup struct {
	XCCDFID  string `json:"xccdf_id" cbor:"xccdf_id"`
	Title    string `json:"title" cbor:"title"`
	ParentID string `json:"parent_id,omitempty" cbor:"parent_id,omitempty"`
}

// Catalog holds the tests and groups of one content version.
// It is filled once at load time and read-only afterwards.
type Catalog struct {
	tests      map[string]*Test
	testOrder  []string
	groups     map[string]*TestGroup
	groupOrder []string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		tests:  make(map[string]*Test),
		groups: make(map[string]*TestGroup),
	}
}

// AddTest registers a test. A repeated id_ref keeps the first definition and
// returns a DuplicateIdentifierError.
func (c *Catalog) AddTest(t Test) (*Test, error) {
	if existing, ok := c.tests[t.IDRef]; ok {
		return existing, &DuplicateIdentifierError{IDRef: t.IDRef, Count: 2}
	}
	stored := t
	c.tests[t.IDRef] = &stored
	c.testOrder = append(c.testOrder, t.IDRef)
	return &stored, nil
}

// AddGroup registers a group, keeping the first definition on repeats
func (c *Catalog) AddGroup(g TestGroup) (*TestGroup, error) {
	if existing, ok := c.groups[g.XCCDFID]; ok {
		return existing, &DuplicateIdentifierError{IDRef: g.XCCDFID, Count: 2}
	}
	stored := g
	c.groups[g.XCCDFID] = &stored
	c.groupOrder = append(c.groupOrder, g.XCCDFID)
	return &stored, nil
}

// Test looks up a test by id_ref
func (c *Catalog) Test(idRef string) (*Test, bool) {
	t, ok := c.tests[idRef]
	return t, ok
}

// Group looks up a group by xccdf id
func (c *Catalog) Group(xccdfID string) (*TestGroup, bool) {
	g, ok := c.groups[xccdfID]
	return g, ok
}

// Tests returns all tests in load order
func (c *Catalog) Tests() []*Test {
	out := make([]*Test, 0, len(c.testOrder))
	for _, id := range c.testOrder {
		out = append(out, c.tests[id])
	}
	return out
}

// Groups returns all groups in load order
func (c *Catalog) Groups() []*TestGroup {
	out := make([]*TestGroup, 0, len(c.groupOrder))
	for _, id := range c.groupOrder {
		out = append(out, c.groups[id])
	}
	return out
}

// Len returns the number of tests
func (c *Catalog) Len() int {
	return len(c.testOrder)
}
