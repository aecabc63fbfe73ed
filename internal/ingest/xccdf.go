package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/validator"
)

// XCCDFNamespace is the namespace of supported result documents
const XCCDFNamespace = "http://checklists.nist.gov/xccdf/1.2"

// DateFormat is the layout of TestResult and rule-result timestamps
const DateFormat = "2006-01-02T15:04:05"

// stateNotSelected marks rules that were not part of the scan
const stateNotSelected = "notselected"

type xccdfBenchmark struct {
	XMLName     xml.Name          `xml:"Benchmark"`
	Groups      []xccdfGroup      `xml:"Group"`
	TestResults []xccdfTestResult `xml:"TestResult"`
}

type xccdfGroup struct {
	ID     string       `xml:"id,attr"`
	Title  string       `xml:"title"`
	Groups []xccdfGroup `xml:"Group"`
	Rules  []xccdfRule  `xml:"Rule"`
}

type xccdfRule struct {
	ID          string      `xml:"id,attr"`
	Title       string      `xml:"title"`
	Description xccdfMarkup `xml:"description"`
	Fix         xccdfFix    `xml:"fix"`
	FixText     xccdfMarkup `xml:"fixtext"`
}

type xccdfFix struct {
	System string `xml:"system,attr"`
	Text   string `xml:",chardata"`
}

type xccdfMarkup struct {
	Inner string `xml:",innerxml"`
}

type xccdfTestResult struct {
	StartTime   string            `xml:"start-time,attr"`
	EndTime     string            `xml:"end-time,attr"`
	Target      string            `xml:"target"`
	Identity    string            `xml:"identity"`
	Addresses   []string          `xml:"target-address"`
	RuleResults []xccdfRuleResult `xml:"rule-result"`
}

type xccdfRuleResult struct {
	IDRef  string      `xml:"idref,attr"`
	Time   string      `xml:"time,attr"`
	Result string      `xml:"result"`
	Check  *xccdfCheck `xml:"check"`
}

type xccdfCheck struct {
	Imports []xccdfCheckImport `xml:"check-import"`
}

type xccdfCheckImport struct {
	Name string `xml:"import-name,attr"`
	Text string `xml:",chardata"`
}

// Report is one ingested result document
type Report struct {
	Source  string
	Catalog *models.Catalog
	Result  *models.Result
}

// Parser turns XCCDF 1.2 result documents into result trees
type Parser struct {
	logger logrus.FieldLogger
	now    func() time.Time
	newID  func() string
}

// NewParser creates a parser logging to logger
func NewParser(logger logrus.FieldLogger) *Parser {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Parser{
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ParseFile reads and parses the document at path
func (p *Parser) ParseFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(data, path)
}

// Parse builds the catalog and the (not yet aggregated) result tree of a
// document. source names the document in errors and logs.
func (p *Parser) Parse(data []byte, source string) (*Report, error) {
	var doc xccdfBenchmark
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &validator.ValidationError{
			Source: source,
			Errors: []string{fmt.Sprintf("Failed to parse XML: %v", err)},
		}
	}

	var problems []string
	if doc.XMLName.Space != XCCDFNamespace {
		problems = append(problems, fmt.Sprintf("unsupported namespace %q (want %s)", doc.XMLName.Space, XCCDFNamespace))
	}
	if len(doc.TestResults) == 0 {
		problems = append(problems, "missing TestResult element")
	}
	if len(problems) > 0 {
		return nil, &validator.ValidationError{Source: source, Errors: problems}
	}

	log := p.logger.WithField("source", source)
	tr := doc.TestResults[0]
	if len(doc.TestResults) > 1 {
		log.Warnf("document holds %d TestResult elements, using the first", len(doc.TestResults))
	}

	header := models.Result{
		ID:        p.newID(),
		Hostname:  strings.TrimSpace(tr.Target),
		Identity:  strings.TrimSpace(tr.Identity),
		Submitted: p.now(),
		Finished:  parseTime(tr.EndTime),
		Addresses: parseAddresses(tr.Addresses, log),
	}
	log.Debugf("Host: %s, Identity: %s, Started: %s, Finished: %s",
		header.Hostname, header.Identity, tr.StartTime, tr.EndTime)

	outcomes := make(map[string]*xccdfRuleResult, len(tr.RuleResults))
	for i := range tr.RuleResults {
		rr := &tr.RuleResults[i]
		state := strings.TrimSpace(rr.Result)
		if state == "error" || state == "notchecked" {
			log.Errorf("Test %s crashed", rr.IDRef)
		}
		if _, dup := outcomes[rr.IDRef]; dup {
			log.Warnf("duplicate rule-result for %s ignored", rr.IDRef)
			continue
		}
		outcomes[rr.IDRef] = rr
	}

	t := &treeWalker{
		catalog:  models.NewCatalog(),
		builder:  models.NewBuilder(header),
		outcomes: outcomes,
		used:     make(map[string]bool),
		log:      log,
	}
	for i := range doc.Groups {
		t.addNode(&doc.Groups[i], models.NoParent, "")
	}

	for _, rr := range tr.RuleResults {
		if !t.used[rr.IDRef] && strings.TrimSpace(rr.Result) != stateNotSelected {
			log.Errorf("Test %s not found", rr.IDRef)
		}
	}

	result, err := t.builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result tree: %w", err)
	}

	return &Report{Source: source, Catalog: t.catalog, Result: result}, nil
}

type treeWalker struct {
	catalog  *models.Catalog
	builder  *models.Builder
	outcomes map[string]*xccdfRuleResult
	used     map[string]bool
	log      logrus.FieldLogger
}

// addNode materializes g as a node. Child groups holding further groups
// become child nodes; other child groups wrap rules of this node.
func (t *treeWalker) addNode(g *xccdfGroup, parent int, parentID string) {
	group := models.TestGroup{XCCDFID: g.ID, Title: strings.TrimSpace(g.Title), ParentID: parentID}
	if _, err := t.catalog.AddGroup(group); err != nil {
		t.log.Warn(err.Error())
	}
	node := t.builder.AddGroup(group, parent)

	for i := range g.Rules {
		t.addRule(&g.Rules[i], node, g.ID)
	}
	for i := range g.Groups {
		child := &g.Groups[i]
		if len(child.Groups) > 0 {
			continue
		}
		for j := range child.Rules {
			t.addRule(&child.Rules[j], node, g.ID)
		}
	}
	for i := range g.Groups {
		if child := &g.Groups[i]; len(child.Groups) > 0 {
			t.addNode(child, node, g.ID)
		}
	}
}

func (t *treeWalker) addRule(rule *xccdfRule, node int, groupID string) {
	test := models.Test{
		IDRef:       rule.ID,
		Title:       strings.TrimSpace(rule.Title),
		Description: plainText(rule.Description.Inner),
		Fix:         strings.TrimSpace(rule.Fix.Text),
		FixType:     rule.Fix.System,
		FixText:     plainText(rule.FixText.Inner),
		GroupID:     groupID,
	}
	if _, err := t.catalog.AddTest(test); err != nil {
		t.log.Warn(err.Error())
	}

	rr, ok := t.outcomes[rule.ID]
	if !ok {
		return
	}
	t.used[rule.ID] = true

	state := strings.TrimSpace(rr.Result)
	if state == stateNotSelected || state == "" {
		return
	}

	leaf := t.builder.AddTest(node, test, models.State(state), parseTime(rr.Time))
	if rr.Check == nil {
		return
	}
	for _, imp := range rr.Check.Imports {
		if imp.Name != "stderr" {
			continue
		}
		logs, risks := ParseCheckOutput(imp.Text)
		for _, l := range logs {
			t.builder.AddLog(leaf, l)
		}
		for _, r := range risks {
			t.builder.AddRisk(leaf, r)
		}
		break
	}
}

// parseTime accepts the XCCDF local layout and RFC 3339; anything else is zero
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateFormat, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func parseAddresses(raw []string, log logrus.FieldLogger) []models.Address {
	var out []models.Address
	for _, a := range raw {
		a = strings.TrimSpace(a)
		addr, err := netip.ParseAddr(a)
		if err != nil {
			log.Debugf("skipping invalid target address %q", a)
			continue
		}
		out = append(out, models.Address{Address: addr.String()})
	}
	return out
}

// plainText flattens an XHTML fragment to its character data
func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	dec := xml.NewDecoder(bytes.NewBufferString("<root>" + fragment + "</root>"))
	dec.Strict = false

	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			if v.Name.Local == "br" || v.Name.Local == "p" || v.Name.Local == "li" {
				b.WriteString("\n")
			}
		}
	}

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
