package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// Policy defines gates applied to stored results and comparisons.
type Policy struct {
	Version string `yaml:"version"`
	Rules   Rules  `yaml:"rules"`
}

// Rules contains all configurable policy rules.
type Rules struct {
	MaxFailed          *int     `yaml:"max_failed,omitempty"`
	MaxNeedsInspection *int     `yaml:"max_needs_inspection,omitempty"`
	MaxNotApplicable   *int     `yaml:"max_not_applicable,omitempty"`
	MaxRisk            string   `yaml:"max_risk,omitempty"`
	ForbidStates       []string `yaml:"forbid_states,omitempty"`

	// Comparison rules
	MaxDiscrepancies *int `yaml:"max_discrepancies,omitempty"`
	MaxMismatches    *int `yaml:"max_mismatches,omitempty"`
}

// Violation is a single policy failure.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result holds the outcome of a policy check.
type Result struct {
	Pass       bool        `json:"pass"`
	Violations []Violation `json:"violations"`
}

// FileNames are the policy file names FindPolicyFile looks for.
var FileNames = []string{".preupg-policy.yaml", ".preupg-policy.yml"}

// LoadFromFile reads a policy file. A missing file yields a nil policy.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}

	return &p, nil
}

// FindPolicyFile searches for a policy file in the current directory
// and parent directories up to the filesystem root.
func FindPolicyFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Validate rejects rules naming unknown risk levels or states.
func (p *Policy) Validate() error {
	if p.Rules.MaxRisk != "" && models.ParseRiskLevel(p.Rules.MaxRisk).Rank() == 0 {
		return fmt.Errorf("max_risk: unknown risk level %q", p.Rules.MaxRisk)
	}
	for _, s := range p.Rules.ForbidStates {
		if !models.State(s).Valid() {
			return fmt.Errorf("forbid_states: unknown state %q", s)
		}
	}
	for name, v := range map[string]*int{
		"max_failed":           p.Rules.MaxFailed,
		"max_needs_inspection": p.Rules.MaxNeedsInspection,
		"max_not_applicable":   p.Rules.MaxNotApplicable,
		"max_discrepancies":    p.Rules.MaxDiscrepancies,
		"max_mismatches":       p.Rules.MaxMismatches,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Evaluate checks an aggregated result against the result rules.
func (p *Policy) Evaluate(result *models.Result) *Result {
	if p == nil {
		return &Result{Pass: true}
	}

	var violations []Violation
	limit := func(rule, what string, max *int, count int) {
		if max != nil && count > *max {
			violations = append(violations, Violation{
				Rule:    rule,
				Message: fmt.Sprintf("%s %d exceeds limit %d", what, count, *max),
			})
		}
	}

	limit("max_failed", "failed tests", p.Rules.MaxFailed, result.Counters.Failed)
	limit("max_needs_inspection", "tests needing inspection", p.Rules.MaxNeedsInspection, result.Counters.NeedsInspection)
	limit("max_not_applicable", "not applicable tests", p.Rules.MaxNotApplicable, result.Counters.NotApplicable)

	// max_risk
	if p.Rules.MaxRisk != "" {
		allowed := models.ParseRiskLevel(p.Rules.MaxRisk)
		if highest := result.HighestRisk(); highest.Rank() > allowed.Rank() {
			violations = append(violations, Violation{
				Rule:    "max_risk",
				Message: fmt.Sprintf("highest risk %s exceeds limit %s", highest, allowed),
			})
		}
	}

	// forbid_states
	if len(p.Rules.ForbidStates) > 0 {
		counts := result.StateCounts()
		states := append([]string(nil), p.Rules.ForbidStates...)
		sort.Strings(states)
		for _, s := range states {
			if n := counts[models.State(s)]; n > 0 {
				violations = append(violations, Violation{
					Rule:    "forbid_states",
					Message: fmt.Sprintf("forbidden state %q has %d tests", s, n),
				})
			}
		}
	}

	return &Result{
		Pass:       len(violations) == 0,
		Violations: violations,
	}
}

// EvaluateComparison checks a comparison report against the comparison
// rules and the result rules applied to its right side.
func (p *Policy) EvaluateComparison(report *compare.Report) *Result {
	if p == nil {
		return &Result{Pass: true}
	}

	var violations []Violation

	if max := p.Rules.MaxDiscrepancies; max != nil && report.Summary.Discrepancy > *max {
		violations = append(violations, Violation{
			Rule:    "max_discrepancies",
			Message: fmt.Sprintf("discrepancies %d exceeds limit %d", report.Summary.Discrepancy, *max),
		})
	}
	if max := p.Rules.MaxMismatches; max != nil && report.Summary.Mismatches > *max {
		violations = append(violations, Violation{
			Rule:    "max_mismatches",
			Message: fmt.Sprintf("state mismatches %d exceeds limit %d", report.Summary.Mismatches, *max),
		})
	}

	return &Result{
		Pass:       len(violations) == 0,
		Violations: violations,
	}
}
