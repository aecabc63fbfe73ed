package aggregator

import (
	"sort"
	"strings"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// RemediationPlanner lists test results that need action before an upgrade
type RemediationPlanner struct{}

// NewRemediationPlanner creates a new remediation planner
func NewRemediationPlanner() *RemediationPlanner {
	return &RemediationPlanner{}
}

// Plan returns one entry per leaf whose state calls for a solution, ordered
// by risk then state severity. Ties keep the natural leaf order.
func (p *RemediationPlanner) Plan(r *models.Result) []models.Remediation {
	var out []models.Remediation
	for i := range r.Tests {
		leaf := &r.Tests[i]
		if !leaf.State.ShouldDisplaySolution() {
			continue
		}

		group := ""
		if n := r.Node(leaf.Group); n != nil {
			group = n.Group.Title
		}

		out = append(out, models.Remediation{
			IDRef:    leaf.IDRef(),
			Title:    leaf.Test.Title,
			State:    leaf.State,
			Risk:     leaf.HighestRisk(),
			Group:    group,
			FixType:  leaf.Test.FixType,
			Solution: solutionText(&leaf.Test),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Risk.Rank(), out[j].Risk.Rank(); ri != rj {
			return ri > rj
		}
		return out[i].State.Severity() > out[j].State.Severity()
	})

	return out
}

// Top returns the first n remediations
func (p *RemediationPlanner) Top(items []models.Remediation, n int) []models.Remediation {
	if n >= len(items) {
		return items
	}
	return items[:n]
}

// GroupByRisk buckets remediations by risk level
func (p *RemediationPlanner) GroupByRisk(items []models.Remediation) map[models.RiskLevel][]models.Remediation {
	grouped := make(map[models.RiskLevel][]models.Remediation)
	for _, item := range items {
		grouped[item.Risk] = append(grouped[item.Risk], item)
	}
	return grouped
}

func solutionText(t *models.Test) string {
	if text := strings.TrimSpace(t.FixText); text != "" {
		return text
	}
	return strings.TrimSpace(t.Fix)
}
