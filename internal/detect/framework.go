package detect

import (
	"github.com/synka777/shlerp-cmd/internal/rules"
)

// FrameworkMatcher scores framework rules by the presence of their files and
// folders.
type FrameworkMatcher struct {
	// DepFolders are dependency folders of the whole catalog. Criteria that
	// name one of them are never required since a fresh checkout does not
	// carry them.
	DepFolders []string
}

// Required returns the total a rule must reach to qualify: the sum of the
// weights of every criterion not naming an excluded entry.
func (m FrameworkMatcher) Required(rule *rules.Rule) int {
	required := 0
	for _, c := range rule.RequiredCriteria(m.DepFolders) {
		required += c.Points()
	}
	return required
}

// Score evaluates every criterion of rule against t.
func (m FrameworkMatcher) Score(rule *rules.Rule, t rules.Target) Lead {
	total := 0
	for _, c := range rule.Criteria() {
		total += c.Evaluate(t)
	}
	return Lead{Rule: rule, Total: total, Required: m.Required(rule)}
}

// Qualifies reports whether a framework lead reached its threshold. A rule
// whose criteria are all excluded still has to score something.
func (l Lead) Qualifies() bool {
	return l.Total > 0 && l.Total >= l.Required
}

// Leads scores candidates and keeps the qualifying ones.
func (m FrameworkMatcher) Leads(candidates []*rules.Rule, t rules.Target) []Lead {
	var leads []Lead
	for _, rule := range candidates {
		if lead := m.Score(rule, t); lead.Qualifies() {
			leads = append(leads, lead)
		}
	}
	return leads
}
