package rules

import (
	"path"
	"strings"
)

// RequiredCriteria returns the criteria a framework rule must satisfy to
// qualify. Criteria naming an entry the rule excludes, or one of depFolders,
// are left out since a fresh checkout does not carry them.
func (r *Rule) RequiredCriteria(depFolders []string) []Criterion {
	excluded := r.ExcludedNames()
	for _, f := range depFolders {
		excluded[strings.ToLower(f)] = true
	}

	var out []Criterion
	for _, c := range r.Criteria() {
		if !namesExcluded(c.Names(), excluded) {
			out = append(out, c)
		}
	}
	return out
}

func namesExcluded(names []string, excluded map[string]bool) bool {
	for _, n := range names {
		n = strings.ToLower(strings.Trim(strings.TrimSpace(n), "/"))
		if excluded[n] || excluded[path.Base(n)] {
			return true
		}
	}
	return false
}

// Shadow reports a framework rule that qualifies on every project another
// rule qualifies on. Once Rule is in the history it is elected for By's
// projects before By is ever scored.
type Shadow struct {
	Rule string
	By   string
}

// Shadowed lists the framework rules whose required criteria are all implied
// by the required criteria of another framework rule.
func (c *Catalog) Shadowed() []Shadow {
	deps := c.DependencyFolders()
	var out []Shadow
	for _, a := range c.Frameworks {
		need := a.RequiredCriteria(deps)
		if len(need) == 0 {
			continue
		}
		for _, b := range c.Frameworks {
			if a == b {
				continue
			}
			if impliedBy(need, b.RequiredCriteria(deps)) {
				out = append(out, Shadow{Rule: a.Name, By: b.Name})
			}
		}
	}
	return out
}

// impliedBy reports whether satisfying every criterion of have satisfies
// every criterion of need.
func impliedBy(need, have []Criterion) bool {
	for _, n := range need {
		found := false
		for _, h := range have {
			if implies(h, n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func implies(h, n Criterion) bool {
	switch n := n.(type) {
	case *FileCriterion:
		h, ok := h.(*FileCriterion)
		if !ok || !subsetFold(h.Candidates, n.Candidates) {
			return false
		}
		if n.Pattern == "" {
			return true
		}
		return h.Pattern == n.Pattern && h.Match == n.Match
	case *FolderCriterion:
		h, ok := h.(*FolderCriterion)
		if !ok || !strings.EqualFold(strings.Trim(h.Name, "/"), strings.Trim(n.Name, "/")) {
			return false
		}
		return subsetFold(n.Files, h.Files)
	default:
		return false
	}
}

// subsetFold reports whether every element of sub is in set, ignoring case.
func subsetFold(sub, set []string) bool {
	for _, s := range sub {
		found := false
		for _, e := range set {
			if strings.EqualFold(s, e) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
