package detect

import (
	"sort"

	"github.com/synka777/shlerp-cmd/internal/rules"
)

// Lead is a rule scored against the current target directory. Leads live
// for a single classification; the rule itself is never mutated.
type Lead struct {
	Rule  *rules.Rule
	Total int

	// Required is the framework threshold: the total a framework rule must
	// reach to qualify. Zero for vanilla leads.
	Required int
}

// Name returns the rule name.
func (l Lead) Name() string { return l.Rule.Name }

// Elect returns every lead tied for the highest total, in their input order.
// It returns nil for an empty input; more than one result is a tie.
func Elect(leads []Lead) []Lead {
	if len(leads) == 0 {
		return nil
	}
	sorted := append([]Lead(nil), leads...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})

	top := sorted[0].Total
	var winners []Lead
	for _, l := range sorted {
		if l.Total != top {
			break
		}
		winners = append(winners, l)
	}
	return winners
}

func leadNames(leads []Lead) []string {
	names := make([]string, 0, len(leads))
	for _, l := range leads {
		names = append(names, l.Name())
	}
	return names
}
