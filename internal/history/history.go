// Package history keeps the per-category lists of recently elected rules.
//
// The lists bias classification toward project types seen recently: rules
// named in history are tried first, and only when they fail is the rest of the
// catalog considered. Index 0 is always the most recent election.
package history

import (
	"strings"

	"github.com/synka777/shlerp-cmd/internal/rules"
)

// History holds one ordered list of rule names per category.
type History struct {
	Frameworks []string `json:"frameworks"`
	Vanilla    []string `json:"vanilla"`
}

// Limits bounds the length of each list.
type Limits struct {
	Frameworks int `yaml:"frameworks"`
	Vanilla    int `yaml:"vanilla"`
}

// For returns the limit for a category, never less than one.
func (l Limits) For(cat rules.Category) int {
	n := l.Vanilla
	if cat == rules.CategoryFrameworks {
		n = l.Frameworks
	}
	if n < 1 {
		return 1
	}
	return n
}

// Empty returns a history with both lists initialised.
func Empty() History {
	return History{Frameworks: []string{}, Vanilla: []string{}}
}

// List returns the names recorded for a category.
func (h History) List(cat rules.Category) []string {
	if cat == rules.CategoryFrameworks {
		return h.Frameworks
	}
	return h.Vanilla
}

func (h *History) set(cat rules.Category, names []string) {
	if cat == rules.CategoryFrameworks {
		h.Frameworks = names
		return
	}
	h.Vanilla = names
}

// Clone returns a deep copy.
func (h History) Clone() History {
	return History{
		Frameworks: append([]string{}, h.Frameworks...),
		Vanilla:    append([]string{}, h.Vanilla...),
	}
}

// Contains reports whether name is recorded for cat, ignoring case.
func (h History) Contains(cat rules.Category, name string) bool {
	return indexOf(h.List(cat), name) >= 0
}

// Prune returns the rules of rs that are not recorded for cat, in their
// original order.
func (h History) Prune(cat rules.Category, rs []*rules.Rule) []*rules.Rule {
	out := make([]*rules.Rule, 0, len(rs))
	for _, r := range rs {
		if !h.Contains(cat, r.Name) {
			out = append(out, r)
		}
	}
	return out
}

// FilterToRecent returns the rules of rs that are recorded for cat, in their
// original order.
func (h History) FilterToRecent(cat rules.Category, rs []*rules.Rule) []*rules.Rule {
	out := make([]*rules.Rule, 0, len(h.List(cat)))
	for _, r := range rs {
		if h.Contains(cat, r.Name) {
			out = append(out, r)
		}
	}
	return out
}

// Record moves name to the front of the category list, inserting it when
// absent and evicting the oldest entries beyond limit.
func (h *History) Record(cat rules.Category, name string, limit int) {
	if limit < 1 {
		limit = 1
	}
	list := normalize(h.List(cat))
	if i := indexOf(list, name); i >= 0 {
		name = list[i]
		list = append(list[:i], list[i+1:]...)
	}
	list = append([]string{name}, list...)
	if len(list) > limit {
		list = list[:limit]
	}
	h.set(cat, list)
}

// EnforceLimits drops duplicates and trims lists that exceed their limit,
// which happens when a limit is lowered between runs.
func (h *History) EnforceLimits(l Limits) {
	for _, cat := range rules.Categories {
		list := normalize(h.List(cat))
		if n := l.For(cat); len(list) > n {
			list = list[:n]
		}
		h.set(cat, list)
	}
}

// normalize returns a fresh list without blanks or case-insensitive duplicates,
// keeping the first (most recent) occurrence.
func normalize(list []string) []string {
	out := make([]string, 0, len(list))
	for _, name := range list {
		name = strings.TrimSpace(name)
		if name == "" || indexOf(out, name) >= 0 {
			continue
		}
		out = append(out, name)
	}
	return out
}

func indexOf(list []string, name string) int {
	name = strings.TrimSpace(name)
	for i, n := range list {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}
