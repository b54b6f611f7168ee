package rules

import (
	"strings"
)

// Category partitions the catalog. The values double as the document keys
// and as the history list names.
type Category string

const (
	// CategoryFrameworks holds high-specificity rules checked first.
	CategoryFrameworks Category = "frameworks"

	// CategoryVanilla holds generic, extension-based language rules.
	CategoryVanilla Category = "vanilla"
)

// Categories lists the partitions in evaluation order.
var Categories = []Category{CategoryFrameworks, CategoryVanilla}

// Valid reports whether c names a known partition.
func (c Category) Valid() bool {
	return c == CategoryFrameworks || c == CategoryVanilla
}

// Rule is one detectable project category together with the exclusion
// policy applied when that category is backed up.
type Rule struct {
	Name     string   `yaml:"name"`
	Category Category `yaml:"-"`
	Detect   Detect   `yaml:"detect"`
	Actions  Actions  `yaml:"actions"`
}

// Detect groups the criteria that score a rule against a directory.
type Detect struct {
	Files      []FileCriterion      `yaml:"files"`
	Folders    []FolderCriterion    `yaml:"folders"`
	Extensions []ExtensionCriterion `yaml:"extensions"`
}

// Actions holds what a backup does once the rule is elected.
type Actions struct {
	Exclude Exclusions `yaml:"exclude"`
}

// Exclusions lists names omitted from a backup.
type Exclusions struct {
	Files      []string `yaml:"files"`
	Folders    []string `yaml:"folders"`
	DepFolders []string `yaml:"dep_folders"`
}

// Criteria returns every criterion of the rule behind the common interface,
// files first, then folders, then extensions.
func (r *Rule) Criteria() []Criterion {
	out := make([]Criterion, 0, len(r.Detect.Files)+len(r.Detect.Folders)+len(r.Detect.Extensions))
	for i := range r.Detect.Files {
		out = append(out, &r.Detect.Files[i])
	}
	for i := range r.Detect.Folders {
		out = append(out, &r.Detect.Folders[i])
	}
	for i := range r.Detect.Extensions {
		out = append(out, &r.Detect.Extensions[i])
	}
	return out
}

// ExcludedNames returns the set of every name the rule excludes, lower-cased.
func (r *Rule) ExcludedNames() map[string]bool {
	set := make(map[string]bool)
	for _, group := range [][]string{r.Actions.Exclude.Files, r.Actions.Exclude.Folders, r.Actions.Exclude.DepFolders} {
		for _, name := range group {
			set[strings.ToLower(name)] = true
		}
	}
	return set
}

// Is reports whether the rule is called name, ignoring case.
func (r *Rule) Is(name string) bool {
	return strings.EqualFold(r.Name, strings.TrimSpace(name))
}

// Names returns the rule names in order.
func Names(rs []*Rule) []string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name)
	}
	return names
}
