package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// ErrConfigurationMissing is returned when the rule catalog cannot be located.
// Classification cannot proceed without it.
var ErrConfigurationMissing = errors.New("rule catalog not found")

// ErrInvalidCatalog is returned when the catalog document is malformed.
var ErrInvalidCatalog = errors.New("invalid rule catalog")

// SupportedSchema is the major catalog schema this build understands.
const SupportedSchema = "v1"

//go:embed default_rules.yaml
var defaultRules []byte

// Catalog is the static rule set, split into its two partitions.
type Catalog struct {
	Schema     string  `yaml:"schema"`
	Frameworks []*Rule `yaml:"frameworks"`
	Vanilla    []*Rule `yaml:"vanilla"`
}

// LoadCatalog reads a catalog from path. An empty path selects the catalog
// embedded in the binary. YAML and JSON documents are both accepted.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfigurationMissing, path, err)
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultRules)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: parsing document: %v", ErrInvalidCatalog, err)
	}
	if err := cat.init(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// New builds a catalog from rules declared in code.
func New(frameworks, vanilla []*Rule) (*Catalog, error) {
	cat := &Catalog{Schema: SupportedSchema, Frameworks: frameworks, Vanilla: vanilla}
	if err := cat.init(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) init() error {
	if c.Schema != "" {
		if !semver.IsValid(c.Schema) {
			return fmt.Errorf("%w: schema %q is not a semantic version", ErrInvalidCatalog, c.Schema)
		}
		if semver.Major(c.Schema) != SupportedSchema {
			return fmt.Errorf("%w: schema %s is not supported (want %s.x)", ErrInvalidCatalog, c.Schema, SupportedSchema)
		}
	}
	if len(c.Frameworks) == 0 && len(c.Vanilla) == 0 {
		return fmt.Errorf("%w: no rules defined", ErrInvalidCatalog)
	}

	seen := make(map[string]Category)
	for _, cat := range Categories {
		for i, r := range c.Rules(cat) {
			if r == nil {
				return fmt.Errorf("%w: %s[%d] is empty", ErrInvalidCatalog, cat, i)
			}
			r.Category = cat
			if err := r.validate(); err != nil {
				return fmt.Errorf("%w: %s rule %q: %v", ErrInvalidCatalog, cat, r.Name, err)
			}
			key := strings.ToLower(r.Name)
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("%w: rule %q declared twice (%s and %s)", ErrInvalidCatalog, r.Name, prev, cat)
			}
			seen[key] = cat
		}
	}
	return nil
}

func (r *Rule) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("missing name")
	}
	if r.Category == CategoryFrameworks && len(r.Detect.Extensions) > 0 {
		return fmt.Errorf("extension criteria are only allowed on vanilla rules")
	}
	if len(r.Criteria()) == 0 {
		return fmt.Errorf("no detection criteria")
	}
	for i := range r.Detect.Files {
		fc := &r.Detect.Files[i]
		if len(fc.Candidates) == 0 {
			return fmt.Errorf("file criterion %d has no names", i)
		}
		if err := fc.compile(); err != nil {
			return fmt.Errorf("file criterion %d: %v", i, err)
		}
	}
	for i, fc := range r.Detect.Folders {
		if strings.TrimSpace(fc.Name) == "" {
			return fmt.Errorf("folder criterion %d has no name", i)
		}
	}
	for i, ec := range r.Detect.Extensions {
		if len(ec.Patterns) == 0 {
			return fmt.Errorf("extension criterion %d has no names", i)
		}
	}
	for _, c := range r.Criteria() {
		if c.Points() < 0 {
			return fmt.Errorf("negative weight %d", c.Points())
		}
	}
	return nil
}

// Rules returns the rules of one partition in declaration order.
func (c *Catalog) Rules(cat Category) []*Rule {
	switch cat {
	case CategoryFrameworks:
		return c.Frameworks
	case CategoryVanilla:
		return c.Vanilla
	default:
		return nil
	}
}

// All returns framework rules followed by vanilla rules.
func (c *Catalog) All() []*Rule {
	out := make([]*Rule, 0, len(c.Frameworks)+len(c.Vanilla))
	out = append(out, c.Frameworks...)
	return append(out, c.Vanilla...)
}

// Find looks a rule up by name, ignoring case.
func (c *Catalog) Find(name string) (*Rule, bool) {
	for _, r := range c.All() {
		if r.Is(name) {
			return r, true
		}
	}
	return nil, false
}

// DependencyFolders returns the sorted union of every rule's dependency folders.
func (c *Catalog) DependencyFolders() []string {
	set := make(map[string]bool)
	for _, r := range c.All() {
		for _, f := range r.Actions.Exclude.DepFolders {
			if f = strings.TrimSpace(f); f != "" {
				set[f] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
