package rules

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Target is the view of a project directory a criterion is evaluated against.
// Paths are slash-separated and relative to the project root.
type Target interface {
	Exists(rel string) bool
	IsDir(rel string) bool
	ReadFile(rel string) ([]byte, error)

	// Files lists the regular files visible to the rule being scored.
	// Only the extension crawl populates it.
	Files() []string
}

// Criterion is one weighted detection check of a rule.
type Criterion interface {
	// Names returns the file, folder or extension names the criterion looks for.
	Names() []string

	// Points returns the configured weight.
	Points() int

	// Evaluate returns the score contribution for t. A missing or unreadable
	// entry contributes zero.
	Evaluate(t Target) int
}

// MatchMode selects how a file criterion's content pattern is applied.
type MatchMode string

const (
	MatchSubstring MatchMode = "substring"
	MatchRegex     MatchMode = "regex"
)

// FileCriterion is satisfied when any candidate file exists and, when a
// pattern is set, its content contains or matches that pattern.
type FileCriterion struct {
	Candidates []string  `yaml:"names"`
	Pattern    string    `yaml:"pattern"`
	Match      MatchMode `yaml:"match"`
	Weight     int       `yaml:"weight"`

	re *regexp.Regexp
}

func (c *FileCriterion) Names() []string { return c.Candidates }
func (c *FileCriterion) Points() int     { return c.Weight }

func (c *FileCriterion) compile() error {
	switch c.Match {
	case "":
		c.Match = MatchSubstring
	case MatchSubstring:
	case MatchRegex:
		if c.Pattern == "" {
			return fmt.Errorf("regex match requires a pattern")
		}
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
		}
		c.re = re
	default:
		return fmt.Errorf("unknown match mode %q", c.Match)
	}
	return nil
}

// Evaluate adds the weight once, for the first candidate that qualifies.
func (c *FileCriterion) Evaluate(t Target) int {
	for _, name := range c.Candidates {
		if !t.Exists(name) || t.IsDir(name) {
			continue
		}
		if c.Pattern == "" {
			return c.Weight
		}
		content, err := t.ReadFile(name)
		if err != nil {
			continue
		}
		if c.matches(content) {
			return c.Weight
		}
	}
	return 0
}

func (c *FileCriterion) matches(content []byte) bool {
	if c.Match == MatchRegex {
		if c.re == nil {
			// Criteria built in code skip compile; do it lazily.
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return false
			}
			c.re = re
		}
		return c.re.Match(content)
	}
	return bytes.Contains(content, []byte(c.Pattern))
}

// FolderCriterion is satisfied when the folder exists and holds every listed file.
type FolderCriterion struct {
	Name   string   `yaml:"name"`
	Files  []string `yaml:"files"`
	Weight int      `yaml:"weight"`
}

func (c *FolderCriterion) Names() []string { return []string{c.Name} }
func (c *FolderCriterion) Points() int     { return c.Weight }

func (c *FolderCriterion) Evaluate(t Target) int {
	if !t.IsDir(c.Name) {
		return 0
	}
	for _, f := range c.Files {
		if !t.Exists(path.Join(c.Name, f)) {
			return 0
		}
	}
	return c.Weight
}

// ExtensionCriterion scores every visible file whose name matches one of
// its patterns. Patterns are either extensions (".py", "py") compared
// case-insensitively, or globs ("*.test.js") matched against the base name.
type ExtensionCriterion struct {
	Patterns []string `yaml:"names"`
	Weight   int      `yaml:"weight"`
}

func (c *ExtensionCriterion) Names() []string { return c.Patterns }
func (c *ExtensionCriterion) Points() int     { return c.Weight }

// MatchFile reports whether a base file name matches any pattern.
func (c *ExtensionCriterion) MatchFile(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range c.Patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, "*?[") {
			if ok, err := filepath.Match(p, lower); err == nil && ok {
				return true
			}
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		if strings.HasSuffix(lower, p) && len(lower) > len(p) {
			return true
		}
	}
	return false
}

// Evaluate returns weight multiplied by the number of matching files.
func (c *ExtensionCriterion) Evaluate(t Target) int {
	total := 0
	for _, f := range t.Files() {
		if c.MatchFile(path.Base(f)) {
			total += c.Weight
		}
	}
	return total
}
