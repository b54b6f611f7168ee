package detect

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/synka777/shlerp-cmd/internal/exclusion"
	"github.com/synka777/shlerp-cmd/internal/rules"
)

// DefaultSkipDirs are version-control metadata folders never crawled.
var DefaultSkipDirs = []string{".git", ".hg", ".svn"}

// Crawler scores vanilla rules by counting matching files below the target.
type Crawler struct {
	// DepFolders are skipped for every rule.
	DepFolders []string
	// SkipDirs are skipped for every rule.
	SkipDirs []string
	// IncludeHidden crawls dot entries too.
	IncludeHidden bool
}

// walk lists every file below the probe root as slash separated
// relative paths. Unreadable entries are skipped.
func (c Crawler) walk(ctx context.Context, p *probe) ([]string, error) {
	var files []string
	err := p.walk(func(rel string, info os.FileInfo, err error) error {
		if err != nil {
			p.readErrors++
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if rel == "." {
			return nil
		}

		if c.skip(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

func (c Crawler) skip(rel string, isDir bool) bool {
	name := filepath.Base(rel)
	if !c.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	if !isDir {
		return false
	}
	for _, d := range c.SkipDirs {
		if exclusion.MatchDir(rel, d) {
			return true
		}
	}
	for _, d := range c.DepFolders {
		if exclusion.MatchDir(rel, d) {
			return true
		}
	}
	return false
}

// visible narrows files to what rule may count: nothing inside its excluded
// folders and none of its excluded files.
func visible(rule *rules.Rule, files []string) []string {
	ex := rule.Actions.Exclude
	if len(ex.Files)+len(ex.Folders)+len(ex.DepFolders) == 0 {
		return files
	}

	out := make([]string, 0, len(files))
next:
	for _, f := range files {
		for _, d := range ex.Folders {
			if exclusion.InDir(f, d) {
				continue next
			}
		}
		for _, d := range ex.DepFolders {
			if exclusion.InDir(f, d) {
				continue next
			}
		}
		for _, name := range ex.Files {
			if exclusion.MatchFile(f, name) {
				continue next
			}
		}
		out = append(out, f)
	}
	return out
}

// Score scores every candidate against the crawled files and returns those
// counting at least one file.
func (c Crawler) Score(candidates []*rules.Rule, files []string, p *probe) []Lead {
	var leads []Lead
	for _, rule := range candidates {
		t := crawlTarget{probe: p, files: visible(rule, files)}
		total := 0
		for _, crit := range rule.Criteria() {
			total += crit.Evaluate(t)
		}
		if total > 0 {
			leads = append(leads, Lead{Rule: rule, Total: total})
		}
	}
	return leads
}

// Threshold drops the winners of an election below minimum. The result is
// empty, a single rule, or a tie.
func Threshold(winners []Lead, minimum int) []Lead {
	if len(winners) == 0 || winners[0].Total < minimum {
		return nil
	}
	return winners
}
