// Package exclusion resolves what a backup of a classified project leaves
// out: the elected rule's exclusions merged with the user's options.
package exclusion

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/synka777/shlerp-cmd/internal/rules"
)

// Options mirror the backup flags.
type Options struct {
	// NoGit drops the .git folder and the .gitignore file.
	NoGit bool
	// NoExcl keeps everything except dependency folders.
	NoExcl bool
	// KeepHidden keeps dot entries other than .git and .gitignore, which
	// are always kept unless NoGit is set.
	KeepHidden bool
}

// AlwaysExcludedFiles are dropped from every backup.
var AlwaysExcludedFiles = []string{".DS_Store"}

// Policy answers whether a path of the project is skipped.
type Policy struct {
	Rule       string
	Files      []string
	Folders    []string
	DepFolders []string
	Options    Options
}

// Resolve builds the policy for a project classified as rule.
func Resolve(rule *rules.Rule, opts Options) Policy {
	p := Policy{
		Rule:       rule.Name,
		Options:    opts,
		DepFolders: uniq(rule.Actions.Exclude.DepFolders),
	}

	if !opts.NoExcl {
		p.Files = uniq(append(append([]string{}, AlwaysExcludedFiles...), rule.Actions.Exclude.Files...))
		p.Folders = uniq(rule.Actions.Exclude.Folders)
	}
	if opts.NoGit {
		p.Folders = uniq(append(p.Folders, ".git"))
		p.Files = uniq(append(p.Files, ".gitignore"))
	}
	return p
}

// Skip reports whether the entry at rel, relative to the project root, is
// left out. A skipped directory takes its whole subtree with it.
func (p Policy) Skip(rel string, isDir bool) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}

	for _, dep := range p.DepFolders {
		if (isDir && MatchDir(rel, dep)) || InDir(rel, dep) {
			return true
		}
	}
	for _, folder := range p.Folders {
		if (isDir && MatchDir(rel, folder)) || InDir(rel, folder) {
			return true
		}
	}
	if !isDir {
		for _, file := range p.Files {
			if MatchFile(rel, file) {
				return true
			}
		}
	}

	if p.Options.NoExcl || p.Options.KeepHidden {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != ".git" && part != ".gitignore" {
			return true
		}
	}
	return false
}

// Walk calls fn for every entry under root the policy keeps, in lexical
// order. Skipped directories are not descended into and unreadable entries
// are passed over.
func (p Policy) Walk(ctx context.Context, fsys afero.Fs, root string, fn func(rel string, info os.FileInfo) error) error {
	return afero.Walk(fsys, root, func(abs string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if p.Skip(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(rel, info)
	})
}

// Entries lists every exclusion of the policy for display, folders with a
// trailing slash.
func (p Policy) Entries() []string {
	var out []string
	for _, d := range append(append([]string{}, p.DepFolders...), p.Folders...) {
		out = append(out, path.Clean(clean(d))+"/")
	}
	for _, f := range p.Files {
		out = append(out, clean(f))
	}
	return uniq(out)
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
