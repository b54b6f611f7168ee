package exclusion

import (
	"path"
	"strings"
)

// clean normalizes an exclusion entry to a slash path without leading or
// trailing separators.
func clean(entry string) string {
	entry = strings.TrimSpace(strings.ReplaceAll(entry, "\\", "/"))
	return strings.Trim(entry, "/")
}

// MatchDir reports whether the directory at rel (slash separated, relative to
// the project root) is named by entry. Entries match at component boundaries:
// "vendor" matches "vendor" and "src/vendor" but not "vendorized".
func MatchDir(rel, entry string) bool {
	entry = clean(entry)
	if entry == "" {
		return false
	}
	if strings.ContainsAny(entry, "*?[") {
		ok, err := path.Match(entry, path.Base(rel))
		return err == nil && ok
	}
	return rel == entry || strings.HasSuffix(rel, "/"+entry)
}

// InDir reports whether rel lies inside a directory named by entry.
func InDir(rel, entry string) bool {
	dir := path.Dir(rel)
	for dir != "." && dir != "/" {
		if MatchDir(dir, entry) {
			return true
		}
		dir = path.Dir(dir)
	}
	return false
}

// MatchFile reports whether the file at rel is named by entry. Entries
// containing a separator match the relative path; others match the base name.
// Glob patterns ("*.class") are allowed.
func MatchFile(rel, entry string) bool {
	entry = clean(entry)
	if entry == "" {
		return false
	}
	target := path.Base(rel)
	if strings.Contains(entry, "/") {
		if rel == entry || strings.HasSuffix(rel, "/"+entry) {
			return true
		}
		target = rel
	}
	ok, err := path.Match(entry, target)
	return err == nil && ok
}
