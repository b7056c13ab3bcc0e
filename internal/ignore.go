package internal

import "github.com/bmatcuk/doublestar/v4"

// DefaultIgnoreGlobs are skipped during a tree sync by the CLI and by
// LinkToSource; a manifest root's own ignore globs are added to them, not
// substituted for them. They match the usual build/VCS/dependency directories
// that never contain source worth indexing.
var DefaultIgnoreGlobs = []string{
	"**/.git/**",
	"**/target/**",
	"**/node_modules/**",
	"**/build/**",
	"**/dist/**",
	"**/.idea/**",
	"**/.vscode/**",
	"**/vendor/**",
}

// IgnoreSet is a compiled set of glob patterns matched against paths
// relative to a root.
type IgnoreSet struct {
	globs []string
}

func NewIgnoreSet(globs []string) *IgnoreSet {
	if globs == nil {
		globs = nil
	}
	return &IgnoreSet{globs: globs}
}

// Matches reports whether relPath (slash-separated, relative to the
// tree's root) matches any configured glob.
func (s *IgnoreSet) Matches(relPath string) bool {
	if s == nil {
		return false
	}
	for _, g := range s.globs {
		if ok, err := doublestar.Match(g, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
