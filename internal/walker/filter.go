package walker

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// excludedDirs are never descended into.
var excludedDirs = []string{
	".git",
	"node_modules",
	"vendor",
	"dist",
	"build",
	".next",
	".cache",
	".venv",
	".idea",
	".vscode",
}

func shouldExcludeDir(name string) bool {
	for _, excl := range excludedDirs {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude reports whether relPath matches one of patterns. An empty
// pattern list includes everything.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude reports whether relPath matches one of patterns.
func MatchesExclude(relPath string, patterns []string) bool {
	return matchesAny(relPath, patterns)
}

// matchesAny tries each pattern against the full slash path and against
// the base name, so "*.min.js" excludes minified files at any depth.
func matchesAny(relPath string, patterns []string) bool {
	base := path.Base(relPath)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}
