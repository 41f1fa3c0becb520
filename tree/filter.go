package tree

import (
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Filter hides paths matching gitignore-style patterns.
type Filter struct {
	matcher gitignore.IgnoreMatcher
}

// NewFilter returns nil when there are no patterns.
func NewFilter(patterns []string) *Filter {
	var lines []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return &Filter{
		matcher: gitignore.NewGitIgnoreFromReader("", strings.NewReader(strings.Join(lines, "\n"))),
	}
}

func (f *Filter) Hidden(path string, isDir bool) bool {
	if f == nil {
		return false
	}
	return f.matcher.Match(path, isDir)
}
