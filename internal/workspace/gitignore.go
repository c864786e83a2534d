package workspace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// GitIgnore matches workspace-relative paths against the root .gitignore.
// The zero value and a nil *GitIgnore never ignore anything.
type GitIgnore struct {
	matcher gitignore.Matcher
}

// LoadGitIgnore reads <root>/.gitignore. A missing file yields a matcher that
// never ignores.
func LoadGitIgnore(root string) (*GitIgnore, error) {
	p := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GitIgnore{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return ParseGitIgnore(data), nil
}

// ParseGitIgnore builds a matcher from .gitignore content.
func ParseGitIgnore(data []byte) *GitIgnore {
	var patterns []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return &GitIgnore{}
	}
	return &GitIgnore{matcher: gitignore.NewMatcher(patterns)}
}

// Match reports whether the slash-separated relative path is ignored.
func (g *GitIgnore) Match(rel string, isDir bool) bool {
	if g == nil || g.matcher == nil {
		return false
	}
	segments := splitSegments(rel)
	if len(segments) == 0 {
		return false
	}
	return g.matcher.Match(segments, isDir)
}

func splitSegments(p string) []string {
	var out []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}
