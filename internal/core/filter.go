package core

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// dirProbe is appended to folder paths before matching so that patterns such as
// "**/node_modules/**" apply to the folder itself.
const dirProbe = "__probe__"

// ShouldInclude reports whether filePath takes part in planning under opts.
// A matching include pattern always wins; a non-empty include list excludes
// everything it does not match; otherwise any matching exclude pattern excludes.
func ShouldInclude(filePath string, opts Options) (bool, error) {
	rel := workspaceRelative(filePath, opts.WorkspacePath)

	matched, err := matchAny(opts.Include, rel)
	if err != nil {
		return false, fmt.Errorf("include: %w", err)
	}
	if matched {
		return true, nil
	}
	if len(opts.Include) > 0 {
		return false, nil
	}

	matched, err = matchAny(opts.Exclude, rel)
	if err != nil {
		return false, fmt.Errorf("exclude: %w", err)
	}
	return !matched, nil
}

// shouldIncludeDir tests a folder through a synthetic path inside it.
func shouldIncludeDir(dir string, opts Options) (bool, error) {
	return ShouldInclude(dir+"/"+dirProbe, opts)
}

// ValidatePatterns checks that every pattern is a well-formed glob.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %s", doublestar.ErrBadPattern, p)
		}
	}
	return nil
}

// FilterFiles returns the files of the snapshot that pass ShouldInclude, in input order.
func FilterFiles(files []File, opts Options) ([]File, error) {
	if len(opts.Include) == 0 && len(opts.Exclude) == 0 {
		return files, nil
	}
	out := make([]File, 0, len(files))
	for _, f := range files {
		ok, err := ShouldInclude(NormalizePath(f.Path), opts)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func matchAny(patterns []string, p string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, p)
		if err != nil {
			return false, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// workspaceRelative returns p relative to root. Paths outside root, or any path
// when root is empty, are returned normalized but otherwise unchanged.
func workspaceRelative(p, root string) string {
	p = NormalizePath(p)
	root = NormalizePath(root)
	if root == "" || root == "." {
		return p
	}
	if p == root {
		return "."
	}
	if isUnder(p, root) {
		return strings.TrimPrefix(p, root+"/")
	}
	if root == "/" && strings.HasPrefix(p, "/") {
		return strings.TrimPrefix(p, "/")
	}
	rel, err := RelativePath(root, p)
	if err != nil {
		return p
	}
	return rel
}
