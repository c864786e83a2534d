package core

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var sectionRef = regexp.MustCompile(`^(.+\.md)(#[^\s/]+)$`)

// NormalizePath converts separators to forward slashes and cleans "." and ".." segments.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	clean := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimPrefix(clean, "./")
}

// SplitSection splits "file.md#heading" into ("file.md", "#heading").
// Targets without a Markdown section reference are returned unchanged.
func SplitSection(rawTarget string) (string, string) {
	m := sectionRef.FindStringSubmatch(rawTarget)
	if m == nil {
		return rawTarget, ""
	}
	return m[1], m[2]
}

// ResolveLinkTarget resolves rawTarget relative to the directory of containingFile.
// The section reference, if any, is returned separately.
func ResolveLinkTarget(containingFile, rawTarget string) (string, string) {
	target, section := SplitSection(rawTarget)
	return joinPath(dirname(containingFile), target), section
}

// RelativePath returns target relative to fromDir in slash form.
func RelativePath(fromDir, target string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(target))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func dirname(p string) string {
	return path.Dir(NormalizePath(p))
}

func joinPath(dir, target string) string {
	return NormalizePath(path.Join(dir, strings.ReplaceAll(target, `\`, "/")))
}

// isUnder reports whether p lies strictly inside dir.
func isUnder(p, dir string) bool {
	return strings.HasPrefix(p, dir+"/")
}

func isMarkdownPath(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}

// isAnchorOnly reports whether target only references a heading in the same document.
func isAnchorOnly(target string) bool {
	return strings.HasPrefix(target, "#")
}
