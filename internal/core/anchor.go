package core

import (
	"regexp"
	"strings"
)

var (
	nonAnchorRunes  = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\- ]+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	trailingHyphens = regexp.MustCompile(`-+$`)
)

// HeadingToAnchor converts heading text into the fragment a link uses to reference it.
// Example: "Old  Text!" → "old-text"
func HeadingToAnchor(heading string) string {
	s := strings.ToLower(strings.TrimSpace(heading))
	s = nonAnchorRunes.ReplaceAllString(s, " ")
	s = whitespaceRuns.ReplaceAllString(s, "-")
	return trailingHyphens.ReplaceAllString(s, "")
}
