package core

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

var (
	mdLink    = regexp.MustCompile(`\[([^\]]*)\]\(([^\)]+)\)`)
	imgOpen   = regexp.MustCompile(`(?i)<img\b`)
	imgSrc    = regexp.MustCompile(`(?i)\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	headingRe = regexp.MustCompile(`^(#+ )(.+)`)
)

type linkKind int

const (
	markdownLink linkKind = iota // [text](target): the whole link is replaced
	imageTag                     // <img src="target">: only the attribute value is replaced
)

// linkOccur is one link found on a line. start and end are byte offsets into
// the line delimiting the span an edit replaces.
type linkOccur struct {
	kind   linkKind
	line   int
	start  int
	end    int
	text   string
	target string
}

// render returns the replacement text for the span with newTarget substituted.
func (l linkOccur) render(newTarget string) string {
	if l.kind == imageTag {
		return newTarget
	}
	return "[" + l.text + "](" + newTarget + ")"
}

// edit builds the Edit replacing l's span within line.
func (l linkOccur) edit(filePath, line, newText string) Edit {
	return Edit{
		Path:    filePath,
		Range:   lineRange(l.line, utf16Len(line[:l.start]), utf16Len(line[:l.end])),
		NewText: newText,
	}
}

// splitLines splits content on "\n". A trailing "\r" stays part of its line.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// parseMarkdownLinks returns every [text](target) on line, scanning again after each match.
func parseMarkdownLinks(line string, lineNum int) []linkOccur {
	var out []linkOccur
	for _, m := range mdLink.FindAllStringSubmatchIndex(line, -1) {
		out = append(out, linkOccur{
			kind:   markdownLink,
			line:   lineNum,
			start:  m[0],
			end:    m[1],
			text:   line[m[2]:m[3]],
			target: line[m[4]:m[5]],
		})
	}
	return out
}

// imgScanner finds src attributes of <img> tags, which may span several lines.
type imgScanner struct {
	inTag bool
}

func (s *imgScanner) scan(line string, lineNum int) []linkOccur {
	var out []linkOccur
	pos := 0
	for pos <= len(line) {
		if !s.inTag {
			loc := imgOpen.FindStringIndex(line[pos:])
			if loc == nil {
				break
			}
			s.inTag = true
			pos += loc[1]
			continue
		}
		rest := line[pos:]
		tagEnd := strings.IndexByte(rest, '>')
		src := imgSrc.FindStringSubmatchIndex(rest)
		if src != nil && (tagEnd < 0 || src[0] < tagEnd) {
			vs, ve := src[2], src[3]
			if vs < 0 {
				vs, ve = src[4], src[5]
			}
			if ve > vs {
				out = append(out, linkOccur{
					kind:   imageTag,
					line:   lineNum,
					start:  pos + vs,
					end:    pos + ve,
					target: rest[vs:ve],
				})
			}
			pos += src[1]
			continue
		}
		if tagEnd < 0 {
			break
		}
		s.inTag = false
		pos += tagEnd + 1
	}
	return out
}

// scanLinks returns all links of content in document order, grouped by line.
func scanLinks(content string) ([]string, [][]linkOccur) {
	lines := splitLines(content)
	links := make([][]linkOccur, len(lines))
	var imgs imgScanner
	for i, line := range lines {
		found := parseMarkdownLinks(line, i)
		if tags := imgs.scan(line, i); len(tags) > 0 {
			found = mergeByStart(found, tags)
		}
		links[i] = found
	}
	return lines, links
}

// mergeByStart merges two start-ordered slices.
func mergeByStart(a, b []linkOccur) []linkOccur {
	out := make([]linkOccur, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].start <= b[j].start {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
