package core

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// headingRename records a heading whose text changed while its level stayed the same.
type headingRename struct {
	oldText   string
	newText   string
	oldAnchor string
	newAnchor string
}

// PlanSave computes the edits that keep in-document anchor links pointing at
// headings renamed by a save.
func PlanSave(ev SaveEvent) ([]Edit, error) {
	renames := renamedHeadings(ev.ContentBefore, ev.ContentAfter)
	if len(renames) == 0 {
		return nil, nil
	}

	path := NormalizePath(ev.Path)
	var edits []Edit
	lines, links := scanLinks(ev.ContentAfter)
	for i, occs := range links {
		for _, l := range occs {
			if l.kind != markdownLink || !isAnchorOnly(l.target) {
				continue
			}
			anchor := strings.TrimPrefix(l.target, "#")
			for _, r := range renames {
				if anchor != r.oldAnchor {
					continue
				}
				if r.newAnchor != r.oldAnchor {
					edits = append(edits, l.edit(path, lines[i], l.render("#"+r.newAnchor)))
				}
				break
			}
		}
	}
	return edits, nil
}

// renamedHeadings diffs before and after by line and pairs every removed block
// with the added block right after it. Paired lines that are both headings of
// the same level are reported as renames.
func renamedHeadings(before, after string) []headingRename {
	if before == after {
		return nil
	}
	diffs := lineDiff(before, after)

	var out []headingRename
	for i := 0; i+1 < len(diffs); i++ {
		var removed, added string
		switch {
		case diffs[i].Type == diffmatchpatch.DiffDelete && diffs[i+1].Type == diffmatchpatch.DiffInsert:
			removed, added = diffs[i].Text, diffs[i+1].Text
		case diffs[i].Type == diffmatchpatch.DiffInsert && diffs[i+1].Type == diffmatchpatch.DiffDelete:
			removed, added = diffs[i+1].Text, diffs[i].Text
		default:
			continue
		}
		oldLines := diffLines(removed)
		newLines := diffLines(added)
		for j := 0; j < len(oldLines) && j < len(newLines); j++ {
			if r, ok := matchHeadingRename(oldLines[j], newLines[j]); ok {
				out = append(out, r)
			}
		}
		i++
	}
	return out
}

func matchHeadingRename(oldLine, newLine string) (headingRename, bool) {
	om := headingRe.FindStringSubmatch(oldLine)
	nm := headingRe.FindStringSubmatch(newLine)
	if om == nil || nm == nil || om[1] != nm[1] {
		return headingRename{}, false
	}
	return headingRename{
		oldText:   om[2],
		newText:   nm[2],
		oldAnchor: HeadingToAnchor(om[2]),
		newAnchor: HeadingToAnchor(nm[2]),
	}, true
}

// lineDiff diffs two texts line by line. Every distinct line is encoded as a
// single rune so the diff never splits a line.
func lineDiff(before, after string) []diffmatchpatch.Diff {
	var table []string
	index := make(map[string]rune)
	encode := func(text string) []rune {
		var out []rune
		for text != "" {
			n := strings.IndexByte(text, '\n') + 1
			if n == 0 {
				n = len(text)
			}
			line := text[:n]
			text = text[n:]
			r, ok := index[line]
			if !ok {
				table = append(table, line)
				r = lineRune(len(table))
				index[line] = r
			}
			out = append(out, r)
		}
		return out
	}
	a, b := encode(before), encode(after)

	diffs := diffmatchpatch.New().DiffMainRunes(a, b, false)
	for i, d := range diffs {
		var sb strings.Builder
		for _, r := range d.Text {
			sb.WriteString(table[lineIndex(r)-1])
		}
		diffs[i].Text = sb.String()
	}
	return diffs
}

// lineRune and lineIndex map line numbers to runes outside the surrogate range.
func lineRune(n int) rune {
	if n >= 0xD800 {
		return rune(n + 0x800)
	}
	return rune(n)
}

func lineIndex(r rune) int {
	if r >= 0xE000 {
		return int(r) - 0x800
	}
	return int(r)
}

// diffLines splits a line-mode diff text into its lines.
func diffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
