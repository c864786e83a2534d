package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/ryotapoi/mdlinks/internal/core"
)

var (
	// ErrMultiLineEdit is returned for edits whose range spans lines.
	ErrMultiLineEdit = errors.New("multi-line edit")
	// ErrBadRange is returned for edits outside the current content or overlapping another edit.
	ErrBadRange = errors.New("edit range out of bounds")
)

// ApplyResult describes a successful Apply.
type ApplyResult struct {
	Files   []string // written files, in first-edit order
	Applied int
}

// backup holds original file content for rollback on failure.
type backup struct {
	path    string
	content []byte
	perm    os.FileMode
}

// Apply writes edits to disk. All files are read and every edit validated
// before the first write; if a write fails, files already written are
// restored (best-effort).
func Apply(ctx context.Context, edits []core.Edit) (*ApplyResult, error) {
	groups, order := groupByPath(edits)
	for _, e := range edits {
		if e.Range.Start.Line != e.Range.End.Line {
			return nil, fmt.Errorf("%s:%d: %w", e.Path, e.Range.Start.Line+1, ErrMultiLineEdit)
		}
	}

	// Phase 1: read originals and compute new content before any writes.
	originals := make(map[string]backup, len(order))
	updated := make(map[string][]byte, len(order))
	for _, p := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full := filepath.FromSlash(p)
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		next, err := applyToContent(string(content), groups[p])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		originals[p] = backup{path: full, content: content, perm: info.Mode().Perm()}
		updated[p] = []byte(next)
	}

	// Phase 2: write.
	var written []backup
	for _, p := range order {
		b := originals[p]
		if err := writeFilePreservePerm(b.path, updated[p], b.perm); err != nil {
			restoreBackups(written)
			return nil, err
		}
		written = append(written, b)
	}
	return &ApplyResult{Files: order, Applied: len(edits)}, nil
}

func groupByPath(edits []core.Edit) (map[string][]core.Edit, []string) {
	groups := make(map[string][]core.Edit)
	var order []string
	for _, e := range edits {
		if _, ok := groups[e.Path]; !ok {
			order = append(order, e.Path)
		}
		groups[e.Path] = append(groups[e.Path], e)
	}
	return groups, order
}

// ApplyToContent applies single-line edits to content and returns the result.
func ApplyToContent(content string, edits []core.Edit) (string, error) {
	for _, e := range edits {
		if e.Range.Start.Line != e.Range.End.Line {
			return "", ErrMultiLineEdit
		}
	}
	return applyToContent(content, edits)
}

// applyToContent applies edits line by line. Edits on the same line are
// applied left to right; a per-line offset tracks how much earlier
// replacements shifted later columns.
func applyToContent(content string, edits []core.Edit) (string, error) {
	lines := strings.Split(content, "\n")
	byLine := make(map[int][]core.Edit)
	for _, e := range edits {
		byLine[e.Range.Start.Line] = append(byLine[e.Range.Start.Line], e)
	}
	for lineNum, les := range byLine {
		if lineNum < 0 || lineNum >= len(lines) {
			return "", fmt.Errorf("line %d: %w", lineNum+1, ErrBadRange)
		}
		sort.SliceStable(les, func(i, j int) bool {
			return les[i].Range.Start.Character < les[j].Range.Start.Character
		})
		line := lines[lineNum]
		offset := 0 // UTF-16 units added by earlier edits on this line
		prevEnd := 0
		for _, e := range les {
			if e.Range.Start.Character < prevEnd || e.Range.End.Character < e.Range.Start.Character {
				return "", fmt.Errorf("line %d: %w", lineNum+1, ErrBadRange)
			}
			start, ok := byteOffset(line, e.Range.Start.Character+offset)
			if !ok {
				return "", fmt.Errorf("line %d: %w", lineNum+1, ErrBadRange)
			}
			end, ok := byteOffset(line, e.Range.End.Character+offset)
			if !ok {
				return "", fmt.Errorf("line %d: %w", lineNum+1, ErrBadRange)
			}
			line = line[:start] + e.NewText + line[end:]
			offset += utf16Len(e.NewText) - (e.Range.End.Character - e.Range.Start.Character)
			prevEnd = e.Range.End.Character
		}
		lines[lineNum] = line
	}
	return strings.Join(lines, "\n"), nil
}

// byteOffset converts a UTF-16 column into a byte offset within line.
// It fails for columns past the end of the line or inside a surrogate pair.
func byteOffset(line string, col int) (int, bool) {
	units := 0
	for i, r := range line {
		if units == col {
			return i, true
		}
		if units > col {
			return 0, false
		}
		units += runeUnits(r)
	}
	if units == col {
		return len(line), true
	}
	return 0, false
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// writeFilePreservePerm writes data to path with the given permission bits.
// os.WriteFile applies umask on file creation, so os.Chmod is called to
// ensure the exact permission bits are set.
func writeFilePreservePerm(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

// restoreBackups restores files to their original content (best-effort).
func restoreBackups(backups []backup) {
	for _, b := range backups {
		_ = writeFilePreservePerm(b.path, b.content, b.perm)
	}
}

// FilterExisting splits edits into those whose precondition holds and those
// skipped because the required path does not exist. exists is consulted at
// most once per path.
func FilterExisting(edits []core.Edit, exists func(string) bool) (kept, skipped []core.Edit) {
	seen := make(map[string]bool)
	for _, e := range edits {
		p := e.RequiresPathToExist
		if p == "" {
			kept = append(kept, e)
			continue
		}
		ok, cached := seen[p]
		if !cached {
			ok = exists(p)
			seen[p] = ok
		}
		if ok {
			kept = append(kept, e)
		} else {
			skipped = append(skipped, e)
		}
	}
	return kept, skipped
}

// FileExists reports whether a slash-separated path exists on disk.
func FileExists(p string) bool {
	_, err := os.Stat(filepath.FromSlash(p))
	return err == nil
}
