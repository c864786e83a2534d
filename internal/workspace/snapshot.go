// Package workspace reads Markdown snapshots from disk and writes edits back.
package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ryotapoi/mdlinks/internal/core"
)

// readLimit bounds concurrent file reads while collecting a snapshot.
const readLimit = 16

// Filter selects the files that make up a snapshot.
type Filter struct {
	Options   core.Options
	GitIgnore *GitIgnore
	// SkipDirs names directories that are never entered, wherever they appear.
	SkipDirs []string
}

// Collect walks root and returns every Markdown file that passes f, with
// absolute slash-separated paths, sorted. Hidden directories are skipped.
func Collect(ctx context.Context, root string, f Filter) ([]core.File, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	opts := f.Options
	opts.WorkspacePath = filepath.ToSlash(root)

	var paths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			if f.skipDir(d.Name()) || f.GitIgnore.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsMarkdown(p) || f.GitIgnore.Match(rel, false) {
			return nil
		}
		slash := filepath.ToSlash(p)
		ok, err := core.ShouldInclude(slash, opts)
		if err != nil {
			return err
		}
		if ok {
			paths = append(paths, slash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return readFiles(ctx, paths)
}

func (f Filter) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, s := range f.SkipDirs {
		if name == s {
			return true
		}
	}
	return false
}

// readFiles reads paths concurrently, keeping their order.
func readFiles(ctx context.Context, paths []string) ([]core.File, error) {
	files := make([]core.File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readLimit)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.FromSlash(p))
			if err != nil {
				return err
			}
			files[i] = core.File{Path: p, Content: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// IsMarkdown reports whether p has a .md extension.
func IsMarkdown(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".md")
}
