package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryotapoi/mdlinks/internal/core"
	"github.com/ryotapoi/mdlinks/internal/workspace"
)

// RenameOptions controls Rename.
type RenameOptions struct {
	DryRun bool
	// Yes skips the confirmation prompt.
	Yes bool
}

// Rename moves from to to on disk and rewrites the links affected by the move.
// If the move already happened (from absent, to present), the disk move is
// skipped and only links are rewritten. A failed rewrite moves the file back
// when this call moved it.
func (u *Updater) Rename(ctx context.Context, from, to string, opts RenameOptions) (*Result, error) {
	from, err := u.ResolveInside(from)
	if err != nil {
		return nil, err
	}
	to, err = u.ResolveInside(to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("%w: %s", ErrSameSource, u.Rel(from))
	}

	fromInfo, fromErr := os.Stat(filepath.FromSlash(from))
	toInfo, toErr := os.Stat(filepath.FromSlash(to))
	var needMove, isDir bool
	switch {
	case fromErr == nil && toErr != nil:
		needMove = true
		isDir = fromInfo.IsDir()
	case fromErr != nil && toErr == nil:
		isDir = toInfo.IsDir()
	case fromErr == nil && toErr == nil:
		return nil, fmt.Errorf("%w: %s", ErrDestinationExists, u.Rel(to))
	default:
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, u.Rel(from))
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	res := &Result{DryRun: opts.DryRun}
	ev := core.RenameEvent{PathBefore: from, PathAfter: to, IsDir: isDir}
	exists := workspace.FileExists

	if opts.DryRun {
		files, err := u.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if needMove {
			files = moveSnapshot(files, from, to)
			exists = func(p string) bool { return workspace.FileExists(movedBack(p, from, to)) }
		}
		edits, err := core.ComputeEdits(ev, files, u.Options())
		if err != nil {
			return nil, err
		}
		res.Edits, res.Skipped = workspace.FilterExisting(edits, exists)
		return res, nil
	}

	if needMove {
		if err := os.MkdirAll(filepath.Dir(filepath.FromSlash(to)), 0o755); err != nil {
			return nil, err
		}
		if err := os.Rename(filepath.FromSlash(from), filepath.FromSlash(to)); err != nil {
			return nil, err
		}
		res.Moved = true
	}
	moveBack := func() {
		if !res.Moved {
			return
		}
		if err := os.Rename(filepath.FromSlash(to), filepath.FromSlash(from)); err != nil {
			u.Logger.Error("roll back move", "from", u.Rel(to), "to", u.Rel(from), "error", err)
		}
		res.Moved = false
	}

	files, err := u.Snapshot(ctx)
	if err != nil {
		moveBack()
		return nil, err
	}
	edits, err := core.ComputeEdits(ev, files, u.Options())
	if err != nil {
		moveBack()
		return nil, err
	}
	res.Edits, res.Skipped = workspace.FilterExisting(edits, exists)

	ok, err := u.confirm(res.Edits, opts.Yes)
	if err != nil {
		moveBack()
		return nil, err
	}
	if !ok {
		res.Declined = true
		res.Edits = nil
		u.Logger.Info("rename: link updates declined", "from", u.Rel(from), "to", u.Rel(to))
		u.moveCache(ctx, from, to)
		return res, nil
	}

	if err := u.apply(ctx, core.EventRename, u.Rel(from)+" -> "+u.Rel(to), res); err != nil {
		moveBack()
		return nil, err
	}
	u.moveCache(ctx, from, to)
	u.Logger.Info("rename",
		"from", u.Rel(from), "to", u.Rel(to),
		"moved", res.Moved, "applied", res.Applied, "skipped", len(res.Skipped))
	return res, nil
}

func (u *Updater) moveCache(ctx context.Context, from, to string) {
	if u.Store == nil {
		return
	}
	if _, err := u.Store.RenameDocuments(ctx, from, to); err != nil {
		u.Logger.Warn("cache rename", "error", err)
	}
}

// moveSnapshot returns files as they would look after moving from to to.
func moveSnapshot(files []core.File, from, to string) []core.File {
	out := make([]core.File, len(files))
	for i, f := range files {
		out[i] = f
		if f.Path == from {
			out[i].Path = to
		} else if strings.HasPrefix(f.Path, from+"/") {
			out[i].Path = to + f.Path[len(from):]
		}
	}
	return out
}

// movedBack maps a post-move path to where it lives before the move.
func movedBack(p, from, to string) string {
	if p == to {
		return from
	}
	if strings.HasPrefix(p, to+"/") {
		return from + p[len(to):]
	}
	return p
}
