package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ryotapoi/mdlinks/internal/core"
	"github.com/ryotapoi/mdlinks/internal/store"
)

// SaveOptions controls Save.
type SaveOptions struct {
	// Before is the document content before the save. When nil the cached
	// content is used.
	Before *string
	DryRun bool
	Yes    bool
}

// Save rewrites in-document anchor links of path after its headings changed.
// The content after the save is read from disk.
func (u *Updater) Save(ctx context.Context, path string, opts SaveOptions) (*Result, error) {
	path, err := u.ResolveInside(path)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		return nil, err
	}
	after := string(data)

	var before string
	switch {
	case opts.Before != nil:
		before = *opts.Before
	case u.Store == nil:
		return nil, fmt.Errorf("%w: %s", ErrNoPreviousContent, u.Rel(path))
	default:
		doc, err := u.Store.GetDocument(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			// First sighting: nothing to compare against yet.
			if !opts.DryRun {
				u.remember(ctx, path)
			}
			return &Result{DryRun: opts.DryRun}, nil
		}
		if err != nil {
			return nil, err
		}
		before = doc.Content
	}

	return u.applySave(ctx, core.SaveEvent{Path: path, ContentBefore: before, ContentAfter: after}, opts)
}

func (u *Updater) applySave(ctx context.Context, ev core.SaveEvent, opts SaveOptions) (*Result, error) {
	edits, err := core.ComputeEdits(ev, nil, u.Options())
	if err != nil {
		return nil, err
	}
	res := &Result{Edits: edits, DryRun: opts.DryRun}
	if opts.DryRun {
		return res, nil
	}

	ok, err := u.confirm(edits, opts.Yes)
	if err != nil {
		return nil, err
	}
	if !ok {
		res.Declined = true
		res.Edits = nil
		u.remember(ctx, ev.Path)
		return res, nil
	}
	if err := u.apply(ctx, core.EventSave, u.Rel(ev.Path), res); err != nil {
		return nil, err
	}
	if len(res.Files) == 0 {
		u.remember(ctx, ev.Path)
	}
	if res.Applied > 0 {
		u.Logger.Info("save", "path", u.Rel(ev.Path), "applied", res.Applied)
	}
	return res, nil
}
