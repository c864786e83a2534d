// Package updater runs the rename and save flows against a workspace on disk:
// it gathers the snapshot, plans edits with core, checks preconditions, asks
// for confirmation, applies the edits and journals them.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ryotapoi/mdlinks/internal/config"
	"github.com/ryotapoi/mdlinks/internal/core"
	"github.com/ryotapoi/mdlinks/internal/store"
	"github.com/ryotapoi/mdlinks/internal/workspace"
)

var (
	ErrSameSource        = errors.New("source and destination are the same")
	ErrSourceMissing     = errors.New("source not found on disk")
	ErrDestinationExists = errors.New("destination already exists on disk")
	ErrNoPreviousContent = errors.New("no previous content recorded")
	ErrOutsideRoot       = errors.New("path escapes workspace root")
)

// ConfirmFunc is asked before edits are applied. Returning false leaves the
// files untouched.
type ConfirmFunc func(edits []core.Edit) (bool, error)

// Updater applies link updates inside one workspace.
type Updater struct {
	Root      string // absolute, OS-specific separators
	Config    *config.Config
	Store     *store.Store // optional
	Logger    *slog.Logger
	Confirm   ConfirmFunc // nil applies without asking
	GitIgnore *workspace.GitIgnore

	mu sync.Mutex // one rename or save writes at a time
}

// New returns an Updater for the workspace at root.
func New(root string, cfg *config.Config, st *store.Store, logger *slog.Logger) (*Updater, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	u := &Updater{Root: abs, Config: cfg, Store: st, Logger: logger}
	if cfg.UseGitignore {
		gi, err := workspace.LoadGitIgnore(abs)
		if err != nil {
			return nil, err
		}
		u.GitIgnore = gi
	}
	return u, nil
}

// Result reports the outcome of a rename or save.
type Result struct {
	Moved    bool        `json:"moved"`
	Edits    []core.Edit `json:"edits"`
	Skipped  []core.Edit `json:"skipped,omitempty"`
	Files    []string    `json:"files,omitempty"`
	Applied  int         `json:"applied"`
	DryRun   bool        `json:"dryRun,omitempty"`
	Declined bool        `json:"declined,omitempty"`
	BatchID  int64       `json:"batchId,omitempty"`
}

// Options returns the planner options for this workspace.
func (u *Updater) Options() core.Options {
	return u.Config.Options(filepath.ToSlash(u.Root))
}

// Resolve returns p as an absolute slash path; relative paths are taken
// relative to the workspace root.
func (u *Updater) Resolve(p string) string {
	p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	if !filepath.IsAbs(p) {
		p = filepath.Join(u.Root, p)
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// ResolveInside resolves p like Resolve and rejects paths that are not
// strictly below the workspace root.
func (u *Updater) ResolveInside(p string) (string, error) {
	abs := u.Resolve(p)
	rel, err := filepath.Rel(u.Root, filepath.FromSlash(abs))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return abs, nil
}

// Rel returns p relative to the workspace root for display.
func (u *Updater) Rel(p string) string {
	rel, err := filepath.Rel(u.Root, filepath.FromSlash(p))
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

// Snapshot collects the workspace's Markdown files.
func (u *Updater) Snapshot(ctx context.Context) ([]core.File, error) {
	return workspace.Collect(ctx, u.Root, workspace.Filter{
		Options:   u.Options(),
		GitIgnore: u.GitIgnore,
		SkipDirs:  []string{filepath.Base(u.Config.StateDir)},
	})
}

// Plan computes the edits for ev against the current snapshot without
// touching any file.
func (u *Updater) Plan(ctx context.Context, ev core.Event) ([]core.Edit, error) {
	files, err := u.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeEdits(ev, files, u.Options())
}

// confirm asks the ConfirmFunc when the edit count exceeds the threshold.
func (u *Updater) confirm(edits []core.Edit, skipPrompt bool) (bool, error) {
	if skipPrompt || u.Confirm == nil || !u.Config.Confirmation.NeedsPrompt(len(edits)) {
		return true, nil
	}
	return u.Confirm(edits)
}

// apply writes edits, journals them and refreshes the document cache.
func (u *Updater) apply(ctx context.Context, eventType, subject string, res *Result) error {
	if len(res.Edits) > 0 {
		applied, err := workspace.Apply(ctx, res.Edits)
		if err != nil {
			return fmt.Errorf("apply edits: %w", err)
		}
		res.Files = applied.Files
		res.Applied = applied.Applied
	}
	if u.Store == nil || (res.Applied == 0 && len(res.Skipped) == 0) {
		return nil
	}
	id, err := u.Store.RecordBatch(ctx, store.Batch{
		EventType: eventType,
		Subject:   subject,
		Applied:   res.Applied,
		Skipped:   len(res.Skipped),
		Edits:     res.Edits,
	})
	if err != nil {
		u.Logger.Warn("journal batch", "error", err)
	} else {
		res.BatchID = id
	}
	for _, p := range res.Files {
		u.remember(ctx, p)
	}
	return nil
}

// Remember records the current on-disk content of path in the document cache.
func (u *Updater) Remember(ctx context.Context, path string) {
	u.remember(ctx, u.Resolve(path))
}

func (u *Updater) remember(ctx context.Context, path string) {
	if u.Store == nil {
		return
	}
	full := filepath.FromSlash(path)
	data, err := os.ReadFile(full)
	if err != nil {
		u.Logger.Debug("cache read", "path", path, "error", err)
		return
	}
	var mtime int64
	if info, err := os.Stat(full); err == nil {
		mtime = info.ModTime().UnixNano()
	}
	if err := u.Store.PutDocument(ctx, store.Document{Path: path, Content: string(data), MTime: mtime}); err != nil {
		u.Logger.Warn("cache document", "path", path, "error", err)
	}
}

// Forget drops path from the document cache.
func (u *Updater) Forget(ctx context.Context, path string) {
	if u.Store == nil {
		return
	}
	if err := u.Store.DeleteDocument(ctx, u.Resolve(path)); err != nil {
		u.Logger.Warn("forget document", "path", path, "error", err)
	}
}
