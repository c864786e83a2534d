// Package watch turns file-system notifications under a workspace into rename
// and save flows.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ryotapoi/mdlinks/internal/updater"
	"github.com/ryotapoi/mdlinks/internal/workspace"
)

// Defaults for Watcher timing.
const (
	DefaultPairWindow = 300 * time.Millisecond
	DefaultDebounce   = 100 * time.Millisecond
)

// Updater is the part of *updater.Updater the watcher drives.
type Updater interface {
	Rename(ctx context.Context, from, to string, opts updater.RenameOptions) (*updater.Result, error)
	Save(ctx context.Context, path string, opts updater.SaveOptions) (*updater.Result, error)
	Remember(ctx context.Context, path string)
	Forget(ctx context.Context, path string)
}

// EventCallback is called after each rename or save flow the watcher ran.
// kind is "rename" or "save"; subject is the affected path.
type EventCallback func(kind, subject string, res *updater.Result)

// Watcher watches Root recursively.
type Watcher struct {
	Root    string
	Updater Updater
	Logger  *slog.Logger
	// PairWindow is how long a Rename waits for the matching Create.
	PairWindow time.Duration
	// Debounce delays save handling until writes to a file settle.
	Debounce time.Duration
	OnEvent  EventCallback
}

type pendingRename struct {
	from string
	at   time.Time
}

// Run processes file-system events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	pairWindow := w.PairWindow
	if pairWindow <= 0 {
		pairWindow = DefaultPairWindow
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.Root); err != nil {
		return err
	}
	w.prime(ctx, w.Root)
	w.Logger.Info("watcher: started", slog.String("root", w.Root))

	var flushTimer, expireTimer *time.Timer
	var flushCh, expireCh <-chan time.Time
	dirty := make(map[string]bool)
	var pending *pendingRename

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}
	scheduleExpire := func() {
		if expireTimer == nil {
			expireTimer = time.NewTimer(pairWindow)
			expireCh = expireTimer.C
		} else {
			expireTimer.Reset(pairWindow)
		}
	}
	expirePending := func() {
		if pending == nil {
			return
		}
		w.Logger.Debug("watcher: rename unpaired", slog.String("path", pending.from))
		w.Updater.Forget(ctx, pending.from)
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			if expireTimer != nil {
				expireTimer.Stop()
			}
			w.Logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for p := range dirty {
				w.save(ctx, p)
			}
			clear(dirty)

		case <-expireCh:
			if pending != nil && time.Since(pending.at) >= pairWindow {
				expirePending()
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.hidden(ev.Name) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				info, statErr := os.Stat(ev.Name)
				isDir := statErr == nil && info.IsDir()
				if isDir {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.Logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
				if pending != nil && time.Since(pending.at) < pairWindow && plausibleMove(pending.from, ev.Name) {
					from := pending.from
					pending = nil
					delete(dirty, from)
					w.rename(ctx, from, ev.Name)
					continue
				}
				expirePending()
				if isDir {
					w.prime(ctx, ev.Name)
				} else if workspace.IsMarkdown(ev.Name) {
					w.Updater.Remember(ctx, ev.Name)
				}

			case ev.Op&fsnotify.Write != 0:
				if workspace.IsMarkdown(ev.Name) {
					dirty[ev.Name] = true
					scheduleFlush()
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old path; the new path
				// arrives as a separate Create.
				expirePending()
				delete(dirty, ev.Name)
				pending = &pendingRename{from: ev.Name, at: time.Now()}
				scheduleExpire()

			case ev.Op&fsnotify.Remove != 0:
				delete(dirty, ev.Name)
				if workspace.IsMarkdown(ev.Name) {
					w.Updater.Forget(ctx, ev.Name)
				}
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) rename(ctx context.Context, from, to string) {
	res, err := w.Updater.Rename(ctx, from, to, updater.RenameOptions{Yes: true})
	if err != nil {
		w.Logger.Warn("watcher: rename failed",
			slog.String("from", from), slog.String("to", to), slog.String("error", err.Error()))
		return
	}
	w.Logger.Debug("watcher: renamed", slog.String("from", from), slog.String("to", to), slog.Int("applied", res.Applied))
	if w.OnEvent != nil {
		w.OnEvent("rename", to, res)
	}
}

func (w *Watcher) save(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	res, err := w.Updater.Save(ctx, path, updater.SaveOptions{Yes: true})
	if err != nil {
		w.Logger.Warn("watcher: save failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if w.OnEvent != nil {
		w.OnEvent("save", path, res)
	}
}

// plausibleMove reports whether a Create of to can be the destination of a
// Rename of from: a rename in place keeps the directory, a move keeps the
// base name, and both keep the extension.
func plausibleMove(from, to string) bool {
	if filepath.Ext(from) != filepath.Ext(to) {
		return false
	}
	return filepath.Dir(from) == filepath.Dir(to) || filepath.Base(from) == filepath.Base(to)
}

// prime records the content of every Markdown file under dir.
func (w *Watcher) prime(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if workspace.IsMarkdown(p) {
			w.Updater.Remember(ctx, p)
		}
		return nil
	})
}

// hidden reports whether p lies in a hidden directory below Root.
func (w *Watcher) hidden(p string) bool {
	rel, err := filepath.Rel(w.Root, p)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
