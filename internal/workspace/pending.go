package workspace

import (
	"sync"

	"github.com/ryotapoi/mdlinks/internal/core"
)

// PendingSaves correlates a "will save" notification carrying the content
// before the save with the later "did save" for the same document.
type PendingSaves struct {
	mu      sync.Mutex
	pending map[string]string
}

// NewPendingSaves returns an empty store.
func NewPendingSaves() *PendingSaves {
	return &PendingSaves{pending: make(map[string]string)}
}

// Begin records the content of path before a save. A second Begin for the
// same path replaces the first.
func (s *PendingSaves) Begin(path, before string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[core.NormalizePath(path)] = before
}

// Complete pairs the content after a save with the recorded content before
// it. The entry is consumed; ok is false when no save was pending.
func (s *PendingSaves) Complete(path, after string) (core.SaveEvent, bool) {
	key := core.NormalizePath(path)
	s.mu.Lock()
	before, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if !ok {
		return core.SaveEvent{}, false
	}
	return core.SaveEvent{Path: key, ContentBefore: before, ContentAfter: after}, true
}

// Discard drops a pending save.
func (s *PendingSaves) Discard(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, core.NormalizePath(path))
}

// Len returns the number of pending saves.
func (s *PendingSaves) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
