package server

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ryotapoi/mdlinks/internal/core"
	"github.com/ryotapoi/mdlinks/internal/store"
	"github.com/ryotapoi/mdlinks/internal/updater"
	"github.com/ryotapoi/mdlinks/internal/workspace"
)

const defaultHistoryLimit = 20

// Handler holds API route handlers.
type Handler struct {
	u       *updater.Updater
	pending *workspace.PendingSaves
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(u *updater.Updater, pending *workspace.PendingSaves, logger *slog.Logger) *Handler {
	if pending == nil {
		pending = workspace.NewPendingSaves()
	}
	return &Handler{u: u, pending: pending, logger: logger}
}

type editsRequest struct {
	Event   *core.WireEvent `json:"event"`
	Files   []core.File     `json:"files"`
	Options core.Options    `json:"options"`
}

type editsResponse struct {
	Edits []core.Edit `json:"edits"`
}

// ComputeEdits handles POST /api/edits. It plans against the files in the
// request body and never touches the disk.
func (h *Handler) ComputeEdits(w http.ResponseWriter, r *http.Request) {
	var req editsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON: "+err.Error()))
		return
	}
	if req.Event == nil || req.Event.Event == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("event is required"))
		return
	}
	edits, err := core.ComputeEdits(req.Event.Event, req.Files, req.Options)
	if err != nil {
		h.fail(w, "compute edits", err)
		return
	}
	if edits == nil {
		edits = []core.Edit{}
	}
	writeJSON(w, http.StatusOK, editsResponse{Edits: edits})
}

type renameRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	DryRun bool   `json:"dryRun"`
}

// Rename handles POST /api/rename.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON: "+err.Error()))
		return
	}
	if req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to are required"))
		return
	}
	res, err := h.u.Rename(r.Context(), req.From, req.To, updater.RenameOptions{DryRun: req.DryRun, Yes: true})
	if err != nil {
		h.fail(w, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type saveRequest struct {
	Path string `json:"path"`
}

// WillSave handles POST /api/saves/will. The document's current disk content
// is kept as the content before the save.
func (h *Handler) WillSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	path, err := h.u.ResolveInside(req.Path)
	if err != nil {
		h.fail(w, "will save", err)
		return
	}
	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		h.fail(w, "will save", err)
		return
	}
	h.pending.Begin(path, string(data))
	w.WriteHeader(http.StatusNoContent)
}

// DidSave handles POST /api/saves/did. It pairs the save with the content
// recorded by WillSave and rewrites anchor links whose headings changed.
func (h *Handler) DidSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	path, err := h.u.ResolveInside(req.Path)
	if err != nil {
		h.fail(w, "did save", err)
		return
	}
	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		h.pending.Discard(path)
		h.fail(w, "did save", err)
		return
	}
	ev, ok := h.pending.Complete(path, string(data))
	if !ok {
		writeJSON(w, http.StatusConflict, errorBody("no pending save for "+h.u.Rel(path)))
		return
	}
	res, err := h.u.Save(r.Context(), ev.Path, updater.SaveOptions{Before: &ev.ContentBefore, Yes: true})
	if err != nil {
		h.fail(w, "did save", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// History handles GET /api/history?limit=N.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid limit"))
			return
		}
		limit = n
	}
	batches := []store.Batch{}
	if h.u.Store != nil {
		list, err := h.u.Store.ListBatches(r.Context(), limit)
		if err != nil {
			h.fail(w, "history", err)
			return
		}
		batches = append(batches, list...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

// fail maps err to a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrBadEvent),
		errors.Is(err, doublestar.ErrBadPattern),
		errors.Is(err, updater.ErrSameSource),
		errors.Is(err, updater.ErrOutsideRoot):
		return http.StatusBadRequest
	case errors.Is(err, updater.ErrSourceMissing),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, updater.ErrDestinationExists),
		errors.Is(err, updater.ErrNoPreviousContent):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
