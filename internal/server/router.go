// Package server exposes the link updater over HTTP using chi.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ryotapoi/mdlinks/internal/updater"
	"github.com/ryotapoi/mdlinks/internal/workspace"
)

// NewRouter creates a chi router with the health check and all API routes mounted.
// pending correlates will-save and did-save notifications; a nil value gets a
// fresh store.
func NewRouter(u *updater.Updater, pending *workspace.PendingSaves, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(u, pending, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/edits", h.ComputeEdits)
		r.Post("/rename", h.Rename)
		r.Post("/saves/will", h.WillSave)
		r.Post("/saves/did", h.DidSave)
		r.Get("/history", h.History)
	})

	return r
}

// requestLogger logs one line per request at debug level, errors at warn.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
