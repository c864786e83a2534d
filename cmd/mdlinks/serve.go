package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ryotapoi/mdlinks/internal/server"
	"github.com/ryotapoi/mdlinks/internal/workspace"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API, optionally watching the workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (default from config http.port)"},
			&cli.BoolFlag{Name: "watch", Usage: "also watch the workspace for changes"},
		},
		Action: withEnv(runServe),
	}
}

func runServe(ctx context.Context, cmd *cli.Command, e *env) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Requests cannot answer a prompt.
	e.updater.Confirm = nil

	addr := cmd.String("addr")
	if addr == "" {
		addr = e.cfg.HTTP.Address()
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(e.updater, workspace.NewPendingSaves(), e.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cmd.Bool("watch") {
		g.Go(func() error {
			return newWatcher(e).Run(gCtx)
		})
	}

	g.Go(func() error {
		e.logger.Info("Starting HTTP server", slog.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		e.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			e.logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}
