package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/ryotapoi/mdlinks/internal/updater"
	"github.com/ryotapoi/mdlinks/internal/watch"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Watch the workspace and update links as files move or headings change",
		Action: withEnv(runWatch),
	}
}

func runWatch(ctx context.Context, cmd *cli.Command, e *env) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newWatcher(e).Run(ctx)
}

func newWatcher(e *env) *watch.Watcher {
	return &watch.Watcher{
		Root:    e.updater.Root,
		Updater: e.updater,
		Logger:  e.logger,
		OnEvent: func(kind, subject string, res *updater.Result) {
			if res.Applied == 0 && len(res.Skipped) == 0 {
				return
			}
			e.logger.Info("links updated",
				slog.String("event", kind),
				slog.String("path", e.updater.Rel(subject)),
				slog.Int("applied", res.Applied),
				slog.Int("skipped", len(res.Skipped)))
		},
	}
}
