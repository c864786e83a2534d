package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/ryotapoi/mdlinks/internal/config"
	"github.com/ryotapoi/mdlinks/internal/store"
	"github.com/ryotapoi/mdlinks/internal/updater"
)

// env is the per-invocation setup shared by the commands.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	updater *updater.Updater
}

// setup loads the config for --root, opens the state store and builds the
// updater. Confirmation prompts read from the command's Reader.
func setup(cmd *cli.Command) (*env, error) {
	root := cmd.String("root")
	cfg, err := config.Load(config.Path(root, cmd.String("config")))
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.Root().ErrWriter, cfg.LogLevel)

	u, err := updater.New(root, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.StatePath(u.Root))
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	u.Store = st
	u.Confirm = promptConfirm(cmd.Root().Reader, cmd.Root().ErrWriter, u.Rel)

	return &env{cfg: cfg, logger: logger, store: st, updater: u}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close state", slog.String("error", err.Error()))
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// withEnv wraps a command action that needs an env.
func withEnv(fn func(ctx context.Context, cmd *cli.Command, e *env) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(ctx, cmd, e)
	}
}
