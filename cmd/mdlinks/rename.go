package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ryotapoi/mdlinks/internal/updater"
)

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:  "rename",
		Usage: "Move a file or folder and update links",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "source path (workspace-relative)"},
			&cli.StringFlag{Name: "to", Usage: "destination path (workspace-relative)"},
			dryRunFlag(),
			yesFlag(),
			formatFlag(),
		},
		Action: runRename,
	}
}

func runRename(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	from, to := cmd.String("from"), cmd.String("to")
	if from == "" {
		return fmt.Errorf("--from is required")
	}
	if to == "" {
		return fmt.Errorf("--to is required")
	}
	return withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
		res, err := e.updater.Rename(ctx, from, to, updater.RenameOptions{
			DryRun: cmd.Bool("dry-run"),
			Yes:    cmd.Bool("yes"),
		})
		if err != nil {
			return err
		}
		return printResult(cmd.Root().Writer, format, res, e.updater.Rel)
	})(ctx, cmd)
}
