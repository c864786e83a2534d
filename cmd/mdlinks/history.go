package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List applied edit batches, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "number of batches to show (0 for all)", Value: 20},
			formatFlag(),
		},
		Action: runHistory,
	}
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	return withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
		batches, err := e.store.ListBatches(ctx, int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		return printHistory(cmd.Root().Writer, format, batches)
	})(ctx, cmd)
}
