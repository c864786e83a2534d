package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ryotapoi/mdlinks/internal/updater"
)

func saveCommand() *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Update anchor links after headings in a file changed",
		Description: "Compares the file with its previous content and rewrites links to renamed headings.\n" +
			"The previous content comes from --before, or from the state recorded by an earlier run.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "saved file (workspace-relative)"},
			&cli.StringFlag{Name: "before", Usage: "file holding the content before the save"},
			dryRunFlag(),
			yesFlag(),
			formatFlag(),
		},
		Action: runSave,
	}
}

func runSave(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	file := cmd.String("file")
	if file == "" {
		return fmt.Errorf("--file is required")
	}
	opts := updater.SaveOptions{DryRun: cmd.Bool("dry-run"), Yes: cmd.Bool("yes")}
	if p := cmd.String("before"); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read --before: %w", err)
		}
		before := string(data)
		opts.Before = &before
	}
	return withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
		res, err := e.updater.Save(ctx, file, opts)
		if err != nil {
			return err
		}
		return printResult(cmd.Root().Writer, format, res, e.updater.Rel)
	})(ctx, cmd)
}
