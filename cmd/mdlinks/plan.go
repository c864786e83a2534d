package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ryotapoi/mdlinks/internal/core"
)

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print the edits for an event without applying them",
		Description: "Reads an event in JSON envelope form, e.g.\n" +
			`  {"type":"rename","payload":{"pathBefore":"a.md","pathAfter":"b.md"}}` + "\n" +
			"Relative paths are taken relative to --root.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event", Usage: "event file, - for stdin"},
			formatFlag(),
		},
		Action: runPlan,
	}
}

func runPlan(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	src := cmd.String("event")
	if src == "" {
		return fmt.Errorf("--event is required")
	}
	var data []byte
	var err error
	if src == "-" {
		data, err = io.ReadAll(cmd.Root().Reader)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return err
	}
	ev, err := core.DecodeEvent(data)
	if err != nil {
		return err
	}
	return withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
		edits, err := e.updater.Plan(ctx, resolveEvent(ev, e.updater.Resolve))
		if err != nil {
			return err
		}
		return printEdits(cmd.Root().Writer, format, edits, e.updater.Rel)
	})(ctx, cmd)
}

// resolveEvent makes the event's paths absolute so they line up with the snapshot.
func resolveEvent(ev core.Event, resolve func(string) string) core.Event {
	switch e := ev.(type) {
	case core.RenameEvent:
		e.PathBefore = resolve(e.PathBefore)
		e.PathAfter = resolve(e.PathAfter)
		return e
	case core.SaveEvent:
		e.Path = resolve(e.Path)
		return e
	}
	return ev
}
