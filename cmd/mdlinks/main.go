package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/ryotapoi/mdlinks/internal/config"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Prompts read from in; results go to out.
func newApp(in io.Reader, out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "mdlinks",
		Usage:     "Keep Markdown links valid when files move or headings change",
		Version:   resolveVersion(),
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "workspace root directory",
				Value: ".",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file (default <root>/" + config.FileName + ")",
				Sources: cli.EnvVars(config.EnvConfig),
			},
		},
		Commands: []*cli.Command{
			renameCommand(),
			saveCommand(),
			planCommand(),
			historyCommand(),
			watchCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func resolveVersion() string {
	v := version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return v
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "output format (json or text)",
		Value: "text",
	}
}

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "print the edits without writing anything",
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "apply without asking for confirmation",
	}
}
