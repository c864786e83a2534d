package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/ryotapoi/mdlinks/internal/mcpserver"
)

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Serve the link tools over MCP on stdin/stdout",
		Action: withEnv(runMCP),
	}
}

func runMCP(_ context.Context, _ *cli.Command, e *env) error {
	e.updater.Confirm = nil
	return mcpserver.New(e.updater, resolveVersion()).ServeStdio()
}
