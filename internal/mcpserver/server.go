// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes link planning and renames over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/ryotapoi/mdlinks/internal/core"
	"github.com/ryotapoi/mdlinks/internal/store"
	"github.com/ryotapoi/mdlinks/internal/updater"
)

const defaultHistoryLimit = 20

// Server wraps the MCP server with the link tools.
type Server struct {
	mcp *server.MCPServer
	u   *updater.Updater
}

// New creates a new MCP server with all tools registered.
func New(u *updater.Updater, version string) *Server {
	s := &Server{u: u}

	s.mcp = server.NewMCPServer(
		"mdlinks",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("compute_edits",
		mcp.WithDescription("Compute the text edits that keep Markdown links valid after a rename or save. "+
			"Pure: works on the files passed in and writes nothing."),
		mcp.WithObject("event", mcp.Required(),
			mcp.Description(`Event envelope: {"type":"rename","payload":{"pathBefore","pathAfter","isDir"}} `+
				`or {"type":"save","payload":{"path","contentBefore","contentAfter"}}`)),
		mcp.WithArray("files", mcp.Description("Workspace snapshot: list of {path, content}")),
		mcp.WithObject("options", mcp.Description("Optional {exclude, include, workspacePath} glob filters")),
	), s.computeEdits)

	s.mcp.AddTool(mcp.NewTool("rename_path",
		mcp.WithDescription("Move a file or folder inside the workspace and rewrite every link it breaks."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current path, relative to the workspace root")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New path, relative to the workspace root")),
		mcp.WithBoolean("dry_run", mcp.Description("Only report the edits")),
	), s.renamePath)

	s.mcp.AddTool(mcp.NewTool("history",
		mcp.WithDescription("List recently applied edit batches, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of batches (default 20)")),
	), s.history)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type computeEditsArgs struct {
	Event   map[string]any `mapstructure:"event"`
	Files   []core.File    `mapstructure:"files"`
	Options core.Options   `mapstructure:"options"`
}

type renameArgs struct {
	From   string `mapstructure:"from"`
	To     string `mapstructure:"to"`
	DryRun bool   `mapstructure:"dry_run"`
}

type historyArgs struct {
	Limit int `mapstructure:"limit"`
}

func (s *Server) computeEdits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args computeEditsArgs
	if err := decodeArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Event == nil {
		return mcp.NewToolResultError("event is required"), nil
	}
	raw, err := json.Marshal(args.Event)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, err := core.DecodeEvent(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	edits, err := core.ComputeEdits(ev, args.Files, args.Options)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if edits == nil {
		edits = []core.Edit{}
	}
	return jsonResult(map[string]any{"edits": edits})
}

func (s *Server) renamePath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args renameArgs
	if err := decodeArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.From == "" || args.To == "" {
		return mcp.NewToolResultError("from and to are required"), nil
	}
	res, err := s.u.Rename(ctx, args.From, args.To, updater.RenameOptions{DryRun: args.DryRun, Yes: true})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) history(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := historyArgs{Limit: defaultHistoryLimit}
	if err := decodeArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	batches := []store.Batch{}
	if s.u.Store != nil {
		list, err := s.u.Store.ListBatches(ctx, args.Limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		batches = append(batches, list...)
	}
	return jsonResult(batches)
}

// decodeArgs decodes the tool arguments into a typed request.
func decodeArgs(req mcp.CallToolRequest, out any) error {
	args := req.GetArguments()
	if args == nil {
		return nil
	}
	if err := mapstructure.Decode(args, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
