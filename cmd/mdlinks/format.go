package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ryotapoi/mdlinks/internal/core"
	"github.com/ryotapoi/mdlinks/internal/store"
	"github.com/ryotapoi/mdlinks/internal/updater"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// validateFormat checks that format is "json" or "text".
func validateFormat(format string) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %q (must be json or text)", format)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Result output ---

func printResult(w io.Writer, format string, res *updater.Result, rel func(string) string) error {
	if format == "json" {
		return printJSON(w, res)
	}
	printResultText(w, res, rel)
	return nil
}

func printResultText(w io.Writer, res *updater.Result, rel func(string) string) {
	switch {
	case res.DryRun:
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d edit(s) planned (dry run)", len(res.Edits))))
		printEditsText(w, res.Edits, rel)
	case res.Declined:
		fmt.Fprintln(w, warnStyle.Render("link updates declined"))
	default:
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d edit(s) applied in %d file(s)", res.Applied, len(res.Files))))
		for _, f := range res.Files {
			fmt.Fprintf(w, "  %s\n", pathStyle.Render(rel(f)))
		}
	}
	if res.Moved {
		fmt.Fprintln(w, dimStyle.Render("moved on disk"))
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d edit(s) skipped, target missing:", len(res.Skipped))))
		for _, e := range res.Skipped {
			fmt.Fprintf(w, "  %s %s\n", pathStyle.Render(rel(e.Path)), dimStyle.Render("needs "+rel(e.RequiresPathToExist)))
		}
	}
}

// --- Edit output ---

func printEdits(w io.Writer, format string, edits []core.Edit, rel func(string) string) error {
	if format == "json" {
		if edits == nil {
			edits = []core.Edit{}
		}
		return printJSON(w, edits)
	}
	printEditsText(w, edits, rel)
	return nil
}

func printEditsText(w io.Writer, edits []core.Edit, rel func(string) string) {
	for _, e := range edits {
		pos := fmt.Sprintf("%d:%d-%d", e.Range.Start.Line+1, e.Range.Start.Character+1, e.Range.End.Character+1)
		fmt.Fprintf(w, "  %s:%s %s\n", pathStyle.Render(rel(e.Path)), pos, e.NewText)
		if e.RequiresPathToExist != "" {
			fmt.Fprintf(w, "    %s\n", dimStyle.Render("requires "+rel(e.RequiresPathToExist)))
		}
	}
}

// --- History output ---

func printHistory(w io.Writer, format string, batches []store.Batch) error {
	if format == "json" {
		if batches == nil {
			batches = []store.Batch{}
		}
		return printJSON(w, batches)
	}
	for _, b := range batches {
		fmt.Fprintf(w, "%s %s %s %s\n",
			dimStyle.Render(fmt.Sprintf("#%d", b.ID)),
			b.CreatedAt.Format(time.DateTime),
			headerStyle.Render(b.EventType),
			pathStyle.Render(b.Subject))
		fmt.Fprintf(w, "    applied %d, skipped %d\n", b.Applied, b.Skipped)
	}
	return nil
}
