package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ryotapoi/mdlinks/internal/core"
	"github.com/ryotapoi/mdlinks/internal/updater"
)

// promptConfirm returns a ConfirmFunc that lists the affected files on out
// and reads a y/N answer from in. Anything but y or yes declines.
func promptConfirm(in io.Reader, out io.Writer, rel func(string) string) updater.ConfirmFunc {
	r := bufio.NewReader(in)
	return func(edits []core.Edit) (bool, error) {
		files := countByFile(edits)
		fmt.Fprintf(out, "Update %d link(s) in %d file(s)?\n", len(edits), len(files))
		for _, f := range files {
			fmt.Fprintf(out, "  %s (%d)\n", rel(f.path), f.count)
		}
		fmt.Fprint(out, "Apply? [y/N] ")
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

type fileCount struct {
	path  string
	count int
}

// countByFile counts edits per document in first-seen order.
func countByFile(edits []core.Edit) []fileCount {
	var out []fileCount
	idx := make(map[string]int)
	for _, e := range edits {
		i, ok := idx[e.Path]
		if !ok {
			i = len(out)
			idx[e.Path] = i
			out = append(out, fileCount{path: e.Path})
		}
		out[i].count++
	}
	return out
}
