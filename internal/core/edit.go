package core

// File is one Markdown document of a snapshot.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Position is a zero-based line/character pair. Character counts UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span within a single document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Edit replaces Range in the document at Path with NewText.
// When RequiresPathToExist is set the caller must confirm that path exists
// before applying the edit.
type Edit struct {
	Path                string `json:"path"`
	Range               Range  `json:"range"`
	NewText             string `json:"newText"`
	RequiresPathToExist string `json:"requiresPathToExist,omitempty"`
}

// Options controls which files take part in planning.
type Options struct {
	// Exclude lists glob patterns of paths to leave out.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude"`
	// Include lists glob patterns of paths to keep. When non-empty it is an
	// allow-list and Exclude is not consulted.
	Include []string `json:"include,omitempty" yaml:"include"`
	// WorkspacePath is the root that patterns are relative to.
	WorkspacePath string `json:"workspacePath,omitempty" yaml:"-"`
}

// ComputeEdits routes ev to the matching planner and returns the edits that
// keep links in files valid. Unknown event kinds produce no edits.
func ComputeEdits(ev Event, files []File, opts Options) ([]Edit, error) {
	switch e := ev.(type) {
	case RenameEvent:
		return PlanRename(e, files, opts)
	case *RenameEvent:
		if e == nil {
			return nil, nil
		}
		return PlanRename(*e, files, opts)
	case SaveEvent:
		return PlanSave(e)
	case *SaveEvent:
		if e == nil {
			return nil, nil
		}
		return PlanSave(*e)
	}
	return nil, nil
}

// lineRange builds a single-line range.
func lineRange(line, start, end int) Range {
	return Range{
		Start: Position{Line: line, Character: start},
		End:   Position{Line: line, Character: end},
	}
}
