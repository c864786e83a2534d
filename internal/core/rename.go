package core

// renamePlan holds the normalized inputs shared by both rename phases.
type renamePlan struct {
	before string
	after  string
	known  map[string]bool // normalized paths of the Markdown files in the snapshot
}

// PlanRename computes the edits that follow a file or folder rename.
//
// The renamed file's own relative links are rewritten for its new location, and
// links in every other file that point at the old path (or, for folders, at
// anything beneath it) are redirected to the new one.
func PlanRename(ev RenameEvent, files []File, opts Options) ([]Edit, error) {
	before := NormalizePath(ev.PathBefore)
	after := NormalizePath(ev.PathAfter)
	if before == "" || after == "" || before == after {
		return nil, nil
	}

	files, err := FilterFiles(files, opts)
	if err != nil {
		return nil, err
	}

	isDir := ev.IsDir || hasFileUnder(files, after)
	var included bool
	if isDir {
		included, err = shouldIncludeDir(before, opts)
	} else {
		included, err = ShouldInclude(before, opts)
	}
	if err != nil {
		return nil, err
	}
	if !included {
		return nil, nil
	}

	p := &renamePlan{
		before: before,
		after:  after,
		known:  make(map[string]bool, len(files)),
	}
	for _, f := range files {
		p.known[NormalizePath(f.Path)] = true
	}

	self := -1
	if !isDir {
		for i, f := range files {
			if NormalizePath(f.Path) == after {
				self = i
				break
			}
		}
	}

	var edits []Edit
	if self >= 0 {
		edits = append(edits, p.ownLinkEdits(files[self])...)
	}
	for i, f := range files {
		if i == self {
			continue
		}
		edits = append(edits, p.incomingLinkEdits(f)...)
	}
	return edits, nil
}

// ownLinkEdits rewrites the moved file's relative links from the old location's
// perspective to the new one.
func (p *renamePlan) ownLinkEdits(f File) []Edit {
	var edits []Edit
	lines, links := scanLinks(f.Content)
	for i, occs := range links {
		for _, l := range occs {
			target, section := SplitSection(l.target)
			if target == "" || isAnchorOnly(target) {
				continue
			}
			abs := joinPath(dirname(p.before), target)
			if here := joinPath(dirname(p.after), target); here != abs && p.known[here] && !p.known[abs] {
				// Already relative to the new location.
				continue
			}
			if abs == p.before {
				// Link to itself.
				abs = p.after
			}
			newLink, err := RelativePath(dirname(p.after), abs)
			if err != nil || newLink == NormalizePath(target) {
				continue
			}
			e := l.edit(p.after, lines[i], l.render(newLink+section))
			if !p.known[abs] {
				e.RequiresPathToExist = abs
			}
			edits = append(edits, e)
		}
	}
	return edits
}

// incomingLinkEdits redirects links in f that point at the renamed path or into
// the renamed folder.
func (p *renamePlan) incomingLinkEdits(f File) []Edit {
	var edits []Edit
	filePath := NormalizePath(f.Path)
	dir := dirname(filePath)
	lines, links := scanLinks(f.Content)
	for i, occs := range links {
		for _, l := range occs {
			target, section := SplitSection(l.target)
			if target == "" || isAnchorOnly(target) {
				continue
			}
			abs := joinPath(dir, target)

			var newAbs, requires string
			switch {
			case abs == p.before:
				newAbs = p.after
			case isUnder(abs, p.before):
				newAbs = p.after + abs[len(p.before):]
				if !p.known[newAbs] {
					requires = newAbs
				}
			default:
				continue
			}

			newLink, err := RelativePath(dir, newAbs)
			if err != nil || newLink == NormalizePath(target) {
				continue
			}
			e := l.edit(filePath, lines[i], l.render(newLink+section))
			e.RequiresPathToExist = requires
			edits = append(edits, e)
		}
	}
	return edits
}

// hasFileUnder reports whether any snapshot file lives beneath dir.
func hasFileUnder(files []File, dir string) bool {
	for _, f := range files {
		if isUnder(NormalizePath(f.Path), dir) {
			return true
		}
	}
	return false
}
