package core

import (
	"reflect"
	"slices"
	"sort"
	"strings"
	"testing"
	"unicode/utf16"
)

func edit(path string, line, start, end int, newText, requires string) Edit {
	return Edit{
		Path:                path,
		Range:               lineRange(line, start, end),
		NewText:             newText,
		RequiresPathToExist: requires,
	}
}

func assertEdits(t *testing.T, got, want []Edit) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("edits mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

// applyEdits applies single-line edits to content.
func applyEdits(content string, edits []Edit) string {
	lines := strings.Split(content, "\n")
	sorted := slices.Clone(edits)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Range.Start, sorted[j].Range.Start
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		return a.Character > b.Character
	})
	for _, e := range sorted {
		line := lines[e.Range.Start.Line]
		s := byteOffset(line, e.Range.Start.Character)
		end := byteOffset(line, e.Range.End.Character)
		lines[e.Range.Start.Line] = line[:s] + e.NewText + line[end:]
	}
	return strings.Join(lines, "\n")
}

func byteOffset(line string, units int) int {
	n := 0
	for i, r := range line {
		if n >= units {
			return i
		}
		n += utf16.RuneLen(r)
	}
	return len(line)
}

func TestPlanRename(t *testing.T) {
	tests := []struct {
		name  string
		ev    RenameEvent
		files []File
		opts  Options
		want  []Edit
	}{
		{
			name: "own links after move",
			ev:   RenameEvent{PathBefore: "file-1.md", PathAfter: "folder/file-1.md"},
			files: []File{
				{Path: "folder/file-1.md", Content: "[link to a website](http://www.example.com)\n[link to file-2](file-2.md)"},
				{Path: "file-2.md", Content: "# File 2"},
			},
			want: []Edit{
				edit("folder/file-1.md", 0, 0, 43, "[link to a website](../http:/www.example.com)", "http:/www.example.com"),
				edit("folder/file-1.md", 1, 0, 27, "[link to file-2](../file-2.md)", ""),
			},
		},
		{
			name: "incoming link",
			ev:   RenameEvent{PathBefore: "folder/file-2.md", PathAfter: "folder/new-name.md"},
			files: []File{
				{Path: "file-1.md", Content: "# File 1\na link [link to file-2](./folder/file-2.md) is here"},
				{Path: "folder/new-name.md", Content: "# File 2"},
			},
			want: []Edit{
				edit("file-1.md", 1, 7, 43, "[link to file-2](folder/new-name.md)", ""),
			},
		},
		{
			name: "windows separators",
			ev:   RenameEvent{PathBefore: `folder\file-2.md`, PathAfter: `folder\new-name.md`},
			files: []File{
				{Path: "file-1.md", Content: "# File 1\na link [link to file-2](./folder/file-2.md) is here"},
				{Path: `folder\new-name.md`, Content: "# File 2"},
			},
			want: []Edit{
				edit("file-1.md", 1, 7, 43, "[link to file-2](folder/new-name.md)", ""),
			},
		},
		{
			name: "unrelated asset untouched",
			ev:   RenameEvent{PathBefore: "other.png", PathAfter: "renamed.png"},
			files: []File{
				{Path: "file-1.md", Content: "![image](./image.png)\n[x](file-2.md)"},
			},
		},
		{
			name: "several links to the same file",
			ev:   RenameEvent{PathBefore: "old.txt", PathAfter: "new.txt"},
			files: []File{
				{Path: "list.md", Content: "- Link one: [link no. 1](./old.txt)\n- Link two: [link no. 2](old.txt)"},
			},
			want: []Edit{
				edit("list.md", 0, 12, 35, "[link no. 1](new.txt)", ""),
				edit("list.md", 1, 12, 33, "[link no. 2](new.txt)", ""),
			},
		},
		{
			name: "two links on one line",
			ev:   RenameEvent{PathBefore: "img.png", PathAfter: "pic.png"},
			files: []File{
				{Path: "file.md", Content: "![](img.png) and ![](img.png)"},
			},
			want: []Edit{
				edit("file.md", 0, 1, 12, "[](pic.png)", ""),
				edit("file.md", 0, 18, 29, "[](pic.png)", ""),
			},
		},
		{
			name: "two own links on one line",
			ev:   RenameEvent{PathBefore: "file.md", PathAfter: "folder/file.md"},
			files: []File{
				{Path: "folder/file.md", Content: "![](img1.png) and ![](img2.png)"},
			},
			want: []Edit{
				edit("folder/file.md", 0, 1, 13, "[](../img1.png)", "img1.png"),
				edit("folder/file.md", 0, 19, 31, "[](../img2.png)", "img2.png"),
			},
		},
		{
			name: "folder rename",
			ev:   RenameEvent{PathBefore: "my/workspace/before", PathAfter: "my/workspace/after"},
			files: []File{
				{Path: "my/workspace/file-1.md", Content: "[link-1](before/1.txt)\n[link-2](before/2.txt)\n[link-3](before/sub/3.txt)"},
			},
			want: []Edit{
				edit("my/workspace/file-1.md", 0, 0, 22, "[link-1](after/1.txt)", "my/workspace/after/1.txt"),
				edit("my/workspace/file-1.md", 1, 0, 22, "[link-2](after/2.txt)", "my/workspace/after/2.txt"),
				edit("my/workspace/file-1.md", 2, 0, 26, "[link-3](after/sub/3.txt)", "my/workspace/after/sub/3.txt"),
			},
		},
		{
			name: "folder rename to a known markdown file",
			ev:   RenameEvent{PathBefore: "notes", PathAfter: "archive", IsDir: true},
			files: []File{
				{Path: "index.md", Content: "[a](notes/a.md)"},
				{Path: "archive/a.md", Content: "# A"},
			},
			want: []Edit{
				edit("index.md", 0, 0, 15, "[a](archive/a.md)", ""),
			},
		},
		{
			name: "folder name with extension",
			ev:   RenameEvent{PathBefore: "folder.txt", PathAfter: "folder-changed.txt"},
			files: []File{
				{Path: "hello.md", Content: "[hello](folder.txt/subfolder.txt/hello.txt)"},
			},
			want: []Edit{
				edit("hello.md", 0, 0, 43, "[hello](folder-changed.txt/subfolder.txt/hello.txt)", "folder-changed.txt/subfolder.txt/hello.txt"),
			},
		},
		{
			name: "prefix without separator is not a folder match",
			ev:   RenameEvent{PathBefore: "folder", PathAfter: "folder-x"},
			files: []File{
				{Path: "hello.md", Content: "[hello](folder.txt/subfolder.txt/hello.txt)"},
			},
		},
		{
			name: "section reference in own link",
			ev:   RenameEvent{PathBefore: "file-1.md", PathAfter: "folder/file-1.md"},
			files: []File{
				{Path: "folder/file-1.md", Content: "[link to file-2](file-2.md#test)"},
				{Path: "file-2.md", Content: "# Test"},
			},
			want: []Edit{
				edit("folder/file-1.md", 0, 0, 32, "[link to file-2](../file-2.md#test)", ""),
			},
		},
		{
			name: "section reference in incoming link",
			ev:   RenameEvent{PathBefore: "file2.md", PathAfter: "file2-changed.md"},
			files: []File{
				{Path: "file1.md", Content: "[link to file 2](file2.md#Title)"},
				{Path: "file2-changed.md", Content: "# Title"},
			},
			want: []Edit{
				edit("file1.md", 0, 0, 32, "[link to file 2](file2-changed.md#Title)", ""),
			},
		},
		{
			name: "self reference survives move",
			ev:   RenameEvent{PathBefore: "a.md", PathAfter: "sub/a.md"},
			files: []File{
				{Path: "sub/a.md", Content: "[top](a.md#top)\n[intro](#intro)"},
			},
		},
		{
			name: "img tags",
			ev:   RenameEvent{PathBefore: "image.png", PathAfter: "folder/image.png"},
			files: []File{
				{Path: "file-1.md", Content: `<img src="image.png" />`},
				{Path: "folder/file-2.md", Content: "# Header\n<img\nalt=\"some image\"\nsrc=\"../image.png\"\n></img>"},
				{Path: "file-2.md", Content: "# Two links\n<img src=\"image.png\" />\n<img src=\"image.png\" />"},
			},
			want: []Edit{
				edit("file-1.md", 0, 10, 19, "folder/image.png", ""),
				edit("folder/file-2.md", 3, 5, 17, "image.png", ""),
				edit("file-2.md", 1, 10, 19, "folder/image.png", ""),
				edit("file-2.md", 2, 10, 19, "folder/image.png", ""),
			},
		},
		{
			name: "utf-16 columns",
			ev:   RenameEvent{PathBefore: "old.md", PathAfter: "new.md"},
			files: []File{
				{Path: "a.md", Content: "émoji 😀 [a](old.md)"},
			},
			want: []Edit{
				edit("a.md", 0, 9, 20, "[a](new.md)", ""),
			},
		},
		{
			name: "excluded folder is not scanned",
			ev:   RenameEvent{PathBefore: "file-1.md", PathAfter: "file-3.md"},
			files: []File{
				{Path: "node_modules/dep/readme.md", Content: "[x](../../file-1.md)"},
				{Path: "file-2.md", Content: "no links"},
			},
			opts: Options{Exclude: []string{"**/node_modules/**"}},
		},
		{
			name: "excluded rename source",
			ev:   RenameEvent{PathBefore: "node_modules/old.md", PathAfter: "node_modules/new.md"},
			files: []File{
				{Path: "file-1.md", Content: "[x](node_modules/old.md)"},
			},
			opts: Options{Exclude: []string{"**/node_modules/**"}},
		},
		{
			name: "exclude relative to workspace",
			ev:   RenameEvent{PathBefore: "workspace/file-1.md", PathAfter: "workspace/file-3.md"},
			files: []File{
				{Path: "workspace/node_modules/file-2.md", Content: "[](../file-1.md)"},
			},
			opts: Options{Exclude: []string{"node_modules/**"}, WorkspacePath: "workspace/"},
		},
		{
			name: "include list",
			ev:   RenameEvent{PathBefore: "included/hello.txt", PathAfter: "included/hello-changed.txt"},
			files: []File{
				{Path: "included/file.md", Content: "[](hello.txt)"},
				{Path: "not-included.md", Content: "[](included/hello.txt)"},
			},
			opts: Options{Include: []string{"**/included/**"}},
			want: []Edit{
				edit("included/file.md", 0, 0, 13, "[](hello-changed.txt)", ""),
			},
		},
		{
			name: "several include patterns",
			ev:   RenameEvent{PathBefore: "included/hello.txt", PathAfter: "included/hello-changed.txt"},
			files: []File{
				{Path: "included/file.md", Content: "[](hello.txt)"},
				{Path: "included-file.md", Content: "[](included/hello.txt)"},
				{Path: "excluded.md", Content: "[](included/hello.txt)"},
			},
			opts: Options{Include: []string{"**/included/**", "included-file.md"}},
			want: []Edit{
				edit("included/file.md", 0, 0, 13, "[](hello-changed.txt)", ""),
				edit("included-file.md", 0, 0, 22, "[](included/hello-changed.txt)", ""),
			},
		},
		{
			name: "same path",
			ev:   RenameEvent{PathBefore: "a.md", PathAfter: "./a.md"},
			files: []File{
				{Path: "b.md", Content: "[a](a.md)"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanRename(tt.ev, tt.files, tt.opts)
			if err != nil {
				t.Fatalf("PlanRename: %v", err)
			}
			assertEdits(t, got, tt.want)
		})
	}
}

func TestPlanRename_BadPattern(t *testing.T) {
	ev := RenameEvent{PathBefore: "a.md", PathAfter: "b.md"}
	_, err := PlanRename(ev, []File{{Path: "c.md"}}, Options{Exclude: []string{"[c.md"}})
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}

func TestPlanRename_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		ev    RenameEvent
		files []File
	}{
		{
			name: "file",
			ev:   RenameEvent{PathBefore: "folder/file-2.md", PathAfter: "folder/new-name.md"},
			files: []File{
				{Path: "file-1.md", Content: "# File 1\na link [link to file-2](./folder/file-2.md) is here"},
				{Path: "folder/new-name.md", Content: "[back](../file-1.md)"},
			},
		},
		{
			name: "folder",
			ev:   RenameEvent{PathBefore: "before", PathAfter: "after", IsDir: true},
			files: []File{
				{Path: "index.md", Content: "[1](before/1.md) and [2](./before/sub/2.md#part)"},
				{Path: "after/1.md", Content: "# One"},
			},
		},
		{
			name: "self moved deeper",
			ev:   RenameEvent{PathBefore: "file-1.md", PathAfter: "folder/file-1.md"},
			files: []File{
				{Path: "folder/file-1.md", Content: "[x](file-2.md)"},
				{Path: "file-2.md", Content: "# Two"},
			},
		},
		{
			name: "self moved shallower",
			ev:   RenameEvent{PathBefore: "folder/file-1.md", PathAfter: "file-1.md"},
			files: []File{
				{Path: "file-1.md", Content: "[x](../file-2.md#top)"},
				{Path: "file-2.md", Content: "# Two"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edits, err := PlanRename(tt.ev, tt.files, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if len(edits) == 0 {
				t.Fatal("expected edits on first pass")
			}
			byPath := map[string][]Edit{}
			for _, e := range edits {
				byPath[e.Path] = append(byPath[e.Path], e)
			}
			next := make([]File, len(tt.files))
			for i, f := range tt.files {
				next[i] = File{Path: f.Path, Content: applyEdits(f.Content, byPath[NormalizePath(f.Path)])}
			}
			again, err := PlanRename(tt.ev, next, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if len(again) != 0 {
				t.Errorf("second pass edits = %+v, want none", again)
			}
		})
	}
}

func TestPlanRename_SeparatorEquivalence(t *testing.T) {
	files := []File{
		{Path: "docs/index.md", Content: "[guide](guide/setup.md#install)"},
	}
	slash, err := PlanRename(RenameEvent{PathBefore: "docs/guide/setup.md", PathAfter: "docs/howto/setup.md"}, files, Options{})
	if err != nil {
		t.Fatal(err)
	}
	back, err := PlanRename(RenameEvent{PathBefore: `docs\guide\setup.md`, PathAfter: `docs\howto\setup.md`}, files, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(slash, back) {
		t.Errorf("slash = %+v, backslash = %+v", slash, back)
	}
	want := []Edit{edit("docs/index.md", 0, 0, 31, "[guide](howto/setup.md#install)", "")}
	assertEdits(t, slash, want)
}
