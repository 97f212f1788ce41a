package diagfmt

import (
	"strings"
	"testing"

	"cinder/internal/diag"
	"cinder/internal/source"
)

func TestRender_SnippetAndCaret(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Add("main.cn", []byte("int x;\nint y = z;\n"))

	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.CodeUndefinedName,
		Message:  "undefined name z",
		Primary:  source.Span{File: file.ID, Start: 15, End: 16},
	})

	var sb strings.Builder
	Render(&sb, bag, fs, Options{Color: false})
	out := sb.String()

	for _, want := range []string{
		"main.cn:2:9",
		"error",
		"C3001",
		"undefined name z",
		"int y = z;",
		"^",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}

	// The caret must sit under the offending column.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "^") {
			if got := strings.Index(line, "^"); got != strings.Index("       | int y = z;", "z") {
				t.Errorf("caret at column %d:\n%s", got, out)
			}
		}
	}
}

func TestRender_NoteLines(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Add("main.cn", []byte("int x;\n"))

	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.CodeRedefinedName,
		Message:  "x redefined",
		Primary:  source.Span{File: file.ID, Start: 4, End: 5},
		Notes: []diag.Note{
			{Span: source.Span{File: file.ID, Start: 4, End: 5}, Msg: "first declared here"},
		},
	})

	var sb strings.Builder
	Render(&sb, bag, fs, Options{Color: false})
	if !strings.Contains(sb.String(), "note: main.cn:1:5: first declared here") {
		t.Errorf("note not rendered:\n%s", sb.String())
	}
}
