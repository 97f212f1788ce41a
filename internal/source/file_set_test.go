package source

import "testing"

func TestPositionAndLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Add("a.cn", []byte("one\ntwo\n\nfour"))

	cases := []struct {
		offset uint32
		line   int
		col    int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 1},
		{8, 3, 1},
		{9, 4, 1},
		{12, 4, 4},
	}
	for _, c := range cases {
		line, col := f.Position(c.offset)
		if line != c.line || col != c.col {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", c.offset, line, col, c.line, c.col)
		}
	}

	lines := []string{"one", "two", "", "four"}
	for i, want := range lines {
		if got := f.Line(i + 1); got != want {
			t.Errorf("Line(%d) = %q, want %q", i+1, got, want)
		}
	}
}

func TestFileIDs(t *testing.T) {
	fs := NewFileSet()
	a := fs.Add("a.cn", nil)
	b := fs.Add("b.cn", nil)

	if a.ID == NoFileID || b.ID == NoFileID || a.ID == b.ID {
		t.Fatalf("file ids not distinct: %d, %d", a.ID, b.ID)
	}
	if fs.Get(a.ID) != a || fs.Get(b.ID) != b {
		t.Error("Get does not round-trip")
	}
	if fs.Get(NoFileID) != nil || fs.Get(99) != nil {
		t.Error("Get resolves nonexistent ids")
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 8 {
		t.Errorf("Cover = %v", got)
	}

	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Error("Cover across files must be a no-op")
	}
}
