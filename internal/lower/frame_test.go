package lower_test

import (
	"testing"

	"cinder/internal/ast"
	"cinder/internal/ir"
	"cinder/internal/sym"
)

func fnSymbol(t *testing.T, tree *ast.Node) *sym.Symbol {
	t.Helper()
	for c := tree.FirstChild; c != nil; c = c.NextSibling {
		if c.Tag == ast.FnImpl {
			return c.Sym
		}
	}
	t.Fatal("no FnImpl in the tree")
	return nil
}

func collectIds(s *sym.Symbol, out *[]*sym.Symbol) {
	for _, c := range s.Children {
		switch c.Tag {
		case sym.TagScope:
			collectIds(c, out)
		case sym.TagId:
			*out = append(*out, c)
		}
	}
}

func TestFrame_OffsetsSignedAndDisjoint(t *testing.T) {
	tree, _ := lowerSource(t, `
		void f(int a, char b) {
			int x;
			{
				int y;
				char z;
			}
			int w;
			x = a;
		}`)

	fn := fnSymbol(t, tree)

	var params []*sym.Symbol
	for _, c := range fn.Children {
		if c.Tag == sym.TagParam {
			params = append(params, c)
		}
	}
	if len(params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(params))
	}
	for _, p := range params {
		if p.Offset < 16 {
			t.Errorf("parameter %s at offset %d, want >= 2 words", p.Name, p.Offset)
		}
	}
	if params[0].Offset != 16 || params[1].Offset != 24 {
		t.Errorf("parameter offsets (%d, %d), want (16, 24)",
			params[0].Offset, params[1].Offset)
	}

	var ids []*sym.Symbol
	collectIds(fn, &ids)
	if len(ids) != 4 {
		t.Fatalf("expected 4 locals, got %d", len(ids))
	}

	type interval struct{ lo, hi int }
	var used []interval
	for _, id := range ids {
		if id.Offset >= 0 {
			t.Errorf("local %s at offset %d, want negative", id.Name, id.Offset)
		}
		size := id.DT.Size(8)
		iv := interval{id.Offset, id.Offset + size}
		for _, prev := range used {
			if iv.lo < prev.hi && prev.lo < iv.hi {
				t.Errorf("local %s overlaps [%d,%d) with [%d,%d)",
					id.Name, iv.lo, iv.hi, prev.lo, prev.hi)
			}
		}
		used = append(used, iv)
	}

	// Declaration order: x, y, z, w walking scopes depth-first.
	wantOffsets := []int{-8, -16, -17, -25}
	for i, id := range ids {
		if id.Offset != wantOffsets[i] {
			t.Errorf("local %s at offset %d, want %d", id.Name, id.Offset, wantOffsets[i])
		}
	}
}

func TestFrame_StackReservationCoversLocals(t *testing.T) {
	_, ctx := lowerSource(t, `
		void f() {
			int a;
			int b;
			char c;
		}`)

	f := ctx.Funcs[0]
	if f.StackSize != 17 {
		t.Errorf("stack size = %d, want 17", f.StackSize)
	}
	entry := f.Block(f.Entry)
	if entry.Instrs[0].Kind != ir.InstrPrologue || entry.Instrs[0].Size != 17 {
		t.Errorf("prologue reserves %d bytes, want 17", entry.Instrs[0].Size)
	}
}
