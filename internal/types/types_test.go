package types

import "testing"

func TestSize_Builtins(t *testing.T) {
	cases := []struct {
		t    *Type
		word int
		want int
	}{
		{Void, 8, 0},
		{Bool, 8, 1},
		{Char, 8, 1},
		{Int, 8, 8},
		{Int, 4, 4},
		{PointerTo(Char), 8, 8},
		{PointerTo(Char), 4, 4},
	}
	for _, c := range cases {
		if got := c.t.Size(c.word); got != c.want {
			t.Errorf("%s.Size(%d) = %d, want %d", c.t, c.word, got, c.want)
		}
	}
}

func TestStruct_LayoutAndSize(t *testing.T) {
	s := NewStruct("point", []Field{
		{Name: "x", Type: Int},
		{Name: "tag", Type: Char},
		{Name: "y", Type: Int},
	}, 8)

	if got := s.Size(8); got != 17 {
		t.Errorf("size = %d, want 17", got)
	}

	wantOffsets := map[string]int{"x": 0, "tag": 8, "y": 9}
	for name, want := range wantOffsets {
		f, ok := s.FieldByName(name)
		if !ok {
			t.Fatalf("field %s missing", name)
		}
		if f.Offset != want {
			t.Errorf("field %s at offset %d, want %d", name, f.Offset, want)
		}
	}

	if _, ok := s.FieldByName("z"); ok {
		t.Error("phantom field resolved")
	}
}

func TestEqual(t *testing.T) {
	a := NewStruct("a", nil, 8)
	b := NewStruct("b", nil, 8)
	cases := []struct {
		l, r *Type
		want bool
	}{
		{Int, Int, true},
		{Int, Char, false},
		{PointerTo(Int), PointerTo(Int), true},
		{PointerTo(Int), PointerTo(Char), false},
		{a, a, true},
		{a, b, false},
		{NewFn(Int, []*Type{Char}), NewFn(Int, []*Type{Char}), true},
		{NewFn(Int, []*Type{Char}), NewFn(Int, []*Type{Int}), false},
		{NewFn(Int, nil), NewFn(Void, nil), false},
	}
	for _, c := range cases {
		if got := Equal(c.l, c.r); got != c.want {
			t.Errorf("Equal(%s, %s) = %v, want %v", c.l, c.r, got, c.want)
		}
	}
}

func TestReturnType(t *testing.T) {
	fn := NewFn(Char, []*Type{Int})
	if got := ReturnType(fn); got != Char {
		t.Errorf("ReturnType = %s, want char", got)
	}
	if got := ReturnType(Int); got != nil {
		t.Errorf("ReturnType of a non-function = %s, want nil", got)
	}
}
