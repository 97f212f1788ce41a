// Package types models the cinder type system.
package types

import "fmt"

type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindChar
	KindInt
	KindPtr
	KindStruct
	KindFn
)

type Field struct {
	Name   string
	Type   *Type
	Offset int
}

type Type struct {
	Kind   Kind
	Name   string
	Elem   *Type   // KindPtr
	Fields []Field // KindStruct
	Ret    *Type   // KindFn
	Params []*Type // KindFn

	structSize int
}

// Builtin singletons, shared by every use of a basic type. Equal
// matches basic types by kind.
var (
	Void = &Type{Kind: KindVoid, Name: "void"}
	Bool = &Type{Kind: KindBool, Name: "bool"}
	Char = &Type{Kind: KindChar, Name: "char"}
	Int  = &Type{Kind: KindInt, Name: "int"}
)

func PointerTo(elem *Type) *Type {
	return &Type{Kind: KindPtr, Elem: elem}
}

// NewStruct lays the fields out in declaration order with no padding
// and returns the finished type.
func NewStruct(name string, fields []Field, word int) *Type {
	t := &Type{Kind: KindStruct, Name: name}
	off := 0
	for _, f := range fields {
		f.Offset = off
		off += f.Type.Size(word)
		t.Fields = append(t.Fields, f)
	}
	t.structSize = off
	return t
}

func NewFn(ret *Type, params []*Type) *Type {
	return &Type{Kind: KindFn, Ret: ret, Params: params}
}

// Size returns the storage size in bytes for the given word size.
func (t *Type) Size(word int) int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KindVoid:
		return 0
	case KindBool, KindChar:
		return 1
	case KindInt, KindPtr, KindFn:
		return word
	case KindStruct:
		return t.structSize
	}
	return 0
}

// ReturnType returns the result type of a function type, or nil.
func ReturnType(t *Type) *Type {
	if t == nil || t.Kind != KindFn {
		return nil
	}
	return t.Ret
}

// FieldByName looks up a struct field.
func (t *Type) FieldByName(name string) (Field, bool) {
	if t == nil || t.Kind != KindStruct {
		return Field{}, false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *Type) IsVoid() bool {
	return t == nil || t.Kind == KindVoid
}

// Scalar reports whether values of t fit arithmetic and comparison
// operators.
func (t *Type) Scalar() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindBool, KindChar, KindInt, KindPtr:
		return true
	}
	return false
}

// Equal compares types structurally.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPtr:
		return Equal(a.Elem, b.Elem)
	case KindStruct:
		return a.Name == b.Name
	case KindFn:
		if !Equal(a.Ret, b.Ret) || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	}
	return true
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPtr:
		return t.Elem.String() + "*"
	case KindStruct:
		return "struct " + t.Name
	case KindFn:
		return fmt.Sprintf("fn(%d) %s", len(t.Params), t.Ret)
	}
	return t.Name
}
