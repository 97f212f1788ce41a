package lower

import (
	"cinder/internal/arch"
	"cinder/internal/sym"
)

// assignOffsets walks a scope's symbols depth-first in declaration
// order, giving every id a unique stack slot below the frame base.
// Returns the minimum offset used; its magnitude is the function's
// auto-storage requirement.
//
// A single pass suffices: every local's lifetime equals its enclosing
// function, so slots are never reused between sibling scopes.
func assignOffsets(a *arch.Arch, scope *sym.Symbol, offset int) int {
	for _, s := range scope.Children {
		switch s.Tag {
		case sym.TagScope:
			offset = assignOffsets(a, s, offset)

		case sym.TagId:
			offset -= s.DT.Size(a.WordSize)
			s.Offset = offset
		}
	}
	return offset
}
