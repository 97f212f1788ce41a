// Package arch describes compilation targets: word size, register
// conventions and symbol mangling.
package arch

import (
	"cinder/internal/regalloc"
	"cinder/internal/sym"
)

// Arch is the target descriptor consulted throughout lowering and
// emission.
type Arch struct {
	Name     string
	WordSize int

	// RetReg receives scalar return values (and the hidden pointer
	// for larger-than-word returns).
	RetReg regalloc.RegID
	// FramePtr is the frame base register; positive offsets reach
	// parameters, negative offsets reach locals.
	FramePtr regalloc.RegID
	StackPtr regalloc.RegID

	labelPrefix string
}

// MangleSymbol assigns the symbol a non-empty label.
func (a *Arch) MangleSymbol(s *sym.Symbol) {
	if s == nil || s.Label != "" {
		return
	}
	s.Label = a.labelPrefix + s.Name
}

// AMD64 is the default 64-bit target.
func AMD64() *Arch {
	return &Arch{
		Name:        "amd64",
		WordSize:    8,
		RetReg:      regalloc.RAX,
		FramePtr:    regalloc.RBP,
		StackPtr:    regalloc.RSP,
		labelPrefix: "_",
	}
}
