package lower

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/ir"
	"cinder/internal/regalloc"
	"cinder/internal/sym"
	"cinder/internal/types"
)

func (l *lowerer) lowerFnImpl(n *ast.Node) error {
	s := n.Sym
	if s == nil {
		return fmt.Errorf("lower: FnImpl without a symbol")
	}
	if s.Label == "" {
		l.arch.MangleSymbol(s)
	}

	w := l.arch.WordSize
	retType := types.ReturnType(s.DT)

	// Two words are already on the stack when the body runs: the
	// return address and the saved frame pointer.
	lastOffset := 2 * w

	// Larger-than-word returns travel through a caller-allocated
	// temporary whose address is pushed just past the saved frame
	// pointer; parameters start one word later.
	if retType.Size(w) > w {
		lastOffset += w
	}

	for _, p := range s.Children {
		if p.Tag != sym.TagParam {
			break
		}
		p.Offset = lastOffset
		lastOffset += p.DT.Size(w)
	}

	// The stack grows down, so the reservation is the negation of
	// the most negative offset.
	stackSize := -assignOffsets(l.arch, s, 0)

	f := l.ctx.NewFunc(s.Label)
	l.f = f
	l.regs = regalloc.NewFile()

	entry := f.NewBlock()
	epilogue := f.NewBlock()
	f.Entry = entry
	f.Epilogue = epilogue
	f.StackSize = stackSize

	l.returnTo = epilogue
	l.breakTo = ir.NoBlockID
	l.continueTo = ir.NoBlockID

	f.Emit(entry, ir.Prologue(s.Label, stackSize))
	if err := l.lowerCode(entry, n.R, epilogue); err != nil {
		return fmt.Errorf("lower: %s: %w", s.Name, err)
	}
	f.Emit(epilogue, ir.Epilogue())
	f.Ret(epilogue)

	return nil
}
