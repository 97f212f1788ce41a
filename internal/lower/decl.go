package lower

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/ir"
)

// lowerDecl lowers a local declaration. The storage planner has
// already assigned the frame slot; all that remains is the
// initializer, which may split the block like any other expression.
func (l *lowerer) lowerDecl(b *ir.BlockID, n *ast.Node) error {
	s := n.Sym
	if s == nil {
		return fmt.Errorf("declaration without a symbol")
	}
	if n.L == nil {
		return nil
	}

	init, err := l.lowerValue(b, n.L)
	if err != nil {
		return err
	}
	init, err = l.movable(*b, init)
	if err != nil {
		return err
	}

	size := s.DT.Size(l.arch.WordSize)
	l.f.Emit(*b, ir.Move(ir.MemOperand(l.arch.FramePtr, s.Offset, size), init))
	l.freeOperand(init)
	return nil
}

// lowerGlobalDecl lowers a top-level declaration straight into the IR
// context's data section. The front-end guarantees initializers are
// constant.
func (l *lowerer) lowerGlobalDecl(n *ast.Node) error {
	s := n.Sym
	if s == nil {
		return fmt.Errorf("lower: declaration without a symbol")
	}
	if s.Label == "" {
		l.arch.MangleSymbol(s)
	}

	g := ir.Global{
		Label: s.Label,
		Size:  s.DT.Size(l.arch.WordSize),
	}
	if n.L != nil {
		if n.L.Tag != ast.Literal {
			return fmt.Errorf("lower: global %s: initializer is not a constant", s.Name)
		}
		g.Val = n.L.Lit
		g.HasInit = true
	}

	l.ctx.AddGlobal(g)
	return nil
}
