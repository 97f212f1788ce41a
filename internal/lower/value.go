package lower

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/ir"
	"cinder/internal/token"
)

// lowerValue lowers an expression for its value. The block reference
// is mutable: short-circuit operators split the current block, and
// the updated block is written back so the caller keeps appending to
// the right place.
func (l *lowerer) lowerValue(b *ir.BlockID, n *ast.Node) (ir.Operand, error) {
	w := l.arch.WordSize

	switch n.Tag {
	case ast.Literal:
		return ir.ImmOperand(n.Lit, n.DT.Size(w)), nil

	case ast.Ident:
		return l.symbolOperand(n)

	case ast.Assign:
		src, err := l.lowerValue(b, n.R)
		if err != nil {
			return ir.Operand{}, err
		}
		src, err = l.movable(*b, src)
		if err != nil {
			return ir.Operand{}, err
		}
		dst, err := l.lowerPlace(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		l.f.Emit(*b, ir.Move(dst, src))
		l.freeOperand(dst)
		return src, nil

	case ast.BinOp:
		return l.lowerBinOp(b, n)

	case ast.UnOp:
		return l.lowerUnOp(b, n)

	case ast.Call:
		return l.lowerCall(b, n)

	case ast.Member:
		place, err := l.lowerPlace(b, n)
		if err != nil {
			return ir.Operand{}, err
		}
		return place, nil
	}

	return ir.Operand{}, fmt.Errorf("unhandled AST tag %s at value position", n.Tag)
}

// lowerVoid lowers an expression for side effects only.
func (l *lowerer) lowerVoid(b *ir.BlockID, n *ast.Node) error {
	op, err := l.lowerValue(b, n)
	if err != nil {
		return err
	}
	l.freeOperand(op)
	return nil
}

// branchOn lowers a condition and terminates the current block with a
// conditional branch to then/els. Short-circuit operators weave extra
// blocks instead of producing a value.
func (l *lowerer) branchOn(b ir.BlockID, n *ast.Node, then, els ir.BlockID) error {
	switch {
	case n.Tag == ast.BinOp && n.Op == token.AmpAmp:
		mid := l.f.NewBlock()
		if err := l.branchOn(b, n.L, mid, els); err != nil {
			return err
		}
		return l.branchOn(mid, n.R, then, els)

	case n.Tag == ast.BinOp && n.Op == token.PipePipe:
		mid := l.f.NewBlock()
		if err := l.branchOn(b, n.L, then, mid); err != nil {
			return err
		}
		return l.branchOn(mid, n.R, then, els)

	case n.Tag == ast.UnOp && n.Op == token.Bang:
		return l.branchOn(b, n.L, els, then)
	}

	cond, err := l.lowerValue(&b, n)
	if err != nil {
		return err
	}
	l.f.BranchOn(b, cond, then, els)
	l.freeOperand(cond)
	return nil
}

// lowerPlace lowers an expression to an assignable memory operand.
func (l *lowerer) lowerPlace(b *ir.BlockID, n *ast.Node) (ir.Operand, error) {
	w := l.arch.WordSize

	switch {
	case n.Tag == ast.Ident:
		return l.symbolOperand(n)

	case n.Tag == ast.UnOp && n.Op == token.Star:
		ptr, err := l.lowerValue(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		ptr, err = l.intoReg(*b, ptr, w)
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.MemOperand(ptr.Reg, 0, n.DT.Size(w)), nil

	case n.Tag == ast.Member:
		base, err := l.lowerPlace(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		field, ok := n.L.DT.FieldByName(n.Name)
		if !ok {
			return ir.Operand{}, fmt.Errorf("no field %q on %s", n.Name, n.L.DT)
		}
		base.Off += field.Offset
		base.Width = field.Type.Size(w)
		return base, nil
	}

	return ir.Operand{}, fmt.Errorf("expression %s is not assignable", n.Tag)
}

func (l *lowerer) lowerBinOp(b *ir.BlockID, n *ast.Node) (ir.Operand, error) {
	w := l.arch.WordSize

	switch n.Op {
	case token.AmpAmp, token.PipePipe:
		return l.lowerShortCircuit(b, n)
	}

	lhs, err := l.lowerValue(b, n.L)
	if err != nil {
		return ir.Operand{}, err
	}
	lhs, err = l.intoReg(*b, lhs, n.L.DT.Size(w))
	if err != nil {
		return ir.Operand{}, err
	}
	rhs, err := l.lowerValue(b, n.R)
	if err != nil {
		return ir.Operand{}, err
	}
	// Division has no immediate form.
	if n.Op == token.Slash && rhs.Kind == ir.OperandImm {
		rhs, err = l.intoReg(*b, rhs, rhs.Width)
		if err != nil {
			return ir.Operand{}, err
		}
	}

	switch n.Op {
	case token.Plus:
		l.f.Emit(*b, ir.Arith(ir.OpAdd, lhs, rhs))
	case token.Minus:
		l.f.Emit(*b, ir.Arith(ir.OpSub, lhs, rhs))
	case token.Star:
		l.f.Emit(*b, ir.Arith(ir.OpMul, lhs, rhs))
	case token.Slash:
		l.f.Emit(*b, ir.Arith(ir.OpDiv, lhs, rhs))
	case token.EqEq:
		l.f.Emit(*b, ir.Compare(ir.CmpEq, lhs, rhs))
	case token.BangEq:
		l.f.Emit(*b, ir.Compare(ir.CmpNe, lhs, rhs))
	case token.Lt:
		l.f.Emit(*b, ir.Compare(ir.CmpLt, lhs, rhs))
	case token.LtEq:
		l.f.Emit(*b, ir.Compare(ir.CmpLe, lhs, rhs))
	case token.Gt:
		l.f.Emit(*b, ir.Compare(ir.CmpGt, lhs, rhs))
	case token.GtEq:
		l.f.Emit(*b, ir.Compare(ir.CmpGe, lhs, rhs))
	default:
		return ir.Operand{}, fmt.Errorf("unhandled binary operator %s", n.Op)
	}

	l.freeOperand(rhs)
	return lhs, nil
}

// lowerShortCircuit produces the 0/1 value of a logical operator by
// branching through fresh blocks and rejoining. This is the one value
// form that always splits the current block.
func (l *lowerer) lowerShortCircuit(b *ir.BlockID, n *ast.Node) (ir.Operand, error) {
	w := l.arch.WordSize
	res, err := l.regs.Alloc(n.DT.Size(w))
	if err != nil {
		return ir.Operand{}, fmt.Errorf("%s: %w", n.Op, err)
	}
	resOp := ir.RegOperand(res.ID, res.Width)

	onTrue := l.f.NewBlock()
	onFalse := l.f.NewBlock()
	join := l.f.NewBlock()

	if err := l.branchOn(*b, n, onTrue, onFalse); err != nil {
		return ir.Operand{}, err
	}

	l.f.Emit(onTrue, ir.Move(resOp, ir.ImmOperand(1, res.Width)))
	l.f.Jump(onTrue, join)
	l.f.Emit(onFalse, ir.Move(resOp, ir.ImmOperand(0, res.Width)))
	l.f.Jump(onFalse, join)

	*b = join
	return resOp, nil
}

func (l *lowerer) lowerUnOp(b *ir.BlockID, n *ast.Node) (ir.Operand, error) {
	w := l.arch.WordSize

	switch n.Op {
	case token.Minus:
		op, err := l.lowerValue(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		op, err = l.intoReg(*b, op, n.DT.Size(w))
		if err != nil {
			return ir.Operand{}, err
		}
		l.f.Emit(*b, ir.Unary(ir.OpNeg, op))
		return op, nil

	case token.Bang:
		op, err := l.lowerValue(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		op, err = l.intoReg(*b, op, n.L.DT.Size(w))
		if err != nil {
			return ir.Operand{}, err
		}
		l.f.Emit(*b, ir.Compare(ir.CmpEq, op, ir.ImmOperand(0, op.Width)))
		return op, nil

	case token.Star:
		ptr, err := l.lowerValue(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		ptr, err = l.intoReg(*b, ptr, w)
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.MemOperand(ptr.Reg, 0, n.DT.Size(w)), nil

	case token.Amp:
		place, err := l.lowerPlace(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		r, err := l.regs.Alloc(w)
		if err != nil {
			return ir.Operand{}, fmt.Errorf("address-of: %w", err)
		}
		addr := ir.RegOperand(r.ID, w)
		l.f.Emit(*b, ir.Lea(addr, place))
		l.freeOperand(place)
		return addr, nil

	case token.PlusPlus, token.MinusMinus:
		// Postfix: the value before the update is the result.
		place, err := l.lowerPlace(b, n.L)
		if err != nil {
			return ir.Operand{}, err
		}
		r, err := l.regs.Alloc(place.Width)
		if err != nil {
			return ir.Operand{}, fmt.Errorf("%s: %w", n.Op, err)
		}
		old := ir.RegOperand(r.ID, place.Width)
		l.f.Emit(*b, ir.Move(old, place))
		op := ir.OpAdd
		if n.Op == token.MinusMinus {
			op = ir.OpSub
		}
		l.f.Emit(*b, ir.Arith(op, place, ir.ImmOperand(1, place.Width)))
		l.freeOperand(place)
		return old, nil
	}

	return ir.Operand{}, fmt.Errorf("unhandled unary operator %s", n.Op)
}

// lowerCall pushes the arguments right to left, emits the call, and
// claims the return register for the result.
func (l *lowerer) lowerCall(b *ir.BlockID, n *ast.Node) (ir.Operand, error) {
	w := l.arch.WordSize

	callee := n.L
	if callee == nil || callee.Tag != ast.Ident || callee.Sym == nil {
		return ir.Operand{}, fmt.Errorf("call target is not a function name")
	}
	if callee.Sym.Label == "" {
		l.arch.MangleSymbol(callee.Sym)
	}

	var args []*ast.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		args = append(args, c)
	}

	argBytes := 0
	for i := len(args) - 1; i >= 0; i-- {
		op, err := l.lowerValue(b, args[i])
		if err != nil {
			return ir.Operand{}, err
		}
		// Arguments occupy whole stack slots, so memory operands are
		// widened through a register.
		if op.Kind == ir.OperandMem || op.Kind == ir.OperandLabelMem {
			op, err = l.intoReg(*b, op, w)
			if err != nil {
				return ir.Operand{}, err
			}
		}
		l.f.Emit(*b, ir.Push(op))
		l.freeOperand(op)
		argBytes += w
	}

	l.f.Emit(*b, ir.Call(callee.Sym.Label, argBytes))

	size := n.DT.Size(w)
	if size == 0 {
		return ir.Operand{}, nil
	}
	if r, ok := l.regs.Request(l.arch.RetReg, size); ok {
		return ir.RegOperand(r.ID, size), nil
	}
	r, err := l.regs.Alloc(size)
	if err != nil {
		return ir.Operand{}, fmt.Errorf("call result: %w", err)
	}
	res := ir.RegOperand(r.ID, size)
	l.f.Emit(*b, ir.Move(res, ir.RegOperand(l.arch.RetReg, size)))
	return res, nil
}

// symbolOperand resolves an identifier to its storage: a data-section
// label for globals, a frame slot for locals and parameters.
func (l *lowerer) symbolOperand(n *ast.Node) (ir.Operand, error) {
	s := n.Sym
	if s == nil {
		return ir.Operand{}, fmt.Errorf("identifier %q has no symbol", n.Name)
	}
	size := s.DT.Size(l.arch.WordSize)
	if s.Label != "" {
		return ir.LabelMemOperand(s.Label, size), nil
	}
	return ir.MemOperand(l.arch.FramePtr, s.Offset, size), nil
}

// intoReg ensures an operand lives in a scratch register.
func (l *lowerer) intoReg(b ir.BlockID, op ir.Operand, width int) (ir.Operand, error) {
	if op.Kind == ir.OperandReg {
		return op, nil
	}
	r, err := l.regs.Alloc(width)
	if err != nil {
		return ir.Operand{}, fmt.Errorf("loading operand: %w", err)
	}
	reg := ir.RegOperand(r.ID, width)
	l.f.Emit(b, ir.Move(reg, op))
	l.freeOperand(op)
	return reg, nil
}

// movable rewrites memory-to-memory transfers through a scratch
// register; registers and immediates pass through.
func (l *lowerer) movable(b ir.BlockID, op ir.Operand) (ir.Operand, error) {
	switch op.Kind {
	case ir.OperandMem, ir.OperandLabelMem:
		return l.intoReg(b, op, op.Width)
	}
	return op, nil
}
