package lower

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/ir"
)

// lowerCode lowers a compound statement, threading the continuation
// block through its children in sibling order. The continuation is
// created by the caller and is the compound's single exit point.
func (l *lowerer) lowerCode(b ir.BlockID, n *ast.Node, continuation ir.BlockID) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nb, err := l.lowerLine(b, c)
		if err != nil {
			return err
		}
		b = nb
	}
	l.f.Jump(b, continuation)
	return nil
}

// lowerLine lowers one statement into the open block and returns the
// continuation block the next sibling must be appended to. The input
// block may no longer be open afterwards; callers must use only the
// returned block.
//
// Return, break and continue hand back a fresh empty block so that
// syntactically dead code after them still has a well-formed place to
// be lowered. Those blocks may end up unreachable; the simplify pass
// drops them.
func (l *lowerer) lowerLine(b ir.BlockID, n *ast.Node) (ir.BlockID, error) {
	switch {
	case n.Tag == ast.Branch:
		return l.lowerBranch(b, n)

	case n.Tag == ast.Loop:
		return l.lowerLoop(b, n)

	case n.Tag == ast.Iter:
		return l.lowerIter(b, n)

	case n.Tag == ast.Code:
		continuation := l.f.NewBlock()
		if err := l.lowerCode(b, n, continuation); err != nil {
			return ir.NoBlockID, err
		}
		return continuation, nil

	case n.Tag == ast.Return:
		if err := l.lowerReturn(b, n); err != nil {
			return ir.NoBlockID, err
		}
		return l.f.NewBlock(), nil

	case n.Tag == ast.Break:
		if l.breakTo == ir.NoBlockID {
			return ir.NoBlockID, fmt.Errorf("break outside of a loop")
		}
		l.f.Jump(b, l.breakTo)
		return l.f.NewBlock(), nil

	case n.Tag == ast.Continue:
		if l.continueTo == ir.NoBlockID {
			return ir.NoBlockID, fmt.Errorf("continue outside of a loop")
		}
		l.f.Jump(b, l.continueTo)
		return l.f.NewBlock(), nil

	case n.Tag == ast.Decl:
		if err := l.lowerDecl(&b, n); err != nil {
			return ir.NoBlockID, err
		}
		return b, nil

	case ast.IsValueTag(n.Tag):
		if err := l.lowerVoid(&b, n); err != nil {
			return ir.NoBlockID, err
		}
		return b, nil

	case n.Tag == ast.Empty:
		return b, nil

	default:
		return ir.NoBlockID, fmt.Errorf("unhandled AST tag %s at statement position", n.Tag)
	}
}

// lowerBranch lowers if/else. The else arm is always present in the
// AST, as an empty Code when the source had none.
func (l *lowerer) lowerBranch(b ir.BlockID, n *ast.Node) (ir.BlockID, error) {
	continuation := l.f.NewBlock()
	ifTrue := l.f.NewBlock()
	ifFalse := l.f.NewBlock()

	if err := l.branchOn(b, n.FirstChild, ifTrue, ifFalse); err != nil {
		return ir.NoBlockID, err
	}

	if err := l.lowerCode(ifTrue, n.L, continuation); err != nil {
		return ir.NoBlockID, err
	}
	if err := l.lowerCode(ifFalse, n.R, continuation); err != nil {
		return ir.NoBlockID, err
	}

	return continuation, nil
}

// lowerLoop lowers while and do-while. The two variants share one AST
// tag; the slot order tells them apart.
//
// The condition is lowered twice, once into the entry block and once
// into loopCheck: each lowering terminates its input block with a
// conditional branch, and there is no CSE obligation at this layer.
// Splitting the initial test from the re-entrant test lets continue
// land on the re-test for both variants.
func (l *lowerer) lowerLoop(b ir.BlockID, n *ast.Node) (ir.BlockID, error) {
	continuation := l.f.NewBlock()
	body := l.f.NewBlock()
	loopCheck := l.f.NewBlock()

	isDo := n.L.Tag == ast.Code
	cond, code := n.L, n.R
	if isDo {
		cond, code = n.R, n.L
	}

	if isDo {
		l.f.Jump(b, body)
	} else {
		if err := l.branchOn(b, cond, body, continuation); err != nil {
			return ir.NoBlockID, err
		}
	}

	oldBreakTo := l.setBreakTo(continuation)
	oldContinueTo := l.setContinueTo(loopCheck)

	err := l.lowerCode(body, code, loopCheck)

	l.breakTo = oldBreakTo
	l.continueTo = oldContinueTo
	if err != nil {
		return ir.NoBlockID, err
	}

	if err := l.branchOn(loopCheck, cond, body, continuation); err != nil {
		return ir.NoBlockID, err
	}

	return continuation, nil
}

// lowerIter lowers a C-style for. The header parts are the node's
// first three children; the body hangs off L.
func (l *lowerer) lowerIter(b ir.BlockID, n *ast.Node) (ir.BlockID, error) {
	continuation := l.f.NewBlock()
	body := l.f.NewBlock()
	iterate := l.f.NewBlock()

	init := n.FirstChild
	cond := init.NextSibling
	iter := cond.NextSibling
	code := n.L

	switch {
	case init.Tag == ast.Decl:
		if err := l.lowerDecl(&b, init); err != nil {
			return ir.NoBlockID, err
		}
	case ast.IsValueTag(init.Tag):
		if err := l.lowerVoid(&b, init); err != nil {
			return ir.NoBlockID, err
		}
	}

	if err := l.branchOn(b, cond, body, continuation); err != nil {
		return ir.NoBlockID, err
	}

	oldBreakTo := l.setBreakTo(continuation)
	oldContinueTo := l.setContinueTo(iterate)

	err := l.lowerCode(body, code, iterate)

	l.breakTo = oldBreakTo
	l.continueTo = oldContinueTo
	if err != nil {
		return ir.NoBlockID, err
	}

	if ast.IsValueTag(iter.Tag) {
		if err := l.lowerVoid(&iterate, iter); err != nil {
			return ir.NoBlockID, err
		}
	}
	if err := l.branchOn(iterate, cond, body, continuation); err != nil {
		return ir.NoBlockID, err
	}

	return continuation, nil
}

// lowerReturn materializes the return value per the calling
// convention and jumps to the epilogue.
//
// Scalar values go straight into the return register. Values larger
// than a word are copied into the caller-allocated temporary whose
// address sits just past the saved frame pointer; the same address is
// then handed back in the return register.
func (l *lowerer) lowerReturn(b ir.BlockID, n *ast.Node) error {
	if n.R != nil {
		ret, err := l.lowerValue(&b, n.R)
		if err != nil {
			return err
		}

		w := l.arch.WordSize
		retSize := n.R.DT.Size(w)
		retInTemp := retSize > w

		if retInTemp {
			tmp, err := l.regs.Alloc(w)
			if err != nil {
				return fmt.Errorf("return: %w", err)
			}
			tmpRef := ir.RegOperand(tmp.ID, w)

			l.f.Emit(b, ir.Move(tmpRef, ir.MemOperand(l.arch.FramePtr, 2*w, w)))
			l.f.Emit(b, ir.Copy(ir.MemOperand(tmp.ID, 0, retSize), ret, retSize))
			l.freeOperand(ret)

			ret = tmpRef
		}

		width := retSize
		if retInTemp {
			width = w
		}
		if r, ok := l.regs.Request(l.arch.RetReg, width); ok {
			l.f.Emit(b, ir.Move(ir.RegOperand(r.ID, width), ret))
			l.regs.Free(r.ID)
		} else if !ret.IsReg(l.arch.RetReg) {
			return fmt.Errorf("return: unable to allocate the return register")
		}

		l.freeOperand(ret)
	}

	l.f.Jump(b, l.returnTo)
	return nil
}
