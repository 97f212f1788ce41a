// Package lower converts the typed AST into control-flow-graph IR.
//
// Lowering is a single synchronous walk: statements append to the
// current open block and hand back the continuation block their
// successor must be appended to. Every construct that installs a new
// break/continue target saves the previous value and restores it on
// exit, so the control-flow context mirrors lexical nesting.
package lower

import (
	"fmt"

	"cinder/internal/arch"
	"cinder/internal/ast"
	"cinder/internal/ir"
	"cinder/internal/regalloc"
)

// Lower walks a module tree and populates the IR context.
// The AST must be fully resolved and typed; unknown tags at
// statement or module position are front-end contract violations and
// abort the compilation.
func Lower(tree *ast.Node, ctx *ir.Ctx, a *arch.Arch) error {
	l := &lowerer{
		ctx:        ctx,
		arch:       a,
		seen:       make(map[*ast.Node]bool),
		returnTo:   ir.NoBlockID,
		breakTo:    ir.NoBlockID,
		continueTo: ir.NoBlockID,
	}
	return l.lowerModule(tree)
}

type lowerer struct {
	ctx  *ir.Ctx
	arch *arch.Arch

	// seen guards against lowering a re-exported module twice when
	// two files pull in the same dependency.
	seen map[*ast.Node]bool

	// Per-function state, reset by lowerFnImpl.
	f    *ir.Func
	regs *regalloc.File

	// Control-flow context. returnTo is set before a function body
	// is lowered and stays fixed until lowering ends; breakTo and
	// continueTo are save/restored around every loop body.
	returnTo   ir.BlockID
	breakTo    ir.BlockID
	continueTo ir.BlockID
}

func (l *lowerer) lowerModule(n *ast.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Tag {
		case ast.Using:
			if c.R != nil && !l.seen[c.R] {
				l.seen[c.R] = true
				if err := l.lowerModule(c.R); err != nil {
					return err
				}
			}

		case ast.FnImpl:
			if err := l.lowerFnImpl(c); err != nil {
				return err
			}

		case ast.Decl:
			if err := l.lowerGlobalDecl(c); err != nil {
				return err
			}

		case ast.Empty:

		default:
			return fmt.Errorf("lower: unhandled AST tag %s at module position", c.Tag)
		}
	}
	return nil
}

func (l *lowerer) setBreakTo(b ir.BlockID) ir.BlockID {
	old := l.breakTo
	l.breakTo = b
	return old
}

func (l *lowerer) setContinueTo(b ir.BlockID) ir.BlockID {
	old := l.continueTo
	l.continueTo = b
	return old
}

// freeOperand releases the scratch register backing an operand, if
// any. The frame registers are never released.
func (l *lowerer) freeOperand(o ir.Operand) {
	if id, ok := o.InReg(); ok {
		l.regs.Free(id)
	}
}
