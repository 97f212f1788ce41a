// Package sema resolves names, attaches types to expressions and
// builds the symbol tree the lowering core consumes.
//
// The pass enforces the front-end half of the lowering contract:
// break/continue only inside loops, returns matching the function
// type, constant global initializers, declare-before-use.
package sema

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/source"
	"cinder/internal/sym"
	"cinder/internal/token"
	"cinder/internal/types"
)

// Result carries the module scope symbol out of the analysis.
type Result struct {
	Module *sym.Symbol
}

// Analyze checks one module tree. Symbols exported by modules pulled
// in through using are made visible via imports.
func Analyze(tree *ast.Node, imports []*sym.Symbol, reporter diag.Reporter) *Result {
	c := &checker{
		reporter: reporter,
		imports:  imports,
	}
	module := sym.New(sym.TagScope, "")
	c.scopes = []*sym.Symbol{module}
	c.module(tree)
	return &Result{Module: module}
}

type checker struct {
	reporter diag.Reporter
	imports  []*sym.Symbol

	scopes    []*sym.Symbol
	loopDepth int
	fnRet     *types.Type
}

func (c *checker) module(n *ast.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Tag {
		case ast.Using, ast.Empty:

		case ast.Decl:
			c.globalDecl(child)

		case ast.FnImpl:
			c.fnImpl(child)

		default:
			c.errorf(diag.UnknownCode, child.Span, "unexpected %s at module level", child.Tag)
		}
	}
}

func (c *checker) globalDecl(n *ast.Node) {
	s := c.define(sym.TagId, n)
	n.Sym = s
	if n.L == nil {
		return
	}
	if n.L.Tag != ast.Literal {
		c.errorf(diag.CodeTypeMismatch, n.L.Span, "global initializer must be a constant")
		return
	}
	c.expr(n.L)
}

func (c *checker) fnImpl(n *ast.Node) {
	s := c.define(sym.TagId, n)
	n.Sym = s

	prevRet := c.fnRet
	c.fnRet = types.ReturnType(n.DT)

	// Parameters are the leading children of the function symbol;
	// the storage planner relies on that ordering.
	c.scopes = append(c.scopes, s)
	for p := n.FirstChild; p != nil; p = p.NextSibling {
		ps := sym.New(sym.TagParam, p.Name)
		ps.DT = p.DT
		ps.Span = p.Span
		if s.Find(p.Name) != nil {
			c.errorf(diag.CodeRedefinedName, p.Span, "parameter %s redefined", p.Name)
		}
		s.AddChild(ps)
		p.Sym = ps
	}

	c.code(n.R)

	c.scopes = c.scopes[:len(c.scopes)-1]
	c.fnRet = prevRet
}

// code walks a compound statement in a fresh lexical scope.
func (c *checker) code(n *ast.Node) {
	scope := sym.New(sym.TagScope, "")
	c.top().AddChild(scope)
	c.scopes = append(c.scopes, scope)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.stmt(child)
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *checker) stmt(n *ast.Node) {
	switch {
	case n.Tag == ast.Code:
		c.code(n)

	case n.Tag == ast.Decl:
		c.localDecl(n)

	case n.Tag == ast.Branch:
		c.condition(n.FirstChild)
		c.code(n.L)
		c.code(n.R)

	case n.Tag == ast.Loop:
		isDo := n.L.Tag == ast.Code
		cond, code := n.L, n.R
		if isDo {
			cond, code = n.R, n.L
		}
		c.condition(cond)
		c.loopDepth++
		c.code(code)
		c.loopDepth--

	case n.Tag == ast.Iter:
		// The induction variable lives in a scope wrapping the body.
		scope := sym.New(sym.TagScope, "")
		c.top().AddChild(scope)
		c.scopes = append(c.scopes, scope)

		init := n.FirstChild
		cond := init.NextSibling
		iter := cond.NextSibling
		switch {
		case init.Tag == ast.Decl:
			c.localDecl(init)
		case ast.IsValueTag(init.Tag):
			c.expr(init)
		}
		c.condition(cond)
		if ast.IsValueTag(iter.Tag) {
			c.expr(iter)
		}

		c.loopDepth++
		c.code(n.L)
		c.loopDepth--

		c.scopes = c.scopes[:len(c.scopes)-1]

	case n.Tag == ast.Return:
		c.ret(n)

	case n.Tag == ast.Break:
		if c.loopDepth == 0 {
			c.errorf(diag.CodeBreakOutsideLoop, n.Span, "break outside of a loop")
		}

	case n.Tag == ast.Continue:
		if c.loopDepth == 0 {
			c.errorf(diag.CodeBreakOutsideLoop, n.Span, "continue outside of a loop")
		}

	case n.Tag == ast.Empty:

	case ast.IsValueTag(n.Tag):
		c.expr(n)

	default:
		c.errorf(diag.UnknownCode, n.Span, "unexpected %s at statement level", n.Tag)
	}
}

func (c *checker) localDecl(n *ast.Node) {
	s := c.define(sym.TagId, n)
	n.Sym = s
	if n.L != nil {
		it := c.expr(n.L)
		if !types.Equal(it, n.DT) {
			c.errorf(diag.CodeTypeMismatch, n.L.Span,
				"cannot initialize %s with %s", n.DT, it)
		}
	}
}

func (c *checker) ret(n *ast.Node) {
	if c.fnRet == nil {
		c.errorf(diag.CodeReturnOutsideFn, n.Span, "return outside of a function")
		return
	}
	if c.fnRet.IsVoid() {
		if n.R != nil {
			c.errorf(diag.CodeTypeMismatch, n.R.Span, "void function returns a value")
			c.expr(n.R)
		}
		return
	}
	if n.R == nil {
		c.errorf(diag.CodeTypeMismatch, n.Span, "function must return %s", c.fnRet)
		return
	}
	rt := c.expr(n.R)
	if !types.Equal(rt, c.fnRet) {
		c.errorf(diag.CodeTypeMismatch, n.R.Span, "cannot return %s from a %s function", rt, c.fnRet)
	}
}

func (c *checker) condition(n *ast.Node) {
	t := c.expr(n)
	if !t.Scalar() {
		c.errorf(diag.CodeTypeMismatch, n.Span, "condition of type %s is not scalar", t)
	}
}

func (c *checker) expr(n *ast.Node) *types.Type {
	switch n.Tag {
	case ast.Literal:
		return n.DT

	case ast.Ident:
		s := c.lookup(n.Name)
		if s == nil {
			c.errorf(diag.CodeUndefinedName, n.Span, "undefined name %s", n.Name)
			n.DT = types.Int
			return n.DT
		}
		n.Sym = s
		n.DT = s.DT
		return n.DT

	case ast.Assign:
		lt := c.expr(n.L)
		c.place(n.L)
		rt := c.expr(n.R)
		if !types.Equal(lt, rt) {
			c.errorf(diag.CodeTypeMismatch, n.Span, "cannot assign %s to %s", rt, lt)
		}
		n.DT = lt
		return n.DT

	case ast.BinOp:
		return c.binOp(n)

	case ast.UnOp:
		return c.unOp(n)

	case ast.Call:
		return c.call(n)

	case ast.Member:
		bt := c.expr(n.L)
		if bt == nil || bt.Kind != types.KindStruct {
			c.errorf(diag.CodeNoSuchField, n.Span, "%s has no fields", bt)
			n.DT = types.Int
			return n.DT
		}
		field, ok := bt.FieldByName(n.Name)
		if !ok {
			c.errorf(diag.CodeNoSuchField, n.Span, "no field %s on %s", n.Name, bt)
			n.DT = types.Int
			return n.DT
		}
		n.DT = field.Type
		return n.DT
	}

	c.errorf(diag.UnknownCode, n.Span, "unexpected %s in an expression", n.Tag)
	n.DT = types.Int
	return n.DT
}

func (c *checker) binOp(n *ast.Node) *types.Type {
	lt := c.expr(n.L)
	rt := c.expr(n.R)

	switch n.Op {
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		if !lt.Scalar() || !rt.Scalar() {
			c.errorf(diag.CodeTypeMismatch, n.Span, "cannot compare %s and %s", lt, rt)
		}
		n.DT = types.Bool

	case token.AmpAmp, token.PipePipe:
		if !lt.Scalar() || !rt.Scalar() {
			c.errorf(diag.CodeTypeMismatch, n.Span, "logical operands must be scalar")
		}
		n.DT = types.Bool

	default:
		if !lt.Scalar() || !rt.Scalar() || !types.Equal(lt, rt) {
			c.errorf(diag.CodeTypeMismatch, n.Span,
				"invalid operands %s and %s to %s", lt, rt, n.Op)
		}
		n.DT = lt
	}
	return n.DT
}

func (c *checker) unOp(n *ast.Node) *types.Type {
	ot := c.expr(n.L)

	switch n.Op {
	case token.Minus:
		if !ot.Scalar() {
			c.errorf(diag.CodeTypeMismatch, n.Span, "cannot negate %s", ot)
		}
		n.DT = ot

	case token.Bang:
		if !ot.Scalar() {
			c.errorf(diag.CodeTypeMismatch, n.Span, "cannot negate %s", ot)
		}
		n.DT = types.Bool

	case token.Star:
		if ot == nil || ot.Kind != types.KindPtr {
			c.errorf(diag.CodeTypeMismatch, n.Span, "cannot dereference %s", ot)
			n.DT = types.Int
		} else {
			n.DT = ot.Elem
		}

	case token.Amp:
		c.place(n.L)
		n.DT = types.PointerTo(ot)

	case token.PlusPlus, token.MinusMinus:
		c.place(n.L)
		if !ot.Scalar() {
			c.errorf(diag.CodeTypeMismatch, n.Span, "cannot increment %s", ot)
		}
		n.DT = ot

	default:
		n.DT = ot
	}
	return n.DT
}

func (c *checker) call(n *ast.Node) *types.Type {
	ft := c.expr(n.L)
	if ft == nil || ft.Kind != types.KindFn {
		c.errorf(diag.CodeNotCallable, n.Span, "%s is not callable", ft)
		n.DT = types.Int
		return n.DT
	}

	argc := n.ChildCount()
	if argc != len(ft.Params) {
		c.errorf(diag.CodeTypeMismatch, n.Span,
			"call takes %d arguments, got %d", len(ft.Params), argc)
	}
	i := 0
	for a := n.FirstChild; a != nil; a = a.NextSibling {
		at := c.expr(a)
		if i < len(ft.Params) && !types.Equal(at, ft.Params[i]) {
			c.errorf(diag.CodeTypeMismatch, a.Span,
				"argument %d: cannot pass %s as %s", i+1, at, ft.Params[i])
		}
		i++
	}

	n.DT = ft.Ret
	return n.DT
}

// place checks that an expression denotes assignable storage.
func (c *checker) place(n *ast.Node) {
	switch {
	case n.Tag == ast.Ident:
	case n.Tag == ast.Member:
	case n.Tag == ast.UnOp && n.Op == token.Star:
	default:
		c.errorf(diag.CodeNotAssignable, n.Span, "expression is not assignable")
	}
}

func (c *checker) define(tag sym.Tag, n *ast.Node) *sym.Symbol {
	scope := c.top()
	if scope.Find(n.Name) != nil {
		c.errorf(diag.CodeRedefinedName, n.Span, "%s redefined", n.Name)
	}
	s := sym.New(tag, n.Name)
	s.DT = n.DT
	s.Span = n.Span
	scope.AddChild(s)
	return s
}

func (c *checker) lookup(name string) *sym.Symbol {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if s := c.scopes[i].Find(name); s != nil && s.Tag != sym.TagScope {
			return s
		}
	}
	for _, imp := range c.imports {
		if s := imp.Find(name); s != nil && s.Tag != sym.TagScope {
			return s
		}
	}
	return nil
}

func (c *checker) top() *sym.Symbol {
	return c.scopes[len(c.scopes)-1]
}

func (c *checker) errorf(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportError(c.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}
