package parser

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/token"
	"cinder/internal/types"
)

// parseBlock parses `{ stmt* }` into a Code node.
func (p *Parser) parseBlock() *ast.Node {
	n := ast.New(ast.Code, p.tok.Span)
	p.expect(token.LBrace, diag.CodeUnexpectedToken, "expected {")
	for !p.tok.Is(token.RBrace) && !p.tok.Is(token.EOF) {
		n.AddChild(p.parseStmt())
	}
	p.expect(token.RBrace, diag.CodeUnclosedBrace, "expected } to close block")
	return n
}

func (p *Parser) parseStmt() *ast.Node {
	switch {
	case p.tok.Is(token.LBrace):
		return p.parseBlock()

	case p.tok.Is(token.KwIf):
		return p.parseIf()

	case p.tok.Is(token.KwWhile):
		return p.parseWhile()

	case p.tok.Is(token.KwDo):
		return p.parseDoWhile()

	case p.tok.Is(token.KwFor):
		return p.parseFor()

	case p.tok.Is(token.KwBreak):
		n := ast.New(ast.Break, p.tok.Span)
		p.advance()
		p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after break")
		return n

	case p.tok.Is(token.KwContinue):
		n := ast.New(ast.Continue, p.tok.Span)
		p.advance()
		p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after continue")
		return n

	case p.tok.Is(token.KwReturn):
		n := ast.New(ast.Return, p.tok.Span)
		p.advance()
		if !p.tok.Is(token.Semi) {
			n.R = p.parseExpr()
		}
		p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after return")
		return n

	case p.tok.Is(token.Semi):
		n := ast.New(ast.Empty, p.tok.Span)
		p.advance()
		return n

	case p.isTypeStart():
		return p.parseLocalDecl()

	default:
		n := p.parseExpr()
		p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after expression")
		return n
	}
}

func (p *Parser) parseLocalDecl() *ast.Node {
	span := p.tok.Span
	n := ast.New(ast.Decl, span)
	n.DT = p.parseType()
	if p.tok.Is(token.Ident) {
		n.Name = p.tok.Text
		p.advance()
	} else {
		p.errorf(diag.CodeUnexpectedToken, "expected a name, got %s", p.tok.Kind)
		p.sync()
		return ast.New(ast.Empty, span)
	}
	if p.tok.Is(token.Assign) {
		p.advance()
		n.L = p.parseExpr()
	}
	p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after declaration")
	return n
}

// parseIf builds a Branch node. Both arms are always Code nodes; a
// missing else becomes an empty compound so lowering never has to
// invent a fall-through edge.
func (p *Parser) parseIf() *ast.Node {
	n := ast.New(ast.Branch, p.tok.Span)
	p.advance()
	p.expect(token.LParen, diag.CodeUnexpectedToken, "expected ( after if")
	n.AddChild(p.parseExpr())
	p.expect(token.RParen, diag.CodeUnclosedParen, "expected ) after condition")

	n.L = p.stmtAsCode(p.parseStmt())
	if p.tok.Is(token.KwElse) {
		p.advance()
		n.R = p.stmtAsCode(p.parseStmt())
	} else {
		n.R = ast.New(ast.Code, n.Span)
	}
	return n
}

func (p *Parser) parseWhile() *ast.Node {
	n := ast.New(ast.Loop, p.tok.Span)
	p.advance()
	p.expect(token.LParen, diag.CodeUnexpectedToken, "expected ( after while")
	n.L = p.parseExpr()
	p.expect(token.RParen, diag.CodeUnclosedParen, "expected ) after condition")
	n.R = p.stmtAsCode(p.parseStmt())
	return n
}

func (p *Parser) parseDoWhile() *ast.Node {
	n := ast.New(ast.Loop, p.tok.Span)
	p.advance()
	n.L = p.stmtAsCode(p.parseStmt())
	p.expect(token.KwWhile, diag.CodeUnexpectedToken, "expected while after do body")
	p.expect(token.LParen, diag.CodeUnexpectedToken, "expected ( after while")
	n.R = p.parseExpr()
	p.expect(token.RParen, diag.CodeUnclosedParen, "expected ) after condition")
	p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after do-while")
	return n
}

// parseFor builds an Iter node with exactly three header children.
// Missing init/iter parts become Empty; a missing condition becomes
// the constant true.
func (p *Parser) parseFor() *ast.Node {
	n := ast.New(ast.Iter, p.tok.Span)
	p.advance()
	p.expect(token.LParen, diag.CodeUnexpectedToken, "expected ( after for")

	switch {
	case p.tok.Is(token.Semi):
		n.AddChild(ast.New(ast.Empty, p.tok.Span))
		p.advance()
	case p.isTypeStart():
		n.AddChild(p.parseLocalDecl())
	default:
		n.AddChild(p.parseExpr())
		p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after for initializer")
	}

	if p.tok.Is(token.Semi) {
		lit := ast.New(ast.Literal, p.tok.Span)
		lit.Lit = 1
		lit.DT = types.Bool
		n.AddChild(lit)
	} else {
		n.AddChild(p.parseExpr())
	}
	p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after for condition")

	if p.tok.Is(token.RParen) {
		n.AddChild(ast.New(ast.Empty, p.tok.Span))
	} else {
		n.AddChild(p.parseExpr())
	}
	p.expect(token.RParen, diag.CodeUnclosedParen, "expected ) after for header")

	n.L = p.stmtAsCode(p.parseStmt())
	return n
}

// stmtAsCode wraps a bare statement in a compound so control-flow
// arms are uniformly Code nodes.
func (p *Parser) stmtAsCode(n *ast.Node) *ast.Node {
	if n.Tag == ast.Code {
		return n
	}
	code := ast.New(ast.Code, n.Span)
	code.AddChild(n)
	return code
}
