// Package parser builds the syntax tree. It owns the struct-type
// table so member layout is known as soon as a type is referenced;
// name resolution and typing of expressions happen in sema.
package parser

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/lexer"
	"cinder/internal/source"
	"cinder/internal/token"
	"cinder/internal/types"
)

type Parser struct {
	lx       *lexer.Lexer
	tok      token.Token
	reporter diag.Reporter
	word     int

	structs map[string]*types.Type
}

// New readies a parser over the lexer's token stream. The word size
// fixes struct field layout.
func New(lx *lexer.Lexer, reporter diag.Reporter, word int) *Parser {
	p := &Parser{
		lx:       lx,
		reporter: reporter,
		word:     word,
		structs:  make(map[string]*types.Type),
	}
	p.advance()
	return p
}

// ParseModule parses the whole file into a Module node.
func (p *Parser) ParseModule() *ast.Node {
	mod := ast.New(ast.Module, p.tok.Span)
	for !p.tok.Is(token.EOF) {
		mod.AddChild(p.parseTopLevel())
	}
	return mod
}

func (p *Parser) parseTopLevel() *ast.Node {
	switch {
	case p.tok.Is(token.KwUsing):
		return p.parseUsing()

	case p.tok.Is(token.KwStruct):
		return p.parseStructTopLevel()

	case p.isTypeStart():
		span := p.tok.Span
		base := p.parseType()
		return p.parseDeclTail(span, base)

	case p.tok.Is(token.Semi):
		n := ast.New(ast.Empty, p.tok.Span)
		p.advance()
		return n

	default:
		p.errorf(diag.CodeUnexpectedToken, "expected a declaration, got %s", p.tok.Kind)
		n := ast.New(ast.Empty, p.tok.Span)
		p.advance()
		return n
	}
}

func (p *Parser) parseUsing() *ast.Node {
	n := ast.New(ast.Using, p.tok.Span)
	p.advance()
	if p.tok.Is(token.Ident) {
		n.Name = p.tok.Text
		p.advance()
	} else {
		p.errorf(diag.CodeUnexpectedToken, "expected a module name after using")
	}
	p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after using")
	return n
}

// parseStructTopLevel handles both `struct S { ... };` definitions
// and `struct S name ...` declarations; the token after the struct
// name decides.
func (p *Parser) parseStructTopLevel() *ast.Node {
	span := p.tok.Span
	p.advance() // struct
	name := p.tok.Text
	if !p.expect(token.Ident, diag.CodeUnexpectedToken, "expected a struct name") {
		p.sync()
		return ast.New(ast.Empty, span)
	}

	if p.tok.Is(token.LBrace) {
		return p.parseStructDef(span, name)
	}

	base := p.structRef(name)
	for p.tok.Is(token.Star) {
		base = types.PointerTo(base)
		p.advance()
	}
	return p.parseDeclTail(span, base)
}

func (p *Parser) parseStructDef(span source.Span, name string) *ast.Node {
	p.expect(token.LBrace, diag.CodeUnexpectedToken, "expected { in struct definition")

	var fields []types.Field
	for !p.tok.Is(token.RBrace) && !p.tok.Is(token.EOF) {
		ft := p.parseType()
		fname := ""
		if p.tok.Is(token.Ident) {
			fname = p.tok.Text
			p.advance()
		} else {
			p.errorf(diag.CodeUnexpectedToken, "expected a field name")
			p.sync()
			continue
		}
		p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after field")
		fields = append(fields, types.Field{Name: fname, Type: ft})
	}
	p.expect(token.RBrace, diag.CodeUnclosedBrace, "expected } to close struct")
	p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after struct definition")

	p.structs[name] = types.NewStruct(name, fields, p.word)

	// Type definitions leave no statement behind.
	return ast.New(ast.Empty, span)
}

// parseDeclTail parses `name(...) {...}` or `name [= expr];` after
// the type has been consumed.
func (p *Parser) parseDeclTail(span source.Span, base *types.Type) *ast.Node {
	name := p.tok.Text
	if !p.tok.Is(token.Ident) {
		p.errorf(diag.CodeUnexpectedToken, "expected a name, got %s", p.tok.Kind)
		p.sync()
		return ast.New(ast.Empty, span)
	}
	p.advance()

	if p.tok.Is(token.LParen) {
		return p.parseFnImpl(span, base, name)
	}

	n := ast.New(ast.Decl, span)
	n.Name = name
	n.DT = base
	if p.tok.Is(token.Assign) {
		p.advance()
		n.L = p.parseExpr()
	}
	p.expect(token.Semi, diag.CodeExpectSemicolon, "expected ; after declaration")
	return n
}

func (p *Parser) parseFnImpl(span source.Span, ret *types.Type, name string) *ast.Node {
	n := ast.New(ast.FnImpl, span)
	n.Name = name

	p.expect(token.LParen, diag.CodeUnexpectedToken, "expected (")
	var params []*types.Type
	for !p.tok.Is(token.RParen) && !p.tok.Is(token.EOF) {
		pt := p.parseType()
		param := ast.New(ast.Decl, p.tok.Span)
		param.DT = pt
		if p.tok.Is(token.Ident) {
			param.Name = p.tok.Text
			p.advance()
		} else {
			p.errorf(diag.CodeUnexpectedToken, "expected a parameter name")
		}
		n.AddChild(param)
		params = append(params, pt)
		if !p.tok.Is(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.RParen, diag.CodeUnclosedParen, "expected ) after parameters")

	n.DT = types.NewFn(ret, params)
	n.R = p.parseBlock()
	return n
}

func (p *Parser) isTypeStart() bool {
	if p.tok.Is(token.KwStruct) {
		return true
	}
	if !p.tok.Is(token.Ident) {
		return false
	}
	switch p.tok.Text {
	case "void", "bool", "char", "int":
		return true
	}
	return false
}

func (p *Parser) structRef(name string) *types.Type {
	if st, ok := p.structs[name]; ok {
		return st
	}
	p.errorf(diag.CodeUnknownType, "unknown struct %s", name)
	return types.Int
}

func (p *Parser) parseType() *types.Type {
	var t *types.Type
	switch {
	case p.tok.Is(token.KwStruct):
		p.advance()
		name := p.tok.Text
		if p.tok.Is(token.Ident) {
			p.advance()
		} else {
			p.errorf(diag.CodeUnexpectedToken, "expected a struct name")
		}
		t = p.structRef(name)

	case p.tok.Is(token.Ident):
		switch p.tok.Text {
		case "void":
			t = types.Void
		case "bool":
			t = types.Bool
		case "char":
			t = types.Char
		case "int":
			t = types.Int
		default:
			p.errorf(diag.CodeUnknownType, "unknown type %s", p.tok.Text)
			t = types.Int
		}
		p.advance()

	default:
		p.errorf(diag.CodeUnexpectedToken, "expected a type, got %s", p.tok.Kind)
		t = types.Int
	}

	for p.tok.Is(token.Star) {
		t = types.PointerTo(t)
		p.advance()
	}
	return t
}

func (p *Parser) advance() {
	p.tok = p.lx.Next()
}

func (p *Parser) expect(k token.Kind, code diag.Code, msg string) bool {
	if p.tok.Is(k) {
		p.advance()
		return true
	}
	p.errorf(code, "%s, got %s", msg, p.tok.Kind)
	return false
}

// sync skips ahead to a statement boundary after a parse error.
func (p *Parser) sync() {
	for !p.tok.Is(token.EOF) && !p.tok.Is(token.Semi) && !p.tok.Is(token.RBrace) {
		p.advance()
	}
	if p.tok.Is(token.Semi) {
		p.advance()
	}
}

func (p *Parser) errorf(code diag.Code, format string, args ...any) {
	diag.ReportError(p.reporter, code, p.tok.Span, fmt.Sprintf(format, args...)).Emit()
}
