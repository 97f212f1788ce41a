package parser

import (
	"strconv"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/token"
	"cinder/internal/types"
)

// Precedence climbing, lowest first. Assignment is right
// associative; everything else is left associative.
func (p *Parser) parseExpr() *ast.Node {
	return p.parseAssign()
}

func (p *Parser) parseAssign() *ast.Node {
	lhs := p.parseLogicOr()
	if !p.tok.Is(token.Assign) {
		return lhs
	}
	n := ast.New(ast.Assign, p.tok.Span)
	n.Op = token.Assign
	p.advance()
	n.L = lhs
	n.R = p.parseAssign()
	return n
}

func (p *Parser) parseLogicOr() *ast.Node {
	lhs := p.parseLogicAnd()
	for p.tok.Is(token.PipePipe) {
		op := p.tok.Kind
		p.advance()
		lhs = p.binNode(lhs, op, p.parseLogicAnd())
	}
	return lhs
}

func (p *Parser) parseLogicAnd() *ast.Node {
	lhs := p.parseEquality()
	for p.tok.Is(token.AmpAmp) {
		op := p.tok.Kind
		p.advance()
		lhs = p.binNode(lhs, op, p.parseEquality())
	}
	return lhs
}

func (p *Parser) parseEquality() *ast.Node {
	lhs := p.parseRelational()
	for p.tok.Is(token.EqEq) || p.tok.Is(token.BangEq) {
		op := p.tok.Kind
		p.advance()
		lhs = p.binNode(lhs, op, p.parseRelational())
	}
	return lhs
}

func (p *Parser) parseRelational() *ast.Node {
	lhs := p.parseAdditive()
	for p.tok.Is(token.Lt) || p.tok.Is(token.LtEq) || p.tok.Is(token.Gt) || p.tok.Is(token.GtEq) {
		op := p.tok.Kind
		p.advance()
		lhs = p.binNode(lhs, op, p.parseAdditive())
	}
	return lhs
}

func (p *Parser) parseAdditive() *ast.Node {
	lhs := p.parseMultiplicative()
	for p.tok.Is(token.Plus) || p.tok.Is(token.Minus) {
		op := p.tok.Kind
		p.advance()
		lhs = p.binNode(lhs, op, p.parseMultiplicative())
	}
	return lhs
}

func (p *Parser) parseMultiplicative() *ast.Node {
	lhs := p.parseUnary()
	for p.tok.Is(token.Star) || p.tok.Is(token.Slash) {
		op := p.tok.Kind
		p.advance()
		lhs = p.binNode(lhs, op, p.parseUnary())
	}
	return lhs
}

func (p *Parser) binNode(lhs *ast.Node, op token.Kind, rhs *ast.Node) *ast.Node {
	n := ast.New(ast.BinOp, lhs.Span.Cover(rhs.Span))
	n.Op = op
	n.L = lhs
	n.R = rhs
	return n
}

func (p *Parser) parseUnary() *ast.Node {
	switch p.tok.Kind {
	case token.Minus, token.Bang, token.Star, token.Amp:
		n := ast.New(ast.UnOp, p.tok.Span)
		n.Op = p.tok.Kind
		p.advance()
		n.L = p.parseUnary()
		return n
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ast.Node {
	n := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case token.LParen:
			call := ast.New(ast.Call, p.tok.Span)
			call.L = n
			p.advance()
			for !p.tok.Is(token.RParen) && !p.tok.Is(token.EOF) {
				call.AddChild(p.parseExpr())
				if !p.tok.Is(token.Comma) {
					break
				}
				p.advance()
			}
			p.expect(token.RParen, diag.CodeUnclosedParen, "expected ) after arguments")
			n = call

		case token.Dot:
			member := ast.New(ast.Member, p.tok.Span)
			member.L = n
			p.advance()
			if p.tok.Is(token.Ident) {
				member.Name = p.tok.Text
				p.advance()
			} else {
				p.errorf(diag.CodeUnexpectedToken, "expected a field name after .")
			}
			n = member

		case token.PlusPlus, token.MinusMinus:
			post := ast.New(ast.UnOp, p.tok.Span)
			post.Op = p.tok.Kind
			post.L = n
			p.advance()
			n = post

		default:
			return n
		}
	}
}

func (p *Parser) parsePrimary() *ast.Node {
	switch p.tok.Kind {
	case token.IntLit:
		n := ast.New(ast.Literal, p.tok.Span)
		v, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			p.errorf(diag.CodeBadToken, "bad integer literal %s", p.tok.Text)
		}
		n.Lit = v
		n.DT = types.Int
		p.advance()
		return n

	case token.CharLit:
		n := ast.New(ast.Literal, p.tok.Span)
		n.Lit = charValue(p.tok.Text)
		n.DT = types.Char
		p.advance()
		return n

	case token.KwTrue, token.KwFalse:
		n := ast.New(ast.Literal, p.tok.Span)
		if p.tok.Is(token.KwTrue) {
			n.Lit = 1
		}
		n.DT = types.Bool
		p.advance()
		return n

	case token.Ident:
		n := ast.New(ast.Ident, p.tok.Span)
		n.Name = p.tok.Text
		p.advance()
		return n

	case token.LParen:
		p.advance()
		n := p.parseExpr()
		p.expect(token.RParen, diag.CodeUnclosedParen, "expected )")
		return n

	default:
		p.errorf(diag.CodeUnexpectedToken, "expected an expression, got %s", p.tok.Kind)
		n := ast.New(ast.Literal, p.tok.Span)
		n.DT = types.Int
		p.advance()
		return n
	}
}

func charValue(text string) int64 {
	// text includes the surrounding quotes.
	if len(text) < 3 {
		return 0
	}
	body := text[1 : len(text)-1]
	if len(body) == 2 && body[0] == '\\' {
		switch body[1] {
		case 'n':
			return '\n'
		case 't':
			return '\t'
		case '0':
			return 0
		case '\\':
			return '\\'
		case '\'':
			return '\''
		}
	}
	return int64(body[0])
}
