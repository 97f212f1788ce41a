// Package lexer turns source bytes into tokens.
package lexer

import (
	"cinder/internal/diag"
	"cinder/internal/source"
	"cinder/internal/token"
)

type Lexer struct {
	file     *source.File
	pos      uint32
	reporter diag.Reporter
	look     *token.Token
}

func New(file *source.File, reporter diag.Reporter) *Lexer {
	return &Lexer{file: file, reporter: reporter}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		tok := lx.scan()
		lx.look = &tok
	}
	return *lx.look
}

// Next returns the next significant token. After EOF it always
// returns EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	return lx.scan()
}

func (lx *Lexer) scan() token.Token {
	lx.skipBlank()

	start := lx.pos
	if lx.eof() {
		return token.Token{Kind: token.EOF, Span: lx.span(start)}
	}

	ch := lx.peekByte()
	switch {
	case isIdentStart(ch):
		return lx.scanIdent()
	case isDigit(ch):
		return lx.scanNumber()
	case ch == '\'':
		return lx.scanChar()
	}

	lx.pos++
	kind := token.Invalid
	switch ch {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case ',':
		kind = token.Comma
	case ';':
		kind = token.Semi
	case '.':
		kind = token.Dot
	case '+':
		kind = lx.selectTwo('+', token.PlusPlus, token.Plus)
	case '-':
		kind = lx.selectTwo('-', token.MinusMinus, token.Minus)
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '=':
		kind = lx.selectTwo('=', token.EqEq, token.Assign)
	case '!':
		kind = lx.selectTwo('=', token.BangEq, token.Bang)
	case '<':
		kind = lx.selectTwo('=', token.LtEq, token.Lt)
	case '>':
		kind = lx.selectTwo('=', token.GtEq, token.Gt)
	case '&':
		kind = lx.selectTwo('&', token.AmpAmp, token.Amp)
	case '|':
		if lx.match('|') {
			kind = token.PipePipe
		}
	}

	tok := lx.token(kind, start)
	if kind == token.Invalid {
		diag.ReportError(lx.reporter, diag.CodeBadToken, tok.Span,
			"unexpected character "+tok.Text).Emit()
	}
	return tok
}

func (lx *Lexer) scanIdent() token.Token {
	start := lx.pos
	for !lx.eof() && isIdentPart(lx.peekByte()) {
		lx.pos++
	}
	tok := lx.token(token.Ident, start)
	if kw, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = kw
	}
	return tok
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.pos
	for !lx.eof() && isDigit(lx.peekByte()) {
		lx.pos++
	}
	return lx.token(token.IntLit, start)
}

func (lx *Lexer) scanChar() token.Token {
	start := lx.pos
	lx.pos++ // opening quote
	if !lx.eof() && lx.peekByte() == '\\' {
		lx.pos++
	}
	if !lx.eof() {
		lx.pos++
	}
	if !lx.eof() && lx.peekByte() == '\'' {
		lx.pos++
		return lx.token(token.CharLit, start)
	}
	tok := lx.token(token.Invalid, start)
	diag.ReportError(lx.reporter, diag.CodeBadToken, tok.Span,
		"unterminated character literal").Emit()
	return tok
}

func (lx *Lexer) skipBlank() {
	for !lx.eof() {
		ch := lx.peekByte()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			lx.pos++
		case ch == '/' && lx.peekAt(1) == '/':
			for !lx.eof() && lx.peekByte() != '\n' {
				lx.pos++
			}
		case ch == '/' && lx.peekAt(1) == '*':
			lx.pos += 2
			for !lx.eof() && !(lx.peekByte() == '*' && lx.peekAt(1) == '/') {
				lx.pos++
			}
			if !lx.eof() {
				lx.pos += 2
			}
		default:
			return
		}
	}
}

func (lx *Lexer) selectTwo(second byte, two, one token.Kind) token.Kind {
	if lx.match(second) {
		return two
	}
	return one
}

func (lx *Lexer) match(ch byte) bool {
	if lx.eof() || lx.peekByte() != ch {
		return false
	}
	lx.pos++
	return true
}

func (lx *Lexer) token(kind token.Kind, start uint32) token.Token {
	return token.Token{
		Kind: kind,
		Span: source.Span{File: lx.file.ID, Start: start, End: lx.pos},
		Text: string(lx.file.Content[start:lx.pos]),
	}
}

func (lx *Lexer) span(start uint32) source.Span {
	return source.Span{File: lx.file.ID, Start: start, End: lx.pos}
}

func (lx *Lexer) eof() bool {
	return int(lx.pos) >= len(lx.file.Content)
}

func (lx *Lexer) peekByte() byte {
	return lx.file.Content[lx.pos]
}

func (lx *Lexer) peekAt(n uint32) byte {
	if int(lx.pos+n) >= len(lx.file.Content) {
		return 0
	}
	return lx.file.Content[lx.pos+n]
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
