// Package token defines lexical token kinds for the cinder compiler.
// Invariants:
//   - Token.Text is the source text of the token.
//   - Token.Span matches Text exactly (Start..End).
package token

import "cinder/internal/source"

type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

func (t Token) Is(k Kind) bool {
	return t.Kind == k
}
