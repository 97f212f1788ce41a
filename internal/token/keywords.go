package token

var keywords = map[string]Kind{
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"do":       KwDo,
	"for":      KwFor,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
	"struct":   KwStruct,
	"using":    KwUsing,
	"true":     KwTrue,
	"false":    KwFalse,
}

// LookupKeyword maps a lexeme to its keyword kind.
// Built-in type names (void, bool, char, int) are identifiers;
// the parser recognizes them, not the lexer.
func LookupKeyword(lexeme string) (Kind, bool) {
	k, ok := keywords[lexeme]
	return k, ok
}
