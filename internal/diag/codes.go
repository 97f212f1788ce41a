package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical.
	CodeBadToken Code = 1001

	// Syntax.
	CodeUnexpectedToken Code = 2001
	CodeExpectSemicolon Code = 2002
	CodeUnclosedBrace   Code = 2003
	CodeUnclosedParen   Code = 2004
	CodeBadForHeader    Code = 2005

	// Semantic.
	CodeUndefinedName     Code = 3001
	CodeRedefinedName     Code = 3002
	CodeBreakOutsideLoop  Code = 3003
	CodeTypeMismatch      Code = 3004
	CodeNotCallable       Code = 3005
	CodeNoSuchField       Code = 3006
	CodeUsingCycle        Code = 3007
	CodeUsingNotFound     Code = 3008
	CodeVoidValue         Code = 3009
	CodeReturnOutsideFn   Code = 3010
	CodeNotAssignable     Code = 3011
	CodeUnknownType       Code = 3012
	CodeDuplicateFunction Code = 3013
)

func (c Code) String() string {
	return fmt.Sprintf("C%04d", uint16(c))
}
