// Package ast defines the tagged syntax tree handed from the parser
// to the semantic pass and the lowering core.
//
// Nodes form a forest through FirstChild/NextSibling; control-flow
// tags additionally use the named L and R slots. The tree is built
// once by the parser and treated as read-only afterwards.
package ast

import (
	"cinder/internal/source"
	"cinder/internal/sym"
	"cinder/internal/token"
	"cinder/internal/types"
)

type Tag uint8

const (
	Module Tag = iota
	Using
	FnImpl
	Decl
	Code
	Branch
	Loop
	Iter
	Return
	Break
	Continue
	Empty

	// Value tags. Everything from Literal on is an expression form;
	// keep IsValueTag in sync when adding tags.
	Literal
	Ident
	Assign
	BinOp
	UnOp
	Call
	Member
)

var tagNames = [...]string{
	Module:   "Module",
	Using:    "Using",
	FnImpl:   "FnImpl",
	Decl:     "Decl",
	Code:     "Code",
	Branch:   "Branch",
	Loop:     "Loop",
	Iter:     "Iter",
	Return:   "Return",
	Break:    "Break",
	Continue: "Continue",
	Empty:    "Empty",
	Literal:  "Literal",
	Ident:    "Ident",
	Assign:   "Assign",
	BinOp:    "BinOp",
	UnOp:     "UnOp",
	Call:     "Call",
	Member:   "Member",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "Unknown"
}

// IsValueTag classifies the open family of expression tags.
func IsValueTag(t Tag) bool {
	return t >= Literal
}

// Node is one syntax tree node. Slot conventions:
//
//	Branch:  FirstChild = condition, L = then Code, R = else Code
//	         (an empty Code when the source had no else arm)
//	Loop:    while:     L = condition, R = body Code
//	         do-while:  L = body Code, R = condition
//	Iter:    children = init, cond, iter; L = body Code
//	Return:  R = value expression, nil for a void return
//	FnImpl:  R = body Code, Sym = function symbol
//	Decl:    Sym = declared symbol, L = initializer or nil
//	Using:   R = the re-exported module's root, filled by the resolver
type Node struct {
	Tag  Tag
	Span source.Span

	FirstChild  *Node
	NextSibling *Node
	lastChild   *Node

	L *Node
	R *Node

	Sym *sym.Symbol
	DT  *types.Type

	Op   token.Kind // Assign/BinOp/UnOp operator
	Lit  int64      // Literal value
	Name string     // Ident / Member field / Call via Ident child
}

func New(tag Tag, span source.Span) *Node {
	return &Node{Tag: tag, Span: span}
}

// AddChild appends c to the sibling chain.
func (n *Node) AddChild(c *Node) *Node {
	if n.lastChild == nil {
		n.FirstChild = c
	} else {
		n.lastChild.NextSibling = c
	}
	n.lastChild = c
	return c
}

// ChildCount walks the sibling chain.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}
