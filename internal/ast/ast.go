// Package ast defines the Abstract Syntax Tree produced by internal/parser
// and consumed by internal/bytecode's compiler. The lexer and parser that
// build these trees are ordinary recursive-descent front ends; the AST
// node set is kept close to what the bytecode compiler actually needs to
// walk (a `Visitor`, and a `Pos()` on every node for diagnostics).
package ast

import "github.com/go-jsvm/jsvm/internal/token"

// Node is the base interface every AST node implements.
type Node interface {
	Pos() token.Position
	String() string
	node()
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// Program is the root of a parsed source file or eval string.
type Program struct {
	Body   []Statement
	Strict bool
}

func (p *Program) Pos() token.Position {
	if len(p.Body) > 0 {
		return p.Body[0].Pos()
	}
	return token.Position{Line: 1, Column: 1}
}
func (p *Program) String() string { return "Program" }
func (p *Program) node()          {}

// Identifier is a bare name reference, used both as an expression and
// (embedded) as a binding target in declarations and patterns.
type Identifier struct {
	Name     string
	Position token.Position
}

func (i *Identifier) Pos() token.Position { return i.Position }
func (i *Identifier) String() string      { return i.Name }
func (i *Identifier) node()               {}
func (i *Identifier) expressionNode()     {}
func (i *Identifier) patternNode()        {}

// PrivateIdentifier is a `#name` reference used for private class members.
type PrivateIdentifier struct {
	Name     string
	Position token.Position
}

func (i *PrivateIdentifier) Pos() token.Position { return i.Position }
func (i *PrivateIdentifier) String() string      { return "#" + i.Name }
func (i *PrivateIdentifier) node()               {}
func (i *PrivateIdentifier) expressionNode()     {}
