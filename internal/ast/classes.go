package ast

import "github.com/go-jsvm/jsvm/internal/token"

// ClassElementKind distinguishes the members of a class body.
type ClassElementKind int

const (
	ClassMethod ClassElementKind = iota
	ClassGetter
	ClassSetter
	ClassField
	ClassStaticBlock
)

// ClassElement is one member of a class body.
type ClassElement struct {
	Kind       ClassElementKind
	Key        Expression // Identifier, PrivateIdentifier, StringLiteral, or computed expression
	Computed   bool
	Static     bool
	Value      Expression      // *FunctionExpression for methods/getters/setters, initializer Expression for fields (nil if none)
	StaticBody *BlockStatement // non-nil only for ClassStaticBlock
}

// ClassDeclaration is a named or anonymous class, used both as a statement
// and (embedded) as an expression.
type ClassDeclaration struct {
	Name       *Identifier // nil for an anonymous class expression
	SuperClass Expression  // nil when there is no `extends`
	Body       []ClassElement
	Position   token.Position
}

func (c *ClassDeclaration) Pos() token.Position { return c.Position }
func (c *ClassDeclaration) String() string      { return "ClassDeclaration" }
func (c *ClassDeclaration) node()               {}
func (c *ClassDeclaration) statementNode()      {}

// ClassExpression wraps a ClassDeclaration for use in expression position,
// e.g. `const C = class extends Base { ... }`.
type ClassExpression struct {
	*ClassDeclaration
}

func (c *ClassExpression) expressionNode() {}
