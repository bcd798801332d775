package ast

import "github.com/go-jsvm/jsvm/internal/token"

// NumberLiteral is a numeric literal; Big is set for a BigInt literal
// (trailing `n`), in which case Value is unused.
type NumberLiteral struct {
	Value    float64
	Big      string // non-empty for bigint literals, decimal digits only
	Position token.Position
}

func (n *NumberLiteral) Pos() token.Position { return n.Position }
func (n *NumberLiteral) String() string      { return "NumberLiteral" }
func (n *NumberLiteral) node()               {}
func (n *NumberLiteral) expressionNode()     {}

// StringLiteral is a single- or double-quoted string literal.
type StringLiteral struct {
	Value    string
	Position token.Position
}

func (s *StringLiteral) Pos() token.Position { return s.Position }
func (s *StringLiteral) String() string      { return "StringLiteral" }
func (s *StringLiteral) node()               {}
func (s *StringLiteral) expressionNode()     {}

// BooleanLiteral is `true`/`false`.
type BooleanLiteral struct {
	Value    bool
	Position token.Position
}

func (b *BooleanLiteral) Pos() token.Position { return b.Position }
func (b *BooleanLiteral) String() string      { return "BooleanLiteral" }
func (b *BooleanLiteral) node()               {}
func (b *BooleanLiteral) expressionNode()     {}

// NullLiteral is `null`.
type NullLiteral struct{ Position token.Position }

func (n *NullLiteral) Pos() token.Position { return n.Position }
func (n *NullLiteral) String() string      { return "null" }
func (n *NullLiteral) node()               {}
func (n *NullLiteral) expressionNode()     {}

// UndefinedLiteral is the `undefined` identifier treated as a literal.
type UndefinedLiteral struct{ Position token.Position }

func (u *UndefinedLiteral) Pos() token.Position { return u.Position }
func (u *UndefinedLiteral) String() string      { return "undefined" }
func (u *UndefinedLiteral) node()               {}
func (u *UndefinedLiteral) expressionNode()     {}

// RegExpLiteral is a `/pattern/flags` literal.
type RegExpLiteral struct {
	Pattern  string
	Flags    string
	Position token.Position
}

func (r *RegExpLiteral) Pos() token.Position { return r.Position }
func (r *RegExpLiteral) String() string      { return "RegExpLiteral" }
func (r *RegExpLiteral) node()               {}
func (r *RegExpLiteral) expressionNode()     {}

// TemplateLiteral is a backtick string with interpolated expressions;
// Quasis has len(Expressions)+1 elements.
type TemplateLiteral struct {
	Quasis      []string
	Expressions []Expression
	Position    token.Position
}

func (t *TemplateLiteral) Pos() token.Position { return t.Position }
func (t *TemplateLiteral) String() string      { return "TemplateLiteral" }
func (t *TemplateLiteral) node()               {}
func (t *TemplateLiteral) expressionNode()     {}

// ArrayLiteral is `[a, , ...b]`; a nil element represents an elision.
type ArrayLiteral struct {
	Elements []Expression
	Spreads  []bool // parallel to Elements: true if the element is `...expr`
	Position token.Position
}

func (a *ArrayLiteral) Pos() token.Position { return a.Position }
func (a *ArrayLiteral) String() string      { return "ArrayLiteral" }
func (a *ArrayLiteral) node()               {}
func (a *ArrayLiteral) expressionNode()     {}

// PropertyKind distinguishes object-literal property forms.
type PropertyKind int

const (
	PropertyInit PropertyKind = iota
	PropertyGet
	PropertySet
	PropertyMethod
	PropertySpread
)

// Property is one entry of an ObjectLiteral.
type Property struct {
	Key       Expression // Identifier, StringLiteral, NumberLiteral, or computed expression
	Computed  bool
	Value     Expression // nil for PropertySpread (Key holds the spread expression)
	Kind      PropertyKind
	Shorthand bool
}

// ObjectLiteral is `{ a: 1, [k]: 2, ...rest }`.
type ObjectLiteral struct {
	Properties []Property
	Position   token.Position
}

func (o *ObjectLiteral) Pos() token.Position { return o.Position }
func (o *ObjectLiteral) String() string      { return "ObjectLiteral" }
func (o *ObjectLiteral) node()               {}
func (o *ObjectLiteral) expressionNode()     {}
