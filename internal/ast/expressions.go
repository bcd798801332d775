package ast

import "github.com/go-jsvm/jsvm/internal/token"

// UnaryExpression is a prefix operator: `typeof x`, `-x`, `!x`, `void x`,
// `delete a.b`, `~x`.
type UnaryExpression struct {
	Operator token.Kind
	Operand  Expression
	Position token.Position
}

func (u *UnaryExpression) Pos() token.Position { return u.Position }
func (u *UnaryExpression) String() string      { return "UnaryExpression" }
func (u *UnaryExpression) node()               {}
func (u *UnaryExpression) expressionNode()     {}

// UpdateExpression is `++x`, `x++`, `--x`, `x--`.
type UpdateExpression struct {
	Operator token.Kind
	Operand  Expression
	Prefix   bool
	Position token.Position
}

func (u *UpdateExpression) Pos() token.Position { return u.Position }
func (u *UpdateExpression) String() string      { return "UpdateExpression" }
func (u *UpdateExpression) node()               {}
func (u *UpdateExpression) expressionNode()     {}

// BinaryExpression covers arithmetic, comparison, bitwise, `in`, and
// `instanceof` operators.
type BinaryExpression struct {
	Operator token.Kind
	Left     Expression
	Right    Expression
	Position token.Position
}

func (b *BinaryExpression) Pos() token.Position { return b.Position }
func (b *BinaryExpression) String() string      { return "BinaryExpression" }
func (b *BinaryExpression) node()               {}
func (b *BinaryExpression) expressionNode()     {}

// LogicalExpression is `&&`, `||`, `??`, which short-circuit and so compile
// to conditional jumps rather than the eager BinaryExpression opcodes.
type LogicalExpression struct {
	Operator token.Kind
	Left     Expression
	Right    Expression
	Position token.Position
}

func (l *LogicalExpression) Pos() token.Position { return l.Position }
func (l *LogicalExpression) String() string      { return "LogicalExpression" }
func (l *LogicalExpression) node()               {}
func (l *LogicalExpression) expressionNode()     {}

// AssignmentExpression is `target op= value`; Target is an Expression for
// simple member/identifier targets, or a Pattern for `({a} = obj)`.
type AssignmentExpression struct {
	Operator token.Kind
	Target   Node // Expression or Pattern
	Value    Expression
	Position token.Position
}

func (a *AssignmentExpression) Pos() token.Position { return a.Position }
func (a *AssignmentExpression) String() string      { return "AssignmentExpression" }
func (a *AssignmentExpression) node()               {}
func (a *AssignmentExpression) expressionNode()     {}

// ConditionalExpression is `test ? cons : alt`.
type ConditionalExpression struct {
	Test       Expression
	Consequent Expression
	Alternate  Expression
	Position   token.Position
}

func (c *ConditionalExpression) Pos() token.Position { return c.Position }
func (c *ConditionalExpression) String() string      { return "ConditionalExpression" }
func (c *ConditionalExpression) node()               {}
func (c *ConditionalExpression) expressionNode()     {}

// SequenceExpression is the comma operator: `a, b, c`.
type SequenceExpression struct {
	Expressions []Expression
	Position    token.Position
}

func (s *SequenceExpression) Pos() token.Position { return s.Position }
func (s *SequenceExpression) String() string      { return "SequenceExpression" }
func (s *SequenceExpression) node()               {}
func (s *SequenceExpression) expressionNode()     {}

// MemberExpression is `obj.prop`, `obj[expr]`, `obj?.prop`, or a private
// access `obj.#field`.
type MemberExpression struct {
	Object   Expression
	Property Expression // Identifier for dotted access, any Expression when Computed, PrivateIdentifier for #field
	Computed bool
	Optional bool // `?.`
	Position token.Position
}

func (m *MemberExpression) Pos() token.Position { return m.Position }
func (m *MemberExpression) String() string      { return "MemberExpression" }
func (m *MemberExpression) node()               {}
func (m *MemberExpression) expressionNode()     {}

// Argument is a call/new argument, optionally spread (`...arr`).
type Argument struct {
	Value  Expression
	Spread bool
}

// CallExpression is `callee(args)`, with Optional set for `callee?.(args)`.
type CallExpression struct {
	Callee   Expression
	Args     []Argument
	Optional bool
	Position token.Position
}

func (c *CallExpression) Pos() token.Position { return c.Position }
func (c *CallExpression) String() string      { return "CallExpression" }
func (c *CallExpression) node()               {}
func (c *CallExpression) expressionNode()     {}

// NewExpression is `new Callee(args)`.
type NewExpression struct {
	Callee   Expression
	Args     []Argument
	Position token.Position
}

func (n *NewExpression) Pos() token.Position { return n.Position }
func (n *NewExpression) String() string      { return "NewExpression" }
func (n *NewExpression) node()               {}
func (n *NewExpression) expressionNode()     {}

// ThisExpression is `this`.
type ThisExpression struct{ Position token.Position }

func (t *ThisExpression) Pos() token.Position { return t.Position }
func (t *ThisExpression) String() string      { return "this" }
func (t *ThisExpression) node()               {}
func (t *ThisExpression) expressionNode()     {}

// SuperExpression is the bare `super` used as a call target or the object
// of a `super.prop` / `super[expr]` member access.
type SuperExpression struct{ Position token.Position }

func (s *SuperExpression) Pos() token.Position { return s.Position }
func (s *SuperExpression) String() string      { return "super" }
func (s *SuperExpression) node()               {}
func (s *SuperExpression) expressionNode()     {}

// YieldExpression is `yield expr` or `yield* expr`.
type YieldExpression struct {
	Argument Expression // nil for bare `yield`
	Delegate bool
	Position token.Position
}

func (y *YieldExpression) Pos() token.Position { return y.Position }
func (y *YieldExpression) String() string      { return "YieldExpression" }
func (y *YieldExpression) node()               {}
func (y *YieldExpression) expressionNode()     {}

// AwaitExpression is `await expr`.
type AwaitExpression struct {
	Argument Expression
	Position token.Position
}

func (a *AwaitExpression) Pos() token.Position { return a.Position }
func (a *AwaitExpression) String() string      { return "AwaitExpression" }
func (a *AwaitExpression) node()               {}
func (a *AwaitExpression) expressionNode()     {}

// SpreadElement wraps `...expr` where it appears outside an explicit
// Argument/array-element slot (e.g. inside object literals is handled via
// Property.Kind == PropertySpread instead).
type SpreadElement struct {
	Argument Expression
	Position token.Position
}

func (s *SpreadElement) Pos() token.Position { return s.Position }
func (s *SpreadElement) String() string      { return "SpreadElement" }
func (s *SpreadElement) node()               {}
func (s *SpreadElement) expressionNode()     {}

// FunctionExpression is a named or anonymous function literal, including
// generator/async variants. Params elements are Patterns (an Identifier is
// itself a Pattern) optionally wrapped in AssignmentPattern for defaults;
// the last parameter may be a RestElement.
type FunctionExpression struct {
	Name      *Identifier // nil for anonymous
	Params    []Pattern
	Body      *BlockStatement
	Generator bool
	Async     bool
	Position  token.Position
}

func (f *FunctionExpression) Pos() token.Position { return f.Position }
func (f *FunctionExpression) String() string      { return "FunctionExpression" }
func (f *FunctionExpression) node()               {}
func (f *FunctionExpression) expressionNode()     {}

// RestElement is the trailing `...name` parameter/pattern element.
type RestElement struct {
	Target   Pattern
	Position token.Position
}

func (r *RestElement) Pos() token.Position { return r.Position }
func (r *RestElement) String() string      { return "RestElement" }
func (r *RestElement) node()               {}
func (r *RestElement) patternNode()        {}

// ArrowFunctionExpression is `(params) => body`; Body is either an
// Expression (concise body) or a *BlockStatement.
type ArrowFunctionExpression struct {
	Params   []Pattern
	Body     Node // Expression | *BlockStatement
	Async    bool
	Position token.Position
}

func (a *ArrowFunctionExpression) Pos() token.Position { return a.Position }
func (a *ArrowFunctionExpression) String() string      { return "ArrowFunctionExpression" }
func (a *ArrowFunctionExpression) node()               {}
func (a *ArrowFunctionExpression) expressionNode()     {}

// TaggedTemplateExpression is “ tag`text${expr}` “.
type TaggedTemplateExpression struct {
	Tag      Expression
	Quasi    *TemplateLiteral
	Position token.Position
}

func (t *TaggedTemplateExpression) Pos() token.Position { return t.Position }
func (t *TaggedTemplateExpression) String() string      { return "TaggedTemplateExpression" }
func (t *TaggedTemplateExpression) node()               {}
func (t *TaggedTemplateExpression) expressionNode()     {}
