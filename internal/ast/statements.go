package ast

import "github.com/go-jsvm/jsvm/internal/token"

// ExpressionStatement is an expression evaluated for its side effects.
type ExpressionStatement struct {
	Expr     Expression
	Position token.Position
}

func (e *ExpressionStatement) Pos() token.Position { return e.Position }
func (e *ExpressionStatement) String() string      { return "ExpressionStatement" }
func (e *ExpressionStatement) node()               {}
func (e *ExpressionStatement) statementNode()      {}

// BlockStatement is `{ ... }`; it introduces a new lexical (declarative)
// environment.
type BlockStatement struct {
	Body     []Statement
	Position token.Position
}

func (b *BlockStatement) Pos() token.Position { return b.Position }
func (b *BlockStatement) String() string      { return "BlockStatement" }
func (b *BlockStatement) node()               {}
func (b *BlockStatement) statementNode()      {}

// EmptyStatement is a bare `;`.
type EmptyStatement struct{ Position token.Position }

func (e *EmptyStatement) Pos() token.Position { return e.Position }
func (e *EmptyStatement) String() string      { return "EmptyStatement" }
func (e *EmptyStatement) node()               {}
func (e *EmptyStatement) statementNode()      {}

// DeclarationKind distinguishes `var`/`let`/`const`.
type DeclarationKind int

const (
	DeclVar DeclarationKind = iota
	DeclLet
	DeclConst
)

// VariableDeclarator pairs a binding target with an optional initializer.
type VariableDeclarator struct {
	Target Pattern
	Init   Expression // nil if uninitialized
}

// VariableDeclaration is `var|let|const a = 1, {b} = c;`.
type VariableDeclaration struct {
	Kind         DeclarationKind
	Declarations []VariableDeclarator
	Position     token.Position
}

func (v *VariableDeclaration) Pos() token.Position { return v.Position }
func (v *VariableDeclaration) String() string      { return "VariableDeclaration" }
func (v *VariableDeclaration) node()               {}
func (v *VariableDeclaration) statementNode()      {}

// FunctionDeclaration is a named function statement.
type FunctionDeclaration struct {
	Name      *Identifier
	Params    []Pattern
	Body      *BlockStatement
	Generator bool
	Async     bool
	Position  token.Position
}

func (f *FunctionDeclaration) Pos() token.Position { return f.Position }
func (f *FunctionDeclaration) String() string      { return "FunctionDeclaration" }
func (f *FunctionDeclaration) node()               {}
func (f *FunctionDeclaration) statementNode()      {}

// ReturnStatement is `return expr;`.
type ReturnStatement struct {
	Argument Expression // nil for bare `return;`
	Position token.Position
}

func (r *ReturnStatement) Pos() token.Position { return r.Position }
func (r *ReturnStatement) String() string      { return "ReturnStatement" }
func (r *ReturnStatement) node()               {}
func (r *ReturnStatement) statementNode()      {}

// IfStatement is `if (test) cons else alt`.
type IfStatement struct {
	Test       Expression
	Consequent Statement
	Alternate  Statement // nil if no else
	Position   token.Position
}

func (i *IfStatement) Pos() token.Position { return i.Position }
func (i *IfStatement) String() string      { return "IfStatement" }
func (i *IfStatement) node()               {}
func (i *IfStatement) statementNode()      {}

// WhileStatement is `while (test) body`.
type WhileStatement struct {
	Test     Expression
	Body     Statement
	Position token.Position
}

func (w *WhileStatement) Pos() token.Position { return w.Position }
func (w *WhileStatement) String() string      { return "WhileStatement" }
func (w *WhileStatement) node()               {}
func (w *WhileStatement) statementNode()      {}

// DoWhileStatement is `do body while (test);`.
type DoWhileStatement struct {
	Body     Statement
	Test     Expression
	Position token.Position
}

func (d *DoWhileStatement) Pos() token.Position { return d.Position }
func (d *DoWhileStatement) String() string      { return "DoWhileStatement" }
func (d *DoWhileStatement) node()               {}
func (d *DoWhileStatement) statementNode()      {}

// ForStatement is the classic C-style `for (init; test; update) body`; Init
// may be a *VariableDeclaration or an Expression, and either of Test/Update
// may be nil.
type ForStatement struct {
	Init     Node
	Test     Expression
	Update   Expression
	Body     Statement
	Position token.Position
}

func (f *ForStatement) Pos() token.Position { return f.Position }
func (f *ForStatement) String() string      { return "ForStatement" }
func (f *ForStatement) node()               {}
func (f *ForStatement) statementNode()      {}

// ForInStatement is `for (left in right) body`; Left is a
// *VariableDeclaration (single declarator) or an assignable Expression.
type ForInStatement struct {
	Left     Node
	Right    Expression
	Body     Statement
	Position token.Position
}

func (f *ForInStatement) Pos() token.Position { return f.Position }
func (f *ForInStatement) String() string      { return "ForInStatement" }
func (f *ForInStatement) node()               {}
func (f *ForInStatement) statementNode()      {}

// ForOfStatement is `for (left of right) body`; Await is set for
// `for await (... of ...)` inside an async function/generator.
type ForOfStatement struct {
	Left     Node
	Right    Expression
	Body     Statement
	Await    bool
	Position token.Position
}

func (f *ForOfStatement) Pos() token.Position { return f.Position }
func (f *ForOfStatement) String() string      { return "ForOfStatement" }
func (f *ForOfStatement) node()               {}
func (f *ForOfStatement) statementNode()      {}

// BreakStatement is `break;` or `break label;`.
type BreakStatement struct {
	Label    string
	Position token.Position
}

func (b *BreakStatement) Pos() token.Position { return b.Position }
func (b *BreakStatement) String() string      { return "BreakStatement" }
func (b *BreakStatement) node()               {}
func (b *BreakStatement) statementNode()      {}

// ContinueStatement is `continue;` or `continue label;`.
type ContinueStatement struct {
	Label    string
	Position token.Position
}

func (c *ContinueStatement) Pos() token.Position { return c.Position }
func (c *ContinueStatement) String() string      { return "ContinueStatement" }
func (c *ContinueStatement) node()               {}
func (c *ContinueStatement) statementNode()      {}

// LabeledStatement is `label: stmt`, the target of a labeled break/continue.
type LabeledStatement struct {
	Label    string
	Body     Statement
	Position token.Position
}

func (l *LabeledStatement) Pos() token.Position { return l.Position }
func (l *LabeledStatement) String() string      { return "LabeledStatement" }
func (l *LabeledStatement) node()               {}
func (l *LabeledStatement) statementNode()      {}

// SwitchCase is one `case expr:`/`default:` arm.
type SwitchCase struct {
	Test Expression // nil for `default`
	Body []Statement
}

// SwitchStatement is `switch (disc) { case ...: ... }`.
type SwitchStatement struct {
	Discriminant Expression
	Cases        []SwitchCase
	Position     token.Position
}

func (s *SwitchStatement) Pos() token.Position { return s.Position }
func (s *SwitchStatement) String() string      { return "SwitchStatement" }
func (s *SwitchStatement) node()               {}
func (s *SwitchStatement) statementNode()      {}
